// Package config holds the layered treeupdt configuration. Settings resolve
// from global defaults through per-file and per-package sections, and inline
// annotations in the manifest always win over every configured layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/treeupdt/domain"
)

const (
	defaultStrategy = domain.StrategyStable
	defaultCacheTTL = 3600
)

// Config is the top-level configuration for treeupdt.
type Config struct {
	Global   GlobalConfig             `yaml:"global"`
	Files    map[string]FileConfig    `yaml:"files"`
	Packages map[string]PackageConfig `yaml:"packages"`
}

// GlobalConfig holds defaults applied to every declaration before the more
// specific layers override them.
type GlobalConfig struct {
	UpdateStrategy domain.UpdateStrategy `yaml:"update-strategy"`
	CacheEnabled   *bool                 `yaml:"cache-enabled"`
	CacheTTL       int                   `yaml:"cache-ttl"`
	Filters        FilterConfig          `yaml:"filters"`
	ExcludePaths   []string              `yaml:"exclude-paths"`
}

// FilterConfig narrows which declarations scans report. Empty lists mean
// no restriction on that axis.
type FilterConfig struct {
	FileTypes        []string `yaml:"file-types"`
	NamePatterns     []string `yaml:"name-patterns"`
	SourceTypes      []string `yaml:"source-types"`
	UpdateStrategies []string `yaml:"update-strategies"`
}

// FileConfig applies to all declarations found in one manifest file.
type FileConfig struct {
	Enabled        *bool                    `yaml:"enabled"`
	UpdateStrategy domain.UpdateStrategy    `yaml:"update-strategy"`
	Packages       map[string]PackageConfig `yaml:"packages"`
}

// PackageConfig applies to one declaration by name, either inside a file
// section or globally.
type PackageConfig struct {
	Enabled         *bool                 `yaml:"enabled"`
	UpdateStrategy  domain.UpdateStrategy `yaml:"update-strategy"`
	PinVersion      string                `yaml:"pin-version"`
	PreferredSource string                `yaml:"preferred-source"`
	IgnoreVersions  []string              `yaml:"ignore-versions"`
}

// Default returns a configuration with the built-in defaults and no file or
// package overrides.
func Default() *Config {
	return &Config{
		Global: GlobalConfig{
			UpdateStrategy: defaultStrategy,
			CacheTTL:       defaultCacheTTL,
		},
	}
}

// Load reads and parses a configuration file, filling unset defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, unmarshalErr)
	}

	if cfg.Global.UpdateStrategy == "" {
		cfg.Global.UpdateStrategy = defaultStrategy
	}
	if cfg.Global.CacheTTL == 0 {
		cfg.Global.CacheTTL = defaultCacheTTL
	}
	return &cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{"."}
	if homeDir != "" {
		locations = append(locations, filepath.Join(homeDir, ".config", "treeupdt"))
	}

	patterns := []string{
		".treeupdt.yaml",
		".treeupdt.yml",
		"treeupdt.yaml",
		"treeupdt.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// LoadDefault loads the first config file found in standard locations, or
// falls back to the built-in defaults when there is none.
func LoadDefault() *Config {
	path, err := FindConfigFile()
	if err != nil {
		return Default()
	}
	cfg, err := Load(path)
	if err != nil {
		logger.Warnf("[config] ignoring unreadable config %s: %v", path, err)
		return Default()
	}
	logger.Debugf("[config] loaded %s", path)
	return cfg
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if writeErr := os.WriteFile(path, data, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write config file %q: %w", path, writeErr)
	}
	return nil
}

// CacheEnabled reports whether the version cache is on; it defaults to on.
func (c *Config) CacheEnabled() bool {
	if c.Global.CacheEnabled == nil {
		return true
	}
	return *c.Global.CacheEnabled
}

// FileFor returns the file section matching a manifest path. Keys match
// exactly, or with a "./" prefix added or removed.
func (c *Config) FileFor(path string) *FileConfig {
	candidates := []string{path, strings.TrimPrefix(path, "./"), "./" + path}
	for _, candidate := range candidates {
		if fc, ok := c.Files[candidate]; ok {
			return &fc
		}
	}
	return nil
}

// PackageFor returns the global package section for a declaration name.
func (c *Config) PackageFor(name string) *PackageConfig {
	if pc, ok := c.Packages[name]; ok {
		return &pc
	}
	return nil
}

// IsExcluded reports whether a path matches any configured exclude pattern.
// Patterns containing a wildcard are glob matched; plain patterns match the
// path itself or any of its ancestors.
func (c *Config) IsExcluded(path string) bool {
	for _, pattern := range c.Global.ExcludePaths {
		if strings.Contains(pattern, "*") {
			matcher, err := glob.Compile(pattern)
			if err != nil {
				logger.Warnf("[config] invalid exclude pattern %q: %v", pattern, err)
				continue
			}
			if matcher.Match(path) {
				return true
			}
			continue
		}
		if path == pattern || strings.HasPrefix(path, pattern+"/") {
			return true
		}
	}
	return false
}

// Resolve applies every configuration layer to a declaration and reports
// whether it should be kept. Layers apply lowest to highest precedence:
// global strategy, file section, file package section, global package
// section, annotations.
func (c *Config) Resolve(decl domain.Declaration) (domain.Declaration, bool) {
	if c.IsExcluded(decl.Path) {
		return decl, false
	}

	if c.Global.UpdateStrategy != "" {
		decl.UpdateStrategy = c.Global.UpdateStrategy
	}

	fc := c.FileFor(decl.Path)
	if fc != nil {
		if fc.Enabled != nil && !*fc.Enabled {
			return decl, false
		}
		if fc.UpdateStrategy != "" {
			decl.UpdateStrategy = fc.UpdateStrategy
		}
	}

	var filePkg *PackageConfig
	if fc != nil {
		if pc, ok := fc.Packages[decl.Name]; ok {
			filePkg = &pc
		}
	}
	for _, pc := range []*PackageConfig{filePkg, c.PackageFor(decl.Name)} {
		if pc == nil {
			continue
		}
		if pc.Enabled != nil && !*pc.Enabled {
			return decl, false
		}
		if pc.PinVersion != "" {
			return decl, false
		}
		if pc.UpdateStrategy != "" {
			decl.UpdateStrategy = pc.UpdateStrategy
		}
		if pc.PreferredSource != "" {
			decl.Sources = preferSource(decl.Sources, domain.SourceType(pc.PreferredSource))
		}
	}

	if annotationValue(decl, "ignore") == "true" {
		return decl, false
	}
	if annotationValue(decl, "pin-version") != "" {
		return decl, false
	}
	if strategy := annotationValue(decl, "update-strategy"); strategy != "" {
		decl.UpdateStrategy = domain.UpdateStrategy(strategy)
	}

	return decl, true
}

// IgnoredVersion reports whether a candidate version is ruled out for a
// declaration, by annotation first, then the file package section, then the
// global package section.
func (c *Config) IgnoredVersion(decl domain.Declaration, candidate string) bool {
	if raw := annotationValue(decl, "ignore-versions"); raw != "" {
		for _, pattern := range strings.Split(raw, ",") {
			if versionMatches(strings.TrimSpace(pattern), candidate) {
				return true
			}
		}
	}

	if fc := c.FileFor(decl.Path); fc != nil {
		if pc, ok := fc.Packages[decl.Name]; ok {
			for _, pattern := range pc.IgnoreVersions {
				if versionMatches(pattern, candidate) {
					return true
				}
			}
		}
	}

	if pc := c.PackageFor(decl.Name); pc != nil {
		for _, pattern := range pc.IgnoreVersions {
			if versionMatches(pattern, candidate) {
				return true
			}
		}
	}

	return false
}

// versionMatches compares a candidate against an ignore pattern: glob when
// the pattern carries a wildcard, exact otherwise.
func versionMatches(pattern, candidate string) bool {
	if pattern == "" {
		return false
	}
	if strings.Contains(pattern, "*") {
		matcher, err := glob.Compile(pattern)
		if err != nil {
			return false
		}
		return matcher.Match(candidate)
	}
	return pattern == candidate
}

// annotationValue returns the last annotated value for a key; later
// annotations (closer to the declaration) override earlier ones.
func annotationValue(decl domain.Declaration, key string) string {
	value := ""
	for _, annotation := range decl.Annotations {
		if v, ok := annotation.Options[key]; ok {
			value = v
		}
	}
	return value
}

// preferSource moves the hint with the wanted type to the front, keeping the
// relative order of the rest.
func preferSource(hints []domain.SourceHint, want domain.SourceType) []domain.SourceHint {
	for i, hint := range hints {
		if hint.SourceType != want {
			continue
		}
		reordered := make([]domain.SourceHint, 0, len(hints))
		reordered = append(reordered, hint)
		reordered = append(reordered, hints[:i]...)
		reordered = append(reordered, hints[i+1:]...)
		return reordered
	}
	return hints
}

// ExampleConfig is the annotated starting point written by init-config.
const ExampleConfig = `# treeupdt configuration
global:
  # conservative | stable | latest | aggressive
  update-strategy: stable
  cache-enabled: true
  cache-ttl: 3600
  # filters applied to every scan, narrowed further by CLI flags
  filters:
    file-types: []        # nix, cargo, npm, go
    name-patterns: []     # regular expressions matched against names
    source-types: []      # github, npm, crates, git
    update-strategies: []
  exclude-paths:
    - vendor
    - "**/fixtures/*"

# per-manifest overrides, keyed by path as reported by scan
files:
  ./flake.nix:
    enabled: true
    update-strategy: latest
    packages:
      flake-input-nixpkgs:
        ignore-versions:
          - "*-beta*"

# per-declaration overrides applying to every file
packages:
  dependencies-serde:
    preferred-source: crates
  module-github.com/spf13/cobra:
    pin-version: "1.8.0"
`
