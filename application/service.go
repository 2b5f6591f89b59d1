// Package application orchestrates the scan -> check -> update flow on top
// of the manifest and source registries.
package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/treeupdt/config"
	"github.com/rios0rios0/treeupdt/domain"
)

// ManifestRegistry is the manifest-side surface the service depends on.
type ManifestRegistry interface {
	ScanAll(root string) (*domain.ScanResult, error)
	Update(decl domain.Declaration, newVersion string) error
}

// SourceRegistry resolves version source clients by type.
type SourceRegistry interface {
	Get(sourceType domain.SourceType) domain.Source
}

// Service runs the discovery and mutation operations with configuration
// layering applied.
type Service struct {
	manifests ManifestRegistry
	sources   SourceRegistry
	cfg       *config.Config
}

func NewService(
	manifests ManifestRegistry,
	sources SourceRegistry,
	cfg *config.Config,
) *Service {
	return &Service{manifests: manifests, sources: sources, cfg: cfg}
}

// Candidate is one declaration with an update available.
type Candidate struct {
	Declaration    domain.Declaration `json:"declaration" yaml:"declaration"`
	CurrentVersion string             `json:"current_version" yaml:"current_version"`
	LatestVersion  string             `json:"latest_version" yaml:"latest_version"`
	LatestStable   string             `json:"latest_stable,omitempty" yaml:"latest_stable,omitempty"`
	SourceType     domain.SourceType  `json:"source_type" yaml:"source_type"`
	Identifier     string             `json:"identifier" yaml:"identifier"`
}

// UpdateResult records one applied manifest mutation.
type UpdateResult struct {
	Declaration domain.Declaration `json:"declaration" yaml:"declaration"`
	NewVersion  string             `json:"new_version" yaml:"new_version"`
}

// Scan discovers declarations under root, applies the configuration layers,
// and narrows the result with the config filter lists and the CLI options.
// CLI options win over the configured lists on their axis.
func (s *Service) Scan(root string, opts config.FilterOptions) (*domain.ScanResult, error) {
	filter, err := config.NewFilter(opts)
	if err != nil {
		return nil, err
	}

	result, err := s.manifests.ScanAll(root)
	if err != nil {
		return nil, err
	}

	kept := make([]domain.Declaration, 0, len(result.Declarations))
	for _, decl := range result.Declarations {
		resolved, keep := s.cfg.Resolve(decl)
		if !keep {
			logger.Debugf("[scan] %s in %s dropped by configuration", decl.Name, decl.Path)
			continue
		}
		if !s.configuredFiltersMatch(resolved, opts) {
			continue
		}
		kept = append(kept, resolved)
	}

	return &domain.ScanResult{
		Declarations: filter.Apply(kept),
		Failures:     result.Failures,
	}, nil
}

// configuredFiltersMatch applies the config filter lists on the axes the CLI
// left unset.
func (s *Service) configuredFiltersMatch(
	decl domain.Declaration,
	opts config.FilterOptions,
) bool {
	filters := s.cfg.Global.Filters

	if opts.FileType == "" && len(filters.FileTypes) > 0 {
		matched := false
		for _, fileType := range filters.FileTypes {
			if config.FileTypeMatches(fileType, decl.Path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if opts.NamePattern == "" && len(filters.NamePatterns) > 0 {
		matched := false
		for _, pattern := range filters.NamePatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				logger.Warnf("[scan] invalid configured name pattern %q: %v", pattern, err)
				continue
			}
			if re.MatchString(decl.Name) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if opts.SourceType == "" && len(filters.SourceTypes) > 0 {
		matched := false
		for _, hint := range decl.Sources {
			if slices.Contains(filters.SourceTypes, string(hint.SourceType)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if opts.UpdateStrategy == "" && len(filters.UpdateStrategies) > 0 &&
		!slices.Contains(filters.UpdateStrategies, string(decl.UpdateStrategy)) {
		return false
	}

	return true
}

// Check queries upstream sources for every scanned declaration and returns
// the ones with an update the configuration does not rule out.
func (s *Service) Check(
	ctx context.Context,
	root string,
	opts config.FilterOptions,
) ([]Candidate, []domain.ScanFailure, error) {
	result, err := s.Scan(root, opts)
	if err != nil {
		return nil, nil, err
	}

	var candidates []Candidate
	for _, decl := range result.Declarations {
		candidate, found := s.check(ctx, decl)
		if found {
			candidates = append(candidates, candidate)
		}
	}
	return candidates, result.Failures, nil
}

// check consults the declaration's source hints in order; the first one that
// answers wins.
func (s *Service) check(ctx context.Context, decl domain.Declaration) (Candidate, bool) {
	for _, hint := range decl.Sources {
		src := s.sources.Get(hint.SourceType)
		if src == nil {
			continue
		}

		info, err := src.CheckUpdate(ctx, hint.Identifier, decl.CurrentVersion)
		if err != nil {
			logger.Warnf("[check] %s via %s failed: %v", decl.Name, src.Name(), err)
			continue
		}
		if !info.UpdateAvailable {
			return Candidate{}, false
		}

		target := targetVersion(info, decl.UpdateStrategy)
		if s.cfg.IgnoredVersion(decl, target) {
			logger.Debugf("[check] %s: version %s is ignored", decl.Name, target)
			return Candidate{}, false
		}

		candidate := Candidate{
			Declaration:    decl,
			CurrentVersion: decl.CurrentVersion,
			LatestVersion:  info.LatestVersion.Version,
			SourceType:     hint.SourceType,
			Identifier:     hint.Identifier,
		}
		if info.LatestStableVersion != nil {
			candidate.LatestStable = info.LatestStableVersion.Version
		}
		return candidate, true
	}
	return Candidate{}, false
}

// targetVersion picks the version an update would move to. Stable and
// conservative strategies avoid pre-releases when a stable release exists.
func targetVersion(info *domain.UpdateInfo, strategy domain.UpdateStrategy) string {
	switch strategy {
	case domain.StrategyLatest, domain.StrategyAggressive:
		return info.LatestVersion.Version
	case domain.StrategyStable, domain.StrategyConservative:
		if info.LatestStableVersion != nil {
			return info.LatestStableVersion.Version
		}
		return info.LatestVersion.Version
	default:
		return info.LatestVersion.Version
	}
}

// Update resolves each target to declarations and rewrites their manifests.
// Targets take the form "path:name", "path:name@version", or a bare name;
// bare paths match on any suffix so "web/package.json:dependency-express"
// finds "./app/web/package.json" too.
func (s *Service) Update(
	ctx context.Context,
	root string,
	targets []string,
	opts config.FilterOptions,
) ([]UpdateResult, error) {
	if len(targets) == 0 {
		return nil, errors.New("no update targets given")
	}

	result, err := s.Scan(root, opts)
	if err != nil {
		return nil, err
	}

	var applied []UpdateResult
	for _, target := range targets {
		path, name, version := parseTarget(target)

		matched := false
		for _, decl := range result.Declarations {
			if decl.Name != name || !pathMatches(decl.Path, path) {
				continue
			}
			matched = true

			newVersion := version
			if newVersion == "" {
				candidate, found := s.check(ctx, decl)
				if !found {
					logger.Infof("[update] %s in %s is already up to date", decl.Name, decl.Path)
					continue
				}
				newVersion = candidate.versionFor(decl.UpdateStrategy)
			}

			if updateErr := s.manifests.Update(decl, newVersion); updateErr != nil {
				logger.Errorf("[update] failed to update %s in %s: %v",
					decl.Name, decl.Path, updateErr)
				continue
			}
			applied = append(applied, UpdateResult{Declaration: decl, NewVersion: newVersion})
		}

		if !matched {
			return applied, fmt.Errorf("target %q matched no declaration", target)
		}
	}
	return applied, nil
}

func (c Candidate) versionFor(strategy domain.UpdateStrategy) string {
	switch strategy {
	case domain.StrategyStable, domain.StrategyConservative:
		if c.LatestStable != "" {
			return c.LatestStable
		}
	case domain.StrategyLatest, domain.StrategyAggressive:
	}
	return c.LatestVersion
}

// parseTarget splits "path:name@version" into its parts. The version suffix
// is recognized only when the trailing "@" segment looks like a version, so
// scoped names such as "dependency-@babel/core" stay intact.
func parseTarget(target string) (path, name, version string) {
	rest := target
	if at := strings.LastIndex(rest, "@"); at > 0 {
		suffix := rest[at+1:]
		prev := rest[at-1]
		if suffix != "" && !strings.Contains(suffix, "/") && prev != ':' && prev != '-' {
			version = suffix
			rest = rest[:at]
		}
	}

	if sep := strings.LastIndex(rest, ":"); sep >= 0 {
		return rest[:sep], rest[sep+1:], version
	}
	return "", rest, version
}

// pathMatches accepts an empty wanted path, an exact match modulo "./", or a
// slash-aligned suffix match.
func pathMatches(declPath, want string) bool {
	if want == "" {
		return true
	}
	declPath = strings.TrimPrefix(declPath, "./")
	want = strings.TrimPrefix(want, "./")
	return declPath == want || strings.HasSuffix(declPath, "/"+want)
}
