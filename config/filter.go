package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rios0rios0/treeupdt/domain"
)

// FilterOptions narrows a scan result along four independent axes. Empty
// fields do not restrict.
type FilterOptions struct {
	FileType       string
	NamePattern    string
	SourceType     string
	UpdateStrategy string
}

// Filter applies FilterOptions to declarations.
type Filter struct {
	opts    FilterOptions
	pattern *regexp.Regexp
}

// NewFilter validates the options, compiling the name pattern up front.
func NewFilter(opts FilterOptions) (*Filter, error) {
	f := &Filter{opts: opts}
	if opts.NamePattern != "" {
		pattern, err := regexp.Compile(opts.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile name pattern %q: %w", opts.NamePattern, err)
		}
		f.pattern = pattern
	}
	return f, nil
}

// Apply keeps the declarations matching every configured axis.
func (f *Filter) Apply(decls []domain.Declaration) []domain.Declaration {
	kept := make([]domain.Declaration, 0, len(decls))
	for _, decl := range decls {
		if f.matches(decl) {
			kept = append(kept, decl)
		}
	}
	return kept
}

func (f *Filter) matches(decl domain.Declaration) bool {
	if f.opts.FileType != "" && !FileTypeMatches(f.opts.FileType, decl.Path) {
		return false
	}
	if f.pattern != nil && !f.pattern.MatchString(decl.Name) {
		return false
	}
	if f.opts.SourceType != "" && !sourceTypeMatches(decl, domain.SourceType(f.opts.SourceType)) {
		return false
	}
	if f.opts.UpdateStrategy != "" &&
		decl.UpdateStrategy != domain.UpdateStrategy(f.opts.UpdateStrategy) {
		return false
	}
	return true
}

// FileTypeMatches reports whether a manifest path belongs to a file type as
// named on the CLI and in config filter lists.
func FileTypeMatches(fileType, path string) bool {
	base := filepath.Base(path)
	switch fileType {
	case "nix":
		return strings.HasSuffix(base, ".nix")
	case "cargo":
		return base == "Cargo.toml"
	case "npm":
		return base == "package.json"
	case "go", "gomod":
		return base == "go.mod"
	default:
		return false
	}
}

func sourceTypeMatches(decl domain.Declaration, want domain.SourceType) bool {
	for _, hint := range decl.Sources {
		if hint.SourceType == want {
			return true
		}
	}
	return false
}
