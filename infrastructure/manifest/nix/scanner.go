// Package nix scans and mutates Nix files: flake.nix inputs and
// pname/version/url bindings in package derivations.
package nix

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/annotation"
	"github.com/rios0rios0/treeupdt/internal/nixast"
	"github.com/rios0rios0/treeupdt/internal/walker"
)

var (
	githubURLPattern  = regexp.MustCompile(`github\.com[/:]([^/]+)/([^/?#.]+)`)
	githubPathPattern = regexp.MustCompile(`github\.com/([^/]+/[^/]+)`)
	npmURLPattern     = regexp.MustCompile(`registry\.npmjs\.org/(@[^/]+/[^/]+|[^/@]+)(?:/-/|$)`)
)

// Scanner discovers declarations in .nix files.
type Scanner struct {
	walker *walker.Walker
}

func NewScanner(w *walker.Walker) domain.Scanner {
	return &Scanner{walker: w}
}

func (s *Scanner) Format() domain.Format { return domain.FormatNix }

func (s *Scanner) Scan(root string) (*domain.ScanResult, error) {
	result := &domain.ScanResult{}
	err := s.walker.Walk(root, walker.Options{
		Match: func(name string) bool { return strings.HasSuffix(name, ".nix") },
	}, func(path string) error {
		decls, err := s.scanFile(path)
		if err != nil {
			logger.Warnf("[nix] failed to scan %s: %v", path, err)
			result.Failures = append(result.Failures, domain.ScanFailure{Path: path, Err: err})
			return nil
		}
		result.Declarations = append(result.Declarations, decls...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return result, nil
}

func (s *Scanner) scanFile(path string) ([]domain.Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	file, err := nixast.Parse(string(data))
	if err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}

	if filepath.Base(path) == "flake.nix" {
		return scanFlake(path, file), nil
	}
	return scanPackage(path, file), nil
}

// inputsSets returns every attrset bound to an `inputs` key anywhere in the
// file, covering both `inputs = { ... }` and wrapper expressions around it.
func inputsSets(file *nixast.File) []*nixast.Node {
	var sets []*nixast.Node
	file.Walk(func(b *nixast.Binding) {
		if len(b.Path) == 1 && b.Path[0] == "inputs" {
			sets = append(sets, b.Value.AttrSets()...)
		}
	})
	return sets
}

// scanFlake extracts flake inputs in three passes: direct `name.url`
// bindings, nested attrsets with a `url` attribute, and attrsets that only
// carry a `type` attribute (URL synthesized). The first pass to claim an
// input name wins.
func scanFlake(path string, file *nixast.File) []domain.Declaration {
	var decls []domain.Declaration
	processed := make(map[string]bool)

	add := func(name, url string, annotations []domain.Annotation) {
		if processed[name] {
			return
		}
		processed[name] = true
		decls = append(decls, flakeDeclaration(path, name, url, annotations))
	}

	for _, set := range inputsSets(file) {
		for _, b := range set.Bindings {
			if len(b.Path) == 2 && b.Path[1] == "url" && b.Value.Kind == nixast.KindString {
				add(b.Path[0], b.Value.Value, collectAnnotations(file, b.Line))
			}
		}
	}

	for _, set := range inputsSets(file) {
		for _, b := range set.Bindings {
			if len(b.Path) != 1 {
				continue
			}
			for _, inner := range b.Value.AttrSets() {
				urlBinding := inner.Binding("url")
				if urlBinding == nil || urlBinding.Value.Kind != nixast.KindString {
					continue
				}
				add(b.Path[0], urlBinding.Value.Value, collectAnnotations(file, b.Line))
			}
		}
	}

	for _, set := range inputsSets(file) {
		for _, b := range set.Bindings {
			if len(b.Path) != 1 || processed[b.Path[0]] {
				continue
			}
			for _, inner := range b.Value.AttrSets() {
				attrs := stringAttrs(inner)
				if url := synthesizeFlakeURL(attrs); url != "" {
					add(b.Path[0], url, nil)
				}
			}
		}
	}

	return decls
}

func stringAttrs(set *nixast.Node) map[string]string {
	attrs := make(map[string]string)
	for _, b := range set.Bindings {
		if len(b.Path) == 1 && b.Value.Kind == nixast.KindString {
			attrs[b.Path[0]] = b.Value.Value
		}
	}
	return attrs
}

// synthesizeFlakeURL rebuilds a flake URL from type-attribute form inputs.
// Unknown or incomplete shapes yield "" and the input is skipped.
func synthesizeFlakeURL(attrs map[string]string) string {
	switch attrs["type"] {
	case "github":
		owner, repo := attrs["owner"], attrs["repo"]
		if owner == "" || repo == "" {
			return ""
		}
		url := "github:" + owner + "/" + repo
		if ref := attrs["ref"]; ref != "" {
			url += "/" + ref
		}
		return url
	case "git":
		if url := attrs["url"]; url != "" {
			return url
		}
		host, owner, repo := attrs["host"], attrs["owner"], attrs["repo"]
		if host == "" || owner == "" || repo == "" {
			return ""
		}
		return fmt.Sprintf("git+ssh://git@%s/%s/%s", host, owner, repo)
	case "path":
		if p := attrs["path"]; p != "" {
			return "path:" + p
		}
	}
	return ""
}

func flakeDeclaration(path, name, url string, annotations []domain.Annotation) domain.Declaration {
	decl := domain.Declaration{
		Path:           path,
		Format:         domain.FormatNix,
		Name:           "flake-input-" + name,
		Sources:        []domain.SourceHint{flakeSourceHint(url)},
		UpdateStrategy: domain.StrategyStable,
		Annotations:    annotations,
	}

	version, ok := versionFromFlakeURL(url)
	if ok {
		decl.CurrentVersion = version
	} else {
		decl.Metadata = map[string]string{"version-context": url}
	}
	return decl
}

// versionFromFlakeURL extracts the pinned ref from a flake URL. The second
// return is false when no version can be inferred from the URL shape.
func versionFromFlakeURL(url string) (string, bool) {
	switch {
	case strings.HasPrefix(url, "github:"):
		parts := strings.Split(strings.TrimPrefix(url, "github:"), "/")
		if len(parts) > 2 {
			return strings.Join(parts[2:], "/"), true
		}
		return "HEAD", true
	case strings.Contains(url, "?ref="):
		ref := url[strings.Index(url, "?ref=")+len("?ref="):]
		if amp := strings.Index(ref, "&"); amp >= 0 {
			ref = ref[:amp]
		}
		return ref, true
	case strings.HasPrefix(url, "git+"):
		return "HEAD", true
	}
	return "", false
}

func flakeSourceHint(url string) domain.SourceHint {
	switch {
	case strings.HasPrefix(url, "github:"):
		parts := strings.Split(strings.TrimPrefix(url, "github:"), "/")
		if len(parts) >= 2 {
			return domain.SourceHint{
				SourceType: domain.SourceGitHub,
				Identifier: parts[0] + "/" + parts[1],
				URL:        url,
			}
		}
	case strings.HasPrefix(url, "git+"):
		return domain.SourceHint{SourceType: domain.SourceGit, Identifier: url, URL: url}
	case githubURLPattern.MatchString(url):
		m := githubURLPattern.FindStringSubmatch(url)
		return domain.SourceHint{
			SourceType: domain.SourceGitHub,
			Identifier: m[1] + "/" + strings.TrimSuffix(m[2], ".git"),
			URL:        url,
		}
	}
	return domain.SourceHint{SourceType: domain.SourceURL, Identifier: url, URL: url}
}

// scanPackage extracts a single "package" declaration from pname/version/url
// bindings anywhere in a derivation file. Later bindings win; relative-path
// url values never override a real one.
func scanPackage(path string, file *nixast.File) []domain.Declaration {
	var pname, version, url string
	file.Walk(func(b *nixast.Binding) {
		if len(b.Path) != 1 || b.Value == nil || b.Value.Kind != nixast.KindString {
			return
		}
		value := b.Value.Value
		switch b.Path[0] {
		case "pname":
			if !b.Value.Interpolated {
				pname = value
			}
		case "version":
			if !b.Value.Interpolated {
				version = value
			}
		case "url":
			if url == "" || !strings.HasPrefix(value, ".") {
				url = value
			}
		}
	})

	if version == "" {
		return nil
	}

	decl := domain.Declaration{
		Path:           path,
		Format:         domain.FormatNix,
		Name:           "package",
		CurrentVersion: version,
		UpdateStrategy: domain.StrategyStable,
	}
	if pname != "" {
		decl.Metadata = map[string]string{"pname": pname}
	}
	if url != "" {
		decl.Sources = []domain.SourceHint{packageSourceHint(url)}
	}
	return []domain.Declaration{decl}
}

func packageSourceHint(url string) domain.SourceHint {
	if m := npmURLPattern.FindStringSubmatch(url); m != nil {
		return domain.SourceHint{SourceType: domain.SourceNpm, Identifier: m[1], URL: url}
	}
	if m := githubPathPattern.FindStringSubmatch(url); m != nil {
		return domain.SourceHint{SourceType: domain.SourceGitHub, Identifier: m[1], URL: url}
	}
	return domain.SourceHint{SourceType: domain.SourceURL, Identifier: url, URL: url}
}

// collectAnnotations gathers directives on the binding's line and up to two
// comment lines above it.
func collectAnnotations(file *nixast.File, line int) []domain.Annotation {
	var annotations []domain.Annotation
	for offset := 0; offset <= 2; offset++ {
		l := line - offset
		text, ok := file.Comments[l]
		if !ok {
			continue
		}
		if a := annotation.Parse(text, l); a != nil {
			annotations = append(annotations, *a)
		}
	}
	return annotations
}
