// Package cargo scans and mutates Cargo.toml manifests: the [package]
// version, dependency sections (normal, dev, build, workspace) and
// target-specific dependency tables.
package cargo

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/annotation"
	"github.com/rios0rios0/treeupdt/internal/walker"
)

// dependency sections scanned in fixed order; the name prefix is the section
// with its "-dependencies" suffix trimmed ("dependencies" keeps its name).
var dependencySections = []string{"dependencies", "dev-dependencies", "build-dependencies"}

// Scanner discovers declarations in Cargo.toml files.
type Scanner struct {
	walker *walker.Walker
}

func NewScanner(w *walker.Walker) domain.Scanner {
	return &Scanner{walker: w}
}

func (s *Scanner) Format() domain.Format { return domain.FormatCargo }

func (s *Scanner) Scan(root string) (*domain.ScanResult, error) {
	result := &domain.ScanResult{}
	err := s.walker.Walk(root, walker.Options{
		Match: func(name string) bool { return name == "Cargo.toml" },
	}, func(path string) error {
		decls, err := scanFile(path)
		if err != nil {
			logger.Warnf("[cargo] failed to scan %s: %v", path, err)
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

func scanFile(path string) ([]domain.Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	var decls []domain.Declaration

	if pkg, ok := doc["package"].(map[string]any); ok {
		if decl := packageDeclaration(path, lines, pkg); decl != nil {
			decls = append(decls, *decl)
		}
	}

	for _, section := range dependencySections {
		deps, ok := doc[section].(map[string]any)
		if !ok {
			continue
		}
		prefix := strings.TrimSuffix(section, "-dependencies")
		for _, name := range sortedKeys(deps) {
			decls = append(decls, dependencyDeclaration(
				path, lines, section, prefix+"-"+name, name, deps[name]))
		}
	}

	if workspace, ok := doc["workspace"].(map[string]any); ok {
		if deps, ok := workspace["dependencies"].(map[string]any); ok {
			for _, name := range sortedKeys(deps) {
				decls = append(decls, dependencyDeclaration(
					path, lines, "workspace.dependencies",
					"workspace-dependency-"+name, name, deps[name]))
			}
		}
	}

	if targets, ok := doc["target"].(map[string]any); ok {
		for _, cfg := range sortedKeys(targets) {
			table, ok := targets[cfg].(map[string]any)
			if !ok {
				continue
			}
			for _, section := range dependencySections {
				deps, ok := table[section].(map[string]any)
				if !ok {
					continue
				}
				prefix := strings.TrimSuffix(section, "-dependencies")
				for _, name := range sortedKeys(deps) {
					decl := dependencyDeclaration(
						path, nil, "", // target tables carry no annotations
						fmt.Sprintf("target.%s.%s-%s", cfg, prefix, name),
						name, deps[name])
					decls = append(decls, decl)
				}
			}
		}
	}

	return decls, nil
}

func packageDeclaration(path string, lines []string, pkg map[string]any) *domain.Declaration {
	name, _ := pkg["name"].(string)
	if name == "" {
		return nil
	}
	version, ok := pkg["version"].(string)
	if !ok {
		version = "unknown"
	}
	return &domain.Declaration{
		Path:           path,
		Format:         domain.FormatCargo,
		Name:           "crate-" + name,
		CurrentVersion: version,
		Sources: []domain.SourceHint{
			{SourceType: domain.SourceCrates, Identifier: name},
		},
		UpdateStrategy: domain.StrategyStable,
		Annotations:    annotationsFor(lines, findDependencyLine(lines, "package", "name")),
	}
}

func dependencyDeclaration(
	path string,
	lines []string,
	section, declName, depName string,
	value any,
) domain.Declaration {
	version, hint := parseDependency(depName, value)
	decl := domain.Declaration{
		Path:           path,
		Format:         domain.FormatCargo,
		Name:           declName,
		CurrentVersion: version,
		Sources:        []domain.SourceHint{hint},
		UpdateStrategy: domain.StrategyStable,
	}
	if lines != nil {
		decl.Annotations = annotationsFor(lines, findDependencyLine(lines, section, depName))
	}
	return decl
}

// parseDependency reads the version and source of one dependency value:
// a bare string pins crates.io, a table may point at git instead.
func parseDependency(name string, value any) (string, domain.SourceHint) {
	switch v := value.(type) {
	case string:
		return v, domain.SourceHint{SourceType: domain.SourceCrates, Identifier: name}
	case map[string]any:
		version, ok := v["version"].(string)
		if !ok {
			version = "unknown"
		}
		if gitURL, ok := v["git"].(string); ok {
			identifier := gitURL
			if branch, ok := v["branch"].(string); ok && branch != "" {
				identifier += "#" + branch
			}
			return version, domain.SourceHint{
				SourceType: domain.SourceGit,
				Identifier: identifier,
				URL:        gitURL,
			}
		}
		return version, domain.SourceHint{SourceType: domain.SourceCrates, Identifier: name}
	default:
		return "unknown", domain.SourceHint{SourceType: domain.SourceCrates, Identifier: name}
	}
}

// findDependencyLine locates the 0-based line index of a key assignment
// inside a named [section]. Quoted section parts and quoted keys both match.
func findDependencyLine(lines []string, section, name string) int {
	inSection := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inSection = sectionHeaderMatches(trimmed, section)
			continue
		}
		if !inSection {
			continue
		}
		if keyAssignMatches(trimmed, name) {
			return i
		}
	}
	return -1
}

func sectionHeaderMatches(headerLine, section string) bool {
	end := strings.Index(headerLine, "]")
	if end < 0 {
		return false
	}
	inner := strings.TrimSpace(headerLine[1:end])
	inner = strings.ReplaceAll(inner, `'`, "")
	inner = strings.ReplaceAll(inner, `"`, "")
	return inner == section
}

func keyAssignMatches(trimmed, name string) bool {
	for _, candidate := range []string{name, `"` + name + `"`} {
		if !strings.HasPrefix(trimmed, candidate) {
			continue
		}
		rest := strings.TrimLeft(trimmed[len(candidate):], " \t")
		if strings.HasPrefix(rest, "=") {
			return true
		}
	}
	return false
}

// annotationsFor checks the assignment line itself, then up to two
// comment-only lines directly above it. The first directive wins; a
// non-comment line stops the upward search.
func annotationsFor(lines []string, idx int) []domain.Annotation {
	if idx < 0 || idx >= len(lines) {
		return nil
	}
	if a := annotation.FromLine(lines[idx], idx+1); a != nil {
		return []domain.Annotation{*a}
	}
	for offset := 1; offset <= 2; offset++ {
		i := idx - offset
		if i < 0 {
			break
		}
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "//") {
			break
		}
		if a := annotation.Parse(trimmed, i+1); a != nil {
			return []domain.Annotation{*a}
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
