package cargo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rios0rios0/treeupdt/domain"
)

var (
	versionValuePattern  = regexp.MustCompile(`^(\s*version\s*=\s*")([^"]*)(".*)$`)
	inlineVersionPattern = regexp.MustCompile(`(version\s*=\s*")([^"]*)(")`)
)

// Mutator rewrites dependency versions in Cargo.toml with targeted line
// surgery, preserving comments, ordering and formatting. Structural
// rewriting (re-serializing the TOML document) would drop comments, which is
// exactly where annotations live.
type Mutator struct{}

func NewMutator() domain.Mutator {
	return &Mutator{}
}

func (m *Mutator) Format() domain.Format { return domain.FormatCargo }

func (m *Mutator) Apply(content string, decl domain.Declaration, newVersion string) (string, error) {
	name := decl.Name
	switch {
	case strings.HasPrefix(name, "crate-"):
		return updatePackageVersion(content, newVersion)
	case strings.HasPrefix(name, "dependencies-"):
		return updateDependency(content, "dependencies",
			strings.TrimPrefix(name, "dependencies-"), newVersion)
	case strings.HasPrefix(name, "dev-"):
		return updateDependency(content, "dev-dependencies",
			strings.TrimPrefix(name, "dev-"), newVersion)
	case strings.HasPrefix(name, "build-"):
		return updateDependency(content, "build-dependencies",
			strings.TrimPrefix(name, "build-"), newVersion)
	case strings.HasPrefix(name, "workspace-dependency-"):
		return updateDependency(content, "workspace.dependencies",
			strings.TrimPrefix(name, "workspace-dependency-"), newVersion)
	case strings.HasPrefix(name, "target."):
		section, dep, err := parseTargetName(name)
		if err != nil {
			return "", err
		}
		return updateDependency(content, section, dep, newVersion)
	}
	return "", fmt.Errorf("unsupported cargo declaration %q", name)
}

// parseTargetName splits "target.<cfg>.<prefix>-<dep>" back into the section
// header path and the dependency name. The cfg part may itself contain dots
// and dashes, so the section marker is searched, not split.
func parseTargetName(name string) (string, string, error) {
	rest := strings.TrimPrefix(name, "target.")
	markers := []struct{ marker, section string }{
		{".dependencies-", "dependencies"},
		{".dev-", "dev-dependencies"},
		{".build-", "build-dependencies"},
	}
	for _, m := range markers {
		marker, section := m.marker, m.section
		idx := strings.Index(rest, marker)
		if idx < 0 {
			continue
		}
		cfg := rest[:idx]
		dep := rest[idx+len(marker):]
		return "target." + cfg + "." + section, dep, nil
	}
	return "", "", fmt.Errorf("malformed target declaration %q", name)
}

func updatePackageVersion(content, newVersion string) (string, error) {
	lines := strings.Split(content, "\n")
	inPackage := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inPackage = sectionHeaderMatches(trimmed, "package")
			continue
		}
		if !inPackage {
			continue
		}
		if m := versionValuePattern.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + newVersion + m[3]
			return strings.Join(lines, "\n"), nil
		}
	}
	return "", fmt.Errorf("package version: %w", domain.ErrDeclarationNotFound)
}

func updateDependency(content, section, dep, newVersion string) (string, error) {
	lines := strings.Split(content, "\n")
	inSection := false
	inDepTable := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inSection = sectionHeaderMatches(trimmed, section)
			inDepTable = sectionHeaderMatches(trimmed, section+"."+dep)
			continue
		}

		// expanded form: [section.dep] with its own version line
		if inDepTable {
			if m := versionValuePattern.FindStringSubmatch(line); m != nil {
				lines[i] = m[1] + newVersion + m[3]
				return strings.Join(lines, "\n"), nil
			}
			continue
		}

		if !inSection || !keyAssignMatches(trimmed, dep) {
			continue
		}

		updated, err := rewriteAssignment(line, newVersion)
		if err != nil {
			return "", err
		}
		lines[i] = updated
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("dependency %s in [%s]: %w", dep, section, domain.ErrDeclarationNotFound)
}

// rewriteAssignment updates a single `dep = ...` line: bare string pins get
// their value swapped, inline tables get their version field replaced or,
// for git-only tables, inserted.
func rewriteAssignment(line, newVersion string) (string, error) {
	if !strings.Contains(line, "{") {
		// bare string: dep = "1.0.0"
		eq := strings.Index(line, "=")
		rest := line[eq+1:]
		open := strings.Index(rest, `"`)
		if open < 0 {
			return "", fmt.Errorf("unquoted dependency version: %w", domain.ErrDeclarationNotFound)
		}
		closing := strings.Index(rest[open+1:], `"`)
		if closing < 0 {
			return "", fmt.Errorf("unterminated dependency version: %w", domain.ErrDeclarationNotFound)
		}
		return line[:eq+1] + rest[:open+1] + newVersion + rest[open+1+closing:], nil
	}

	if inlineVersionPattern.MatchString(line) {
		return inlineVersionPattern.ReplaceAllString(
			line, "${1}"+newVersion+"${3}"), nil
	}

	closing := strings.LastIndex(line, "}")
	if closing < 0 {
		return "", fmt.Errorf("unterminated inline table: %w", domain.ErrDeclarationNotFound)
	}
	left := strings.TrimRight(line[:closing], " \t")
	return left + fmt.Sprintf(`, version = "%s" `, newVersion) + line[closing:], nil
}
