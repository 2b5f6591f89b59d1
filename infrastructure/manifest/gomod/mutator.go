package gomod

import (
	"fmt"
	"strings"

	"github.com/rios0rios0/treeupdt/domain"
)

// Mutator rewrites go.mod directives line by line. Matched lines are rebuilt
// from their parts (indentation and trailing comments preserved); every
// other line is copied through unchanged.
type Mutator struct{}

func NewMutator() domain.Mutator {
	return &Mutator{}
}

func (m *Mutator) Format() domain.Format { return domain.FormatGoMod }

func (m *Mutator) Apply(content string, decl domain.Declaration, newVersion string) (string, error) {
	switch {
	case decl.Name == "go-version":
		return updateGoDirective(content, newVersion)
	case strings.HasPrefix(decl.Name, "module-"):
		module := strings.TrimPrefix(decl.Name, "module-")
		return updateRequire(content, module, domain.NormalizeVersion(newVersion))
	case strings.HasPrefix(decl.Name, "replace-"):
		module := strings.TrimPrefix(decl.Name, "replace-")
		return updateReplace(content, module, domain.NormalizeVersion(newVersion))
	}
	return "", fmt.Errorf("unsupported gomod declaration %q", decl.Name)
}

func updateGoDirective(content, newVersion string) (string, error) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if goDirectivePattern.MatchString(strings.TrimSpace(line)) {
			lines[i] = "go " + newVersion
			return strings.Join(lines, "\n"), nil
		}
	}
	return "", fmt.Errorf("go directive: %w", domain.ErrDeclarationNotFound)
}

func updateRequire(content, module, newVersion string) (string, error) {
	lines := strings.Split(content, "\n")
	inBlock := false
	found := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "require (":
			inBlock = true
			continue
		case inBlock && trimmed == ")":
			inBlock = false
			continue
		}

		code, comment := splitComment(line)
		fields := strings.Fields(code)

		if inBlock && len(fields) == 2 && fields[0] == module {
			lines[i] = indentOf(line) + module + " " + newVersion + comment
			found = true
			continue
		}
		if !inBlock && len(fields) == 3 && fields[0] == "require" && fields[1] == module {
			lines[i] = indentOf(line) + "require " + module + " " + newVersion + comment
			found = true
		}
	}

	if !found {
		return "", fmt.Errorf("module %s: %w", module, domain.ErrDeclarationNotFound)
	}
	return strings.Join(lines, "\n"), nil
}

func updateReplace(content, module, newVersion string) (string, error) {
	lines := strings.Split(content, "\n")
	inBlock := false
	found := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "replace (":
			inBlock = true
			continue
		case inBlock && trimmed == ")":
			inBlock = false
			continue
		}

		code, comment := splitComment(line)
		if !strings.Contains(code, "=>") {
			continue
		}

		left, right, _ := strings.Cut(code, "=>")
		leftFields := strings.Fields(left)
		if !inBlock {
			if len(leftFields) == 0 || leftFields[0] != "replace" {
				continue
			}
			leftFields = leftFields[1:]
		}
		if len(leftFields) == 0 || leftFields[0] != module {
			continue
		}

		rightFields := strings.Fields(right)
		if len(rightFields) == 0 {
			continue
		}

		prefix := indentOf(line)
		if !inBlock {
			prefix += "replace "
		}
		lines[i] = prefix + strings.Join(leftFields, " ") + " => " +
			rightFields[0] + " " + newVersion + comment
		found = true
	}

	if !found {
		return "", fmt.Errorf("replace %s: %w", module, domain.ErrDeclarationNotFound)
	}
	return strings.Join(lines, "\n"), nil
}

// splitComment separates a line into code and its trailing comment. The
// comment keeps a single leading space so rebuilt lines stay readable.
func splitComment(line string) (string, string) {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return line[:idx], " " + strings.TrimRight(line[idx:], " \t")
	}
	return line, ""
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
