// Package gomod scans and mutates go.mod files. The grammar is line
// oriented, so both directions work on raw lines: no AST, and unrelated
// lines pass through byte for byte.
package gomod

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/annotation"
	"github.com/rios0rios0/treeupdt/internal/walker"
)

var (
	goDirectivePattern = regexp.MustCompile(`^go\s+(\d+\.\d+(?:\.\d+)?)\s*$`)
	requirePattern     = regexp.MustCompile(`^([^\s]+)\s+v(.+?)(?:\s+//.*)?$`)
	replacePattern     = regexp.MustCompile(`^([^\s]+)(?:\s+v\S+)?\s+=>\s+([^\s]+)\s+v(\S+)`)
)

// Scanner discovers declarations in go.mod files.
type Scanner struct {
	walker *walker.Walker
}

func NewScanner(w *walker.Walker) domain.Scanner {
	return &Scanner{walker: w}
}

func (s *Scanner) Format() domain.Format { return domain.FormatGoMod }

func (s *Scanner) Scan(root string) (*domain.ScanResult, error) {
	result := &domain.ScanResult{}
	err := s.walker.Walk(root, walker.Options{
		Match: func(name string) bool { return name == "go.mod" },
	}, func(path string) error {
		decls, err := scanFile(path)
		if err != nil {
			logger.Warnf("[gomod] failed to scan %s: %v", path, err)
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

	lines := strings.Split(string(data), "\n")
	var decls []domain.Declaration
	inRequire := false
	inReplace := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "require (":
			inRequire = true
			continue
		case trimmed == "replace (":
			inReplace = true
			continue
		case (inRequire || inReplace) && trimmed == ")":
			inRequire = false
			inReplace = false
			continue
		}

		if m := goDirectivePattern.FindStringSubmatch(trimmed); m != nil {
			decls = append(decls, domain.Declaration{
				Path:           path,
				Format:         domain.FormatGoMod,
				Name:           "go-version",
				CurrentVersion: m[1],
				UpdateStrategy: domain.StrategyConservative,
				Annotations:    annotationsFor(lines, i),
			})
			continue
		}

		if decl, ok := requireDeclaration(path, lines, i, trimmed, inRequire); ok {
			decls = append(decls, decl)
			continue
		}

		if decl, ok := replaceDeclaration(path, lines, i, trimmed, inReplace); ok {
			decls = append(decls, decl)
		}
	}

	return decls, nil
}

func requireDeclaration(
	path string,
	lines []string,
	idx int,
	trimmed string,
	inBlock bool,
) (domain.Declaration, bool) {
	candidate := trimmed
	if !inBlock {
		if !strings.HasPrefix(trimmed, "require ") {
			return domain.Declaration{}, false
		}
		candidate = strings.TrimPrefix(trimmed, "require ")
	}
	if strings.HasPrefix(candidate, "//") || strings.Contains(candidate, "=>") {
		return domain.Declaration{}, false
	}

	m := requirePattern.FindStringSubmatch(candidate)
	if m == nil {
		return domain.Declaration{}, false
	}
	module, version := m[1], m[2]

	return domain.Declaration{
		Path:           path,
		Format:         domain.FormatGoMod,
		Name:           "module-" + module,
		CurrentVersion: version,
		Sources:        []domain.SourceHint{moduleSourceHint(module)},
		UpdateStrategy: domain.StrategyStable,
		Annotations:    annotationsFor(lines, idx),
	}, true
}

func replaceDeclaration(
	path string,
	lines []string,
	idx int,
	trimmed string,
	inBlock bool,
) (domain.Declaration, bool) {
	candidate := trimmed
	if !inBlock {
		if !strings.HasPrefix(trimmed, "replace ") {
			return domain.Declaration{}, false
		}
		candidate = strings.TrimPrefix(trimmed, "replace ")
	}
	if strings.HasPrefix(candidate, "//") {
		return domain.Declaration{}, false
	}

	m := replacePattern.FindStringSubmatch(candidate)
	if m == nil {
		return domain.Declaration{}, false
	}
	original, replacement, version := m[1], m[2], m[3]

	return domain.Declaration{
		Path:           path,
		Format:         domain.FormatGoMod,
		Name:           "replace-" + original,
		CurrentVersion: version,
		Sources:        []domain.SourceHint{moduleSourceHint(replacement)},
		UpdateStrategy: domain.StrategyStable,
		Annotations:    annotationsFor(lines, idx),
		Metadata:       map[string]string{"replacement": replacement},
	}, true
}

// moduleSourceHint maps a module path to its hosting: github.com modules get
// a github hint, everything else falls back to raw git over https.
func moduleSourceHint(module string) domain.SourceHint {
	if strings.HasPrefix(module, "github.com/") {
		parts := strings.Split(strings.TrimPrefix(module, "github.com/"), "/")
		if len(parts) >= 2 {
			return domain.SourceHint{
				SourceType: domain.SourceGitHub,
				Identifier: parts[0] + "/" + parts[1],
				URL:        "https://github.com/" + parts[0] + "/" + parts[1],
			}
		}
	}
	return domain.SourceHint{
		SourceType: domain.SourceGit,
		Identifier: "https://" + module,
		URL:        "https://" + module,
	}
}

// annotationsFor checks the directive line itself, then up to two
// comment-only lines directly above.
func annotationsFor(lines []string, idx int) []domain.Annotation {
	if a := annotation.FromLine(lines[idx], idx+1); a != nil {
		return []domain.Annotation{*a}
	}
	for offset := 1; offset <= 2; offset++ {
		i := idx - offset
		if i < 0 {
			break
		}
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "//") {
			break
		}
		if a := annotation.Parse(trimmed, i+1); a != nil {
			return []domain.Annotation{*a}
		}
	}
	return nil
}
