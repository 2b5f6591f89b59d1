// Package npm scans and mutates package.json manifests. JSON carries no
// comments, so directives live in an optional top-level "treeupdt" object
// mapping dependency names to directive strings.
package npm

import (
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/annotation"
	"github.com/rios0rios0/treeupdt/internal/walker"
)

// dependency sections with their declaration-name prefixes
var sections = []struct {
	key    string
	prefix string
}{
	{"dependencies", "dependency"},
	{"devDependencies", "devDependency"},
	{"peerDependencies", "peerDependency"},
}

// Scanner discovers declarations in package.json files, skipping anything
// under node_modules.
type Scanner struct {
	walker *walker.Walker
}

func NewScanner(w *walker.Walker) domain.Scanner {
	return &Scanner{walker: w}
}

func (s *Scanner) Format() domain.Format { return domain.FormatNpm }

func (s *Scanner) Scan(root string) (*domain.ScanResult, error) {
	result := &domain.ScanResult{}
	err := s.walker.Walk(root, walker.Options{
		Match:   func(name string) bool { return name == "package.json" },
		SkipDir: func(name string) bool { return name == "node_modules" },
	}, func(path string) error {
		decls, err := scanFile(path)
		if err != nil {
			logger.Warnf("[npm] failed to scan %s: %v", path, err)
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
	if !gjson.ValidBytes(data) {
		return nil, &domain.ParseError{Path: path, Err: fmt.Errorf("invalid JSON")}
	}

	content := string(data)
	doc := gjson.Parse(content)
	directives := parseDirectives(content, doc)

	var decls []domain.Declaration
	for _, section := range sections {
		doc.Get(section.key).ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			version := "unknown"
			if value.Type == gjson.String {
				version = value.String()
			}
			decl := domain.Declaration{
				Path:           path,
				Format:         domain.FormatNpm,
				Name:           section.prefix + "-" + name,
				CurrentVersion: version,
				Sources: []domain.SourceHint{
					{SourceType: domain.SourceNpm, Identifier: name},
				},
				UpdateStrategy: domain.StrategyStable,
			}
			if a, ok := directives[name]; ok {
				decl.Annotations = []domain.Annotation{a}
			}
			decls = append(decls, decl)
			return true
		})
	}
	return decls, nil
}

// parseDirectives reads the top-level "treeupdt" object. Values use the bare
// pair grammar ("pin-version=4.18.0, ignore"); the line recorded for each
// annotation is the line of its entry in the document.
func parseDirectives(content string, doc gjson.Result) map[string]domain.Annotation {
	directives := make(map[string]domain.Annotation)
	doc.Get("treeupdt").ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			return true
		}
		options := annotation.ParsePairs(value.String())
		if options == nil {
			return true
		}
		directives[key.String()] = domain.Annotation{
			Line:    lineOfOffset(content, value.Index),
			Options: options,
		}
		return true
	})
	return directives
}

func lineOfOffset(content string, offset int) int {
	if offset < 0 || offset > len(content) {
		return 0
	}
	return 1 + strings.Count(content[:offset], "\n")
}
