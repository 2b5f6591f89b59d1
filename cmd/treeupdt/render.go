package main

import (
	"encoding/json"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/treeupdt/application"
	"github.com/rios0rios0/treeupdt/domain"
)

func reportFailures(failures []domain.ScanFailure) {
	for _, failure := range failures {
		logger.Warnf("⚠️  %s: %v", failure.Path, failure.Err)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to render YAML: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

// groupByPath keeps the first-seen order of paths.
func groupByPath(decls []domain.Declaration) ([]string, map[string][]domain.Declaration) {
	var paths []string
	groups := make(map[string][]domain.Declaration)
	for _, decl := range decls {
		if _, seen := groups[decl.Path]; !seen {
			paths = append(paths, decl.Path)
		}
		groups[decl.Path] = append(groups[decl.Path], decl)
	}
	return paths, groups
}

func renderDeclarations(decls []domain.Declaration) error {
	switch output {
	case "json":
		return printJSON(decls)
	case "yaml":
		return printYAML(decls)
	case "paths":
		paths, _ := groupByPath(decls)
		for _, path := range paths {
			fmt.Println(path)
		}
		return nil
	default:
		paths, groups := groupByPath(decls)
		for _, path := range paths {
			fmt.Println(path)
			for _, decl := range groups[path] {
				version := decl.CurrentVersion
				if version == "" {
					version = "(unversioned)"
				}
				fmt.Printf("  └── %s %s (%s)\n", decl.Name, version, decl.UpdateStrategy)
			}
		}
		fmt.Printf("\n%d declarations in %d files\n", len(decls), len(paths))
		return nil
	}
}

func renderCandidates(candidates []application.Candidate) error {
	switch output {
	case "json":
		return printJSON(candidates)
	case "yaml":
		return printYAML(candidates)
	case "paths":
		decls := make([]domain.Declaration, 0, len(candidates))
		for _, candidate := range candidates {
			decls = append(decls, candidate.Declaration)
		}
		paths, _ := groupByPath(decls)
		for _, path := range paths {
			fmt.Println(path)
		}
		return nil
	default:
		if len(candidates) == 0 {
			fmt.Println("Everything is up to date")
			return nil
		}
		decls := make([]domain.Declaration, 0, len(candidates))
		byName := make(map[string]application.Candidate, len(candidates))
		for _, candidate := range candidates {
			decls = append(decls, candidate.Declaration)
			byName[candidate.Declaration.Path+":"+candidate.Declaration.Name] = candidate
		}
		paths, groups := groupByPath(decls)
		for _, path := range paths {
			fmt.Println(path)
			for _, decl := range groups[path] {
				candidate := byName[decl.Path+":"+decl.Name]
				fmt.Printf("  └── %s %s → %s [%s]\n",
					decl.Name, candidate.CurrentVersion,
					candidate.LatestVersion, candidate.SourceType)
			}
		}
		fmt.Printf("\n%d updates available\n", len(candidates))
		return nil
	}
}

func renderResults(results []application.UpdateResult) error {
	switch output {
	case "json":
		return printJSON(results)
	case "yaml":
		return printYAML(results)
	default:
		for _, result := range results {
			fmt.Printf("✅ %s: %s → %s\n", result.Declaration.Path,
				result.Declaration.Name, result.NewVersion)
		}
		return nil
	}
}
