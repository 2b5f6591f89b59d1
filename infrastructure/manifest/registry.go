// Package manifest wires the format scanners and mutators into a single
// dispatch surface keyed by domain.Format.
package manifest

import (
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/cargo"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/gomod"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/nix"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest/npm"
	"github.com/rios0rios0/treeupdt/internal/walker"
)

// formats in stable scan order
var formats = []domain.Format{
	domain.FormatNix,
	domain.FormatCargo,
	domain.FormatGoMod,
	domain.FormatNpm,
}

// Registry holds the scanner/mutator pair of every supported format. The
// set is closed: construction registers all four pairs and there is no way
// to add more.
type Registry struct {
	scanners map[domain.Format]domain.Scanner
	mutators map[domain.Format]domain.Mutator
}

func NewRegistry(w *walker.Walker) *Registry {
	return &Registry{
		scanners: map[domain.Format]domain.Scanner{
			domain.FormatNix:   nix.NewScanner(w),
			domain.FormatCargo: cargo.NewScanner(w),
			domain.FormatGoMod: gomod.NewScanner(w),
			domain.FormatNpm:   npm.NewScanner(w),
		},
		mutators: map[domain.Format]domain.Mutator{
			domain.FormatNix:   nix.NewMutator(),
			domain.FormatCargo: cargo.NewMutator(),
			domain.FormatGoMod: gomod.NewMutator(),
			domain.FormatNpm:   npm.NewMutator(),
		},
	}
}

func (r *Registry) Scanner(format domain.Format) domain.Scanner {
	return r.scanners[format]
}

func (r *Registry) Mutator(format domain.Format) domain.Mutator {
	return r.mutators[format]
}

// Formats returns the supported formats in scan order.
func (r *Registry) Formats() []domain.Format {
	return formats
}

// ScanAll runs every scanner over the root and merges their results.
func (r *Registry) ScanAll(root string) (*domain.ScanResult, error) {
	merged := &domain.ScanResult{}
	for _, format := range formats {
		result, err := r.scanners[format].Scan(root)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s manifests: %w", format, err)
		}
		merged.Declarations = append(merged.Declarations, result.Declarations...)
		merged.Failures = append(merged.Failures, result.Failures...)
	}
	logger.Debugf("[manifest] scanned %d declarations (%d failures) under %s",
		len(merged.Declarations), len(merged.Failures), root)
	return merged, nil
}

// Update applies a version change to the declaration's file. The file is
// rewritten only after the mutation succeeded in memory, so a failure never
// leaves a partial write behind.
func (r *Registry) Update(decl domain.Declaration, newVersion string) error {
	mutator := r.mutators[decl.Format]
	if mutator == nil {
		return fmt.Errorf("no mutator for format %q", decl.Format)
	}

	info, err := os.Stat(decl.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", decl.Path, err)
	}
	data, err := os.ReadFile(decl.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", decl.Path, err)
	}

	updated, err := mutator.Apply(string(data), decl, newVersion)
	if err != nil {
		return fmt.Errorf("failed to update %s in %s: %w", decl.Name, decl.Path, err)
	}

	if err := os.WriteFile(decl.Path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", decl.Path, err)
	}
	logger.Infof("[manifest] updated %s in %s to %s", decl.Name, decl.Path, newVersion)
	return nil
}
