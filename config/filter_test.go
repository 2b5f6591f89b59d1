package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/treeupdt/config"
	"github.com/rios0rios0/treeupdt/domain"
)

func sampleDeclarations() []domain.Declaration {
	return []domain.Declaration{
		{
			Path:   "./flake.nix",
			Format: domain.FormatNix,
			Name:   "flake-input-nixpkgs",
			Sources: []domain.SourceHint{
				{SourceType: domain.SourceGitHub, Identifier: "NixOS/nixpkgs"},
			},
			UpdateStrategy: domain.StrategyStable,
		},
		{
			Path:   "./Cargo.toml",
			Format: domain.FormatCargo,
			Name:   "dependencies-serde",
			Sources: []domain.SourceHint{
				{SourceType: domain.SourceCrates, Identifier: "serde"},
			},
			UpdateStrategy: domain.StrategyLatest,
		},
		{
			Path:   "./web/package.json",
			Format: domain.FormatNpm,
			Name:   "dependency-express",
			Sources: []domain.SourceHint{
				{SourceType: domain.SourceNpm, Identifier: "express"},
			},
			UpdateStrategy: domain.StrategyStable,
		},
	}
}

func TestNewFilter(t *testing.T) {
	t.Parallel()

	t.Run("should reject an invalid name pattern", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := config.NewFilter(config.FilterOptions{NamePattern: "["})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to compile name pattern")
	})
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		opts          config.FilterOptions
		expectedNames []string
	}{
		{
			"should keep everything without options",
			config.FilterOptions{},
			[]string{"flake-input-nixpkgs", "dependencies-serde", "dependency-express"},
		},
		{
			"should filter by file type",
			config.FilterOptions{FileType: "cargo"},
			[]string{"dependencies-serde"},
		},
		{
			"should filter by name pattern",
			config.FilterOptions{NamePattern: "^dependency-"},
			[]string{"dependency-express"},
		},
		{
			"should filter by source type",
			config.FilterOptions{SourceType: "github"},
			[]string{"flake-input-nixpkgs"},
		},
		{
			"should filter by update strategy",
			config.FilterOptions{UpdateStrategy: "latest"},
			[]string{"dependencies-serde"},
		},
		{
			"should intersect multiple axes",
			config.FilterOptions{FileType: "npm", UpdateStrategy: "latest"},
			[]string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			filter, err := config.NewFilter(tt.opts)
			require.NoError(t, err)

			// when
			kept := filter.Apply(sampleDeclarations())

			// then
			names := make([]string, 0, len(kept))
			for _, decl := range kept {
				names = append(names, decl.Name)
			}
			assert.Equal(t, tt.expectedNames, names)
		})
	}
}
