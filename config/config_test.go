package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/treeupdt/config"
	"github.com/rios0rios0/treeupdt/domain"
)

func boolPtr(b bool) *bool { return &b }

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("should load a layered config file", func(t *testing.T) {
		t.Parallel()

		// given
		cfgFile := filepath.Join(t.TempDir(), "treeupdt.yaml")
		content := `
global:
  update-strategy: latest
  cache-enabled: false
  cache-ttl: 600
  exclude-paths:
    - vendor
files:
  ./flake.nix:
    enabled: false
packages:
  dependencies-serde:
    pin-version: "1.0.195"
`
		require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o600))

		// when
		cfg, err := config.Load(cfgFile)

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyLatest, cfg.Global.UpdateStrategy)
		assert.False(t, cfg.CacheEnabled())
		assert.Equal(t, 600, cfg.Global.CacheTTL)
		require.NotNil(t, cfg.FileFor("./flake.nix"))
		assert.Equal(t, "1.0.195", cfg.PackageFor("dependencies-serde").PinVersion)
	})

	t.Run("should fill defaults for unset fields", func(t *testing.T) {
		t.Parallel()

		// given
		cfgFile := filepath.Join(t.TempDir(), "treeupdt.yaml")
		require.NoError(t, os.WriteFile(cfgFile, []byte("files: {}"), 0o600))

		// when
		cfg, err := config.Load(cfgFile)

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyStable, cfg.Global.UpdateStrategy)
		assert.Equal(t, 3600, cfg.Global.CacheTTL)
		assert.True(t, cfg.CacheEnabled())
	})

	t.Run("should fail for a nonexistent file", func(t *testing.T) {
		t.Parallel()

		// when
		cfg, err := config.Load("/tmp/nonexistent_treeupdt_config_xyz.yaml")

		// then
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("should fail for invalid YAML", func(t *testing.T) {
		t.Parallel()

		// given
		cfgFile := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(cfgFile, []byte("{{{{invalid yaml"), 0o600))

		// when
		cfg, err := config.Load(cfgFile)

		// then
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("should return error when no config file exists", func(t *testing.T) {
		// given
		chdir(t, t.TempDir())

		// when
		path, err := config.FindConfigFile()

		// then
		require.Error(t, err)
		assert.Empty(t, path)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("should prefer the hidden file in the current directory", func(t *testing.T) {
		// given
		tmpDir := t.TempDir()
		chdir(t, tmpDir)
		require.NoError(t, os.WriteFile(
			filepath.Join(tmpDir, ".treeupdt.yaml"), []byte("files: {}"), 0o600))
		require.NoError(t, os.WriteFile(
			filepath.Join(tmpDir, "treeupdt.yaml"), []byte("files: {}"), 0o600))

		// when
		path, err := config.FindConfigFile()

		// then
		require.NoError(t, err)
		assert.Equal(t, ".treeupdt.yaml", path)
	})
}

func TestConfig_FileFor(t *testing.T) {
	t.Parallel()

	t.Run("should match with and without a leading dot slash", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Files: map[string]config.FileConfig{
			"./flake.nix":    {UpdateStrategy: domain.StrategyLatest},
			"sub/Cargo.toml": {UpdateStrategy: domain.StrategyConservative},
		}}

		// when / then
		require.NotNil(t, cfg.FileFor("flake.nix"))
		assert.Equal(t, domain.StrategyLatest, cfg.FileFor("flake.nix").UpdateStrategy)
		require.NotNil(t, cfg.FileFor("./sub/Cargo.toml"))
		assert.Nil(t, cfg.FileFor("other/Cargo.toml"))
	})
}

func TestConfig_IsExcluded(t *testing.T) {
	t.Parallel()

	t.Run("should exclude exact paths and their children", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Global: config.GlobalConfig{
			ExcludePaths: []string{"vendor"},
		}}

		// when / then
		assert.True(t, cfg.IsExcluded("vendor"))
		assert.True(t, cfg.IsExcluded("vendor/flake.nix"))
		assert.False(t, cfg.IsExcluded("vendored/flake.nix"))
	})

	t.Run("should exclude glob patterns", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Global: config.GlobalConfig{
			ExcludePaths: []string{"**/fixtures/*"},
		}}

		// when / then
		assert.True(t, cfg.IsExcluded("test/fixtures/package.json"))
		assert.False(t, cfg.IsExcluded("src/package.json"))
	})
}

func TestConfig_Resolve(t *testing.T) {
	t.Parallel()

	base := domain.Declaration{
		Path:           "./flake.nix",
		Format:         domain.FormatNix,
		Name:           "flake-input-nixpkgs",
		CurrentVersion: "23.11",
		Sources: []domain.SourceHint{
			{SourceType: domain.SourceGitHub, Identifier: "NixOS/nixpkgs"},
			{SourceType: domain.SourceGit, Identifier: "https://example.com/nixpkgs.git"},
		},
		UpdateStrategy: domain.StrategyStable,
	}

	t.Run("should apply the global strategy", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Global: config.GlobalConfig{
			UpdateStrategy: domain.StrategyLatest,
		}}

		// when
		resolved, keep := cfg.Resolve(base)

		// then
		assert.True(t, keep)
		assert.Equal(t, domain.StrategyLatest, resolved.UpdateStrategy)
	})

	t.Run("should drop declarations in excluded paths", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Global: config.GlobalConfig{
			ExcludePaths: []string{"./flake.nix"},
		}}

		// when
		_, keep := cfg.Resolve(base)

		// then
		assert.False(t, keep)
	})

	t.Run("should drop declarations from disabled files", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Files: map[string]config.FileConfig{
			"./flake.nix": {Enabled: boolPtr(false)},
		}}

		// when
		_, keep := cfg.Resolve(base)

		// then
		assert.False(t, keep)
	})

	t.Run("should drop pinned packages", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Packages: map[string]config.PackageConfig{
			"flake-input-nixpkgs": {PinVersion: "23.11"},
		}}

		// when
		_, keep := cfg.Resolve(base)

		// then
		assert.False(t, keep)
	})

	t.Run("should let the file package override the file strategy", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Files: map[string]config.FileConfig{
			"./flake.nix": {
				UpdateStrategy: domain.StrategyConservative,
				Packages: map[string]config.PackageConfig{
					"flake-input-nixpkgs": {UpdateStrategy: domain.StrategyAggressive},
				},
			},
		}}

		// when
		resolved, keep := cfg.Resolve(base)

		// then
		assert.True(t, keep)
		assert.Equal(t, domain.StrategyAggressive, resolved.UpdateStrategy)
	})

	t.Run("should move the preferred source to the front", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Packages: map[string]config.PackageConfig{
			"flake-input-nixpkgs": {PreferredSource: "git"},
		}}

		// when
		resolved, keep := cfg.Resolve(base)

		// then
		assert.True(t, keep)
		require.Len(t, resolved.Sources, 2)
		assert.Equal(t, domain.SourceGit, resolved.Sources[0].SourceType)
		assert.Equal(t, domain.SourceGitHub, resolved.Sources[1].SourceType)
	})

	t.Run("should let annotations win over every configured layer", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{
			Global: config.GlobalConfig{UpdateStrategy: domain.StrategyStable},
			Packages: map[string]config.PackageConfig{
				"flake-input-nixpkgs": {UpdateStrategy: domain.StrategyConservative},
			},
		}
		annotated := base
		annotated.Annotations = []domain.Annotation{
			{Line: 3, Options: map[string]string{"update-strategy": "latest"}},
		}

		// when
		resolved, keep := cfg.Resolve(annotated)

		// then
		assert.True(t, keep)
		assert.Equal(t, domain.StrategyLatest, resolved.UpdateStrategy)
	})

	t.Run("should drop annotated ignores and pins", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		ignored := base
		ignored.Annotations = []domain.Annotation{
			{Line: 3, Options: map[string]string{"ignore": "true"}},
		}
		pinned := base
		pinned.Annotations = []domain.Annotation{
			{Line: 3, Options: map[string]string{"pin-version": "23.11"}},
		}

		// when / then
		_, keep := cfg.Resolve(ignored)
		assert.False(t, keep)
		_, keep = cfg.Resolve(pinned)
		assert.False(t, keep)
	})
}

func TestConfig_IgnoredVersion(t *testing.T) {
	t.Parallel()

	base := domain.Declaration{
		Path: "./Cargo.toml",
		Name: "dependencies-serde",
	}

	t.Run("should match annotation patterns split on commas", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		decl := base
		decl.Annotations = []domain.Annotation{
			{Line: 5, Options: map[string]string{"ignore-versions": "2.0.0, *-beta*"}},
		}

		// when / then
		assert.True(t, cfg.IgnoredVersion(decl, "2.0.0"))
		assert.True(t, cfg.IgnoredVersion(decl, "2.1.0-beta.1"))
		assert.False(t, cfg.IgnoredVersion(decl, "2.1.0"))
	})

	t.Run("should match configured glob patterns", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Packages: map[string]config.PackageConfig{
			"dependencies-serde": {IgnoreVersions: []string{"1.0.*"}},
		}}

		// when / then
		assert.True(t, cfg.IgnoredVersion(base, "1.0.200"))
		assert.False(t, cfg.IgnoredVersion(base, "1.1.0"))
	})

	t.Run("should match exact patterns only exactly", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Files: map[string]config.FileConfig{
			"./Cargo.toml": {Packages: map[string]config.PackageConfig{
				"dependencies-serde": {IgnoreVersions: []string{"1.0.200"}},
			}},
		}}

		// when / then
		assert.True(t, cfg.IgnoredVersion(base, "1.0.200"))
		assert.False(t, cfg.IgnoredVersion(base, "1.0.2000"))
	})
}

func TestConfig_Save(t *testing.T) {
	t.Parallel()

	t.Run("should round trip through a file", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "treeupdt.yaml")
		cfg := &config.Config{
			Global: config.GlobalConfig{
				UpdateStrategy: domain.StrategyLatest,
				CacheTTL:       120,
			},
			Packages: map[string]config.PackageConfig{
				"module-golang.org/x/mod": {PinVersion: "0.17.0"},
			},
		}

		// when
		require.NoError(t, cfg.Save(path))
		loaded, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyLatest, loaded.Global.UpdateStrategy)
		assert.Equal(t, 120, loaded.Global.CacheTTL)
		assert.Equal(t, "0.17.0", loaded.PackageFor("module-golang.org/x/mod").PinVersion)
	})
}
