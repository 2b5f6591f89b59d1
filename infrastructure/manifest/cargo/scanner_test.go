//nolint:testpackage // exercising scan internals directly
package cargo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/internal/walker"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(content), 0o644))
}

func findDeclaration(decls []domain.Declaration, name string) *domain.Declaration {
	for i := range decls {
		if decls[i].Name == name {
			return &decls[i]
		}
	}
	return nil
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("should scan the package and its dependency sections", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeManifest(t, dir, `[package]
name = "mytool"
version = "0.3.1"

[dependencies]
serde = "1.0.150"
tokio = { version = "1.28", features = ["full"] }

[dev-dependencies]
mockall = "0.11"

[build-dependencies]
cc = "1.0"
`)

		// when
		result, err := NewScanner(walker.New()).Scan(dir)

		// then
		require.NoError(t, err)
		require.Empty(t, result.Failures)

		crate := findDeclaration(result.Declarations, "crate-mytool")
		require.NotNil(t, crate)
		assert.Equal(t, "0.3.1", crate.CurrentVersion)
		assert.Equal(t, domain.SourceCrates, crate.Sources[0].SourceType)

		serde := findDeclaration(result.Declarations, "dependencies-serde")
		require.NotNil(t, serde)
		assert.Equal(t, "1.0.150", serde.CurrentVersion)

		tokio := findDeclaration(result.Declarations, "dependencies-tokio")
		require.NotNil(t, tokio)
		assert.Equal(t, "1.28", tokio.CurrentVersion)

		assert.NotNil(t, findDeclaration(result.Declarations, "dev-mockall"))
		assert.NotNil(t, findDeclaration(result.Declarations, "build-cc"))
	})

	t.Run("should report git dependencies with a git source", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeManifest(t, dir, `[dependencies]
mylib = { git = "https://github.com/owner/mylib", branch = "develop" }
`)

		// when
		result, err := NewScanner(walker.New()).Scan(dir)

		// then
		require.NoError(t, err)
		mylib := findDeclaration(result.Declarations, "dependencies-mylib")
		require.NotNil(t, mylib)
		assert.Equal(t, "unknown", mylib.CurrentVersion)
		assert.Equal(t, domain.SourceGit, mylib.Sources[0].SourceType)
		assert.Equal(t, "https://github.com/owner/mylib#develop", mylib.Sources[0].Identifier)
	})

	t.Run("should keep crates as the source for path dependencies", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeManifest(t, dir, `[dependencies]
helper = { path = "../helper", version = "0.1.0" }
`)

		// when
		result, err := NewScanner(walker.New()).Scan(dir)

		// then
		require.NoError(t, err)
		helper := findDeclaration(result.Declarations, "dependencies-helper")
		require.NotNil(t, helper)
		assert.Equal(t, "0.1.0", helper.CurrentVersion)
		assert.Equal(t, domain.SourceCrates, helper.Sources[0].SourceType)
	})

	t.Run("should scan workspace and target dependencies", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeManifest(t, dir, `[workspace]
members = ["crates/*"]

[workspace.dependencies]
anyhow = "1.0"

[target.'cfg(windows)'.dependencies]
winapi = "0.3"
`)

		// when
		result, err := NewScanner(walker.New()).Scan(dir)

		// then
		require.NoError(t, err)
		assert.NotNil(t, findDeclaration(result.Declarations, "workspace-dependency-anyhow"))

		winapi := findDeclaration(result.Declarations, "target.cfg(windows).dependencies-winapi")
		require.NotNil(t, winapi)
		assert.Equal(t, "0.3", winapi.CurrentVersion)
		assert.Empty(t, winapi.Annotations)
	})

	t.Run("should attach inline and above-line annotations", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeManifest(t, dir, `[dependencies]
serde = "1.0.150" # treeupdt: update-strategy=stable
# treeupdt: pin-version=1.28.0
tokio = "1.28.0"
`)

		// when
		result, err := NewScanner(walker.New()).Scan(dir)

		// then
		require.NoError(t, err)

		serde := findDeclaration(result.Declarations, "dependencies-serde")
		require.NotNil(t, serde)
		require.Len(t, serde.Annotations, 1)
		assert.Equal(t, "stable", serde.Annotations[0].Options["update-strategy"])

		tokio := findDeclaration(result.Declarations, "dependencies-tokio")
		require.NotNil(t, tokio)
		require.Len(t, tokio.Annotations, 1)
		assert.Equal(t, "1.28.0", tokio.Annotations[0].Options["pin-version"])
	})

	t.Run("should record a failure for invalid toml", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeManifest(t, dir, "[dependencies\nserde = \"1.0\"\n")

		// when
		result, err := NewScanner(walker.New()).Scan(dir)

		// then
		require.NoError(t, err)
		require.Len(t, result.Failures, 1)
		assert.Empty(t, result.Declarations)
	})
}
