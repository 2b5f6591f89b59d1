//nolint:testpackage // exercising mutation internals directly
package cargo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/treeupdt/domain"
)

func cargoDecl(name string) domain.Declaration {
	return domain.Declaration{Path: "Cargo.toml", Format: domain.FormatCargo, Name: name}
}

func TestMutator_Apply(t *testing.T) {
	t.Parallel()

	t.Run("should update a bare string dependency and keep its comment", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dependencies]
serde = "1.0.150" # treeupdt: update-strategy=stable
tokio = "1.28"
`

		// when
		result, err := NewMutator().Apply(content, cargoDecl("dependencies-serde"), "1.0.195")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `serde = "1.0.195" # treeupdt: update-strategy=stable`)
		assert.Contains(t, result, `tokio = "1.28"`)
	})

	t.Run("should update the version inside an inline table", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dependencies]
tokio = { version = "1.28", features = ["full"] }
`

		// when
		result, err := NewMutator().Apply(content, cargoDecl("dependencies-tokio"), "1.35")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `tokio = { version = "1.35", features = ["full"] }`)
	})

	t.Run("should insert a version into a git only table", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dependencies]
mylib = { git = "https://github.com/owner/mylib" }
`

		// when
		result, err := NewMutator().Apply(content, cargoDecl("dependencies-mylib"), "0.2.0")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `git = "https://github.com/owner/mylib"`)
		assert.Contains(t, result, `version = "0.2.0"`)
	})

	t.Run("should update an expanded dependency table", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dependencies.serde]
version = "1.0.150"
features = ["derive"]
`

		// when
		result, err := NewMutator().Apply(content, cargoDecl("dependencies-serde"), "1.0.195")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `version = "1.0.195"`)
		assert.Contains(t, result, `features = ["derive"]`)
	})

	t.Run("should update the crate version in [package]", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[package]
name = "mytool"
version = "0.3.1"

[dependencies]
serde = "1.0"
`

		// when
		result, err := NewMutator().Apply(content, cargoDecl("crate-mytool"), "0.4.0")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `version = "0.4.0"`)
		assert.Contains(t, result, `serde = "1.0"`)
	})

	t.Run("should update dev and workspace sections by prefix", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dev-dependencies]
mockall = "0.11"

[workspace.dependencies]
anyhow = "1.0"
`

		// when
		afterDev, err := NewMutator().Apply(content, cargoDecl("dev-mockall"), "0.12")
		require.NoError(t, err)
		afterBoth, err := NewMutator().Apply(afterDev, cargoDecl("workspace-dependency-anyhow"), "1.1")

		// then
		require.NoError(t, err)
		assert.Contains(t, afterBoth, `mockall = "0.12"`)
		assert.Contains(t, afterBoth, `anyhow = "1.1"`)
	})

	t.Run("should update target specific dependencies", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[target.'cfg(windows)'.dependencies]
winapi = "0.3"
`

		// when
		result, err := NewMutator().Apply(
			content, cargoDecl("target.cfg(windows).dependencies-winapi"), "0.4")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `winapi = "0.4"`)
	})

	t.Run("should fail when the dependency is missing", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dependencies]
serde = "1.0"
`

		// when
		_, err := NewMutator().Apply(content, cargoDecl("dependencies-missing"), "1.0")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDeclarationNotFound)
	})

	t.Run("should not match the same name in another section", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dependencies]
serde = "1.0.150"

[dev-dependencies]
serde = "1.0.100"
`

		// when
		result, err := NewMutator().Apply(content, cargoDecl("dev-serde"), "1.0.200")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `serde = "1.0.150"`)
		assert.Contains(t, result, `serde = "1.0.200"`)
		assert.NotContains(t, result, `1.0.100`)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		t.Parallel()

		// given
		content := `[dependencies]
serde = "1.0.150"
`

		// when
		once, err := NewMutator().Apply(content, cargoDecl("dependencies-serde"), "1.0.195")
		require.NoError(t, err)
		twice, err := NewMutator().Apply(once, cargoDecl("dependencies-serde"), "1.0.195")

		// then
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})
}
