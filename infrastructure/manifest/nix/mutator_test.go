//nolint:testpackage // exercising mutation internals directly
package nix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/treeupdt/domain"
)

func nixDecl(name string) domain.Declaration {
	return domain.Declaration{Path: "flake.nix", Format: domain.FormatNix, Name: name}
}

func TestMutator_Apply(t *testing.T) {
	t.Parallel()

	t.Run("should pin a ref on github shorthand", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{
  inputs = {
    nixpkgs.url = "github:NixOS/nixpkgs/nixos-23.11";
  };
}`

		// when
		result, err := NewMutator().Apply(content, nixDecl("flake-input-nixpkgs"), "nixos-24.05")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `nixpkgs.url = "github:NixOS/nixpkgs/nixos-24.05";`)
	})

	t.Run("should append a ref when github shorthand has none", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{
  inputs = {
    flake-utils.url = "github:numtide/flake-utils";
  };
}`

		// when
		result, err := NewMutator().Apply(content, nixDecl("flake-input-flake-utils"), "v1.0.0")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `"github:numtide/flake-utils/v1.0.0"`)
	})

	t.Run("should replace an explicit ref parameter", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{
  inputs = {
    mylib = {
      url = "git+https://example.com/mylib.git?ref=v1.0&shallow=1";
    };
  };
}`

		// when
		result, err := NewMutator().Apply(content, nixDecl("flake-input-mylib"), "v2.0")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `"git+https://example.com/mylib.git?ref=v2.0&shallow=1"`)
	})

	t.Run("should append a ref parameter to github https urls", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{
  inputs = {
    tool.url = "https://github.com/owner/tool";
  };
}`

		// when
		result, err := NewMutator().Apply(content, nixDecl("flake-input-tool"), "v3.0.0")

		// then
		require.NoError(t, err)
		assert.Contains(t, result, `"https://github.com/owner/tool?ref=v3.0.0"`)
	})

	t.Run("should leave unrecognized url dialects unchanged", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{
  inputs = {
    local.url = "path:./modules";
  };
}`

		// when
		result, err := NewMutator().Apply(content, nixDecl("flake-input-local"), "v1.0")

		// then
		require.NoError(t, err)
		assert.Equal(t, content, result)
	})

	t.Run("should fail when the input does not exist", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{
  inputs = {
    nixpkgs.url = "github:NixOS/nixpkgs";
  };
}`

		// when
		_, err := NewMutator().Apply(content, nixDecl("flake-input-missing"), "v1.0")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDeclarationNotFound)
	})

	t.Run("should rewrite every package version binding", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{ stdenv }:

stdenv.mkDerivation rec {
  pname = "mytool";
  version = "1.2.3";
  passthru.tests = { version = "1.2.3"; };
}`

		// when
		result, err := NewMutator().Apply(content, nixDecl("package"), "1.3.0")

		// then
		require.NoError(t, err)
		assert.NotContains(t, result, `"1.2.3"`)
		assert.Contains(t, result, `version = "1.3.0";`)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{
  inputs = {
    nixpkgs.url = "github:NixOS/nixpkgs/nixos-23.11";
  };
}`

		// when
		once, err := NewMutator().Apply(content, nixDecl("flake-input-nixpkgs"), "nixos-24.05")
		require.NoError(t, err)
		twice, err := NewMutator().Apply(once, nixDecl("flake-input-nixpkgs"), "nixos-24.05")

		// then
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("should reject unknown declaration names", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := NewMutator().Apply("{ }", nixDecl("something-else"), "1.0")

		// then
		assert.Error(t, err)
	})
}
