//nolint:testpackage // exercising the walk internals directly
package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalker_Walk(t *testing.T) {
	t.Parallel()

	t.Run("should visit matching files recursively", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "flake.nix"), "{}")
		writeFile(t, filepath.Join(root, "sub", "default.nix"), "{}")
		writeFile(t, filepath.Join(root, "sub", "notes.txt"), "skip me")

		// when
		var visited []string
		err := New().Walk(root, Options{
			Match: func(name string) bool { return filepath.Ext(name) == ".nix" },
		}, func(path string) error {
			visited = append(visited, path)
			return nil
		})

		// then
		require.NoError(t, err)
		assert.Len(t, visited, 2)
	})

	t.Run("should visit a file root directly", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		manifest := filepath.Join(root, "Cargo.toml")
		writeFile(t, manifest, "[package]")

		// when
		var visited []string
		err := New().Walk(manifest, Options{
			Match: func(name string) bool { return name == "Cargo.toml" },
		}, func(path string) error {
			visited = append(visited, path)
			return nil
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{manifest}, visited)
	})

	t.Run("should skip pruned directories", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "package.json"), "{}")
		writeFile(t, filepath.Join(root, "node_modules", "dep", "package.json"), "{}")

		// when
		var visited []string
		err := New().Walk(root, Options{
			Match:   func(name string) bool { return name == "package.json" },
			SkipDir: func(name string) bool { return name == "node_modules" },
		}, func(path string) error {
			visited = append(visited, path)
			return nil
		})

		// then
		require.NoError(t, err)
		assert.Len(t, visited, 1)
	})

	t.Run("should terminate on symlink cycles", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "sub", "go.mod"), "module example.com/x")
		if err := os.Symlink(root, filepath.Join(root, "sub", "loop")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		// when
		var visited []string
		err := New().Walk(root, Options{
			Match: func(name string) bool { return name == "go.mod" },
		}, func(path string) error {
			visited = append(visited, path)
			return nil
		})

		// then
		require.NoError(t, err)
		assert.Len(t, visited, 1)
	})

	t.Run("should fail when the root does not exist", func(t *testing.T) {
		t.Parallel()

		// when
		err := New().Walk("/does/not/exist", Options{}, func(string) error { return nil })

		// then
		assert.Error(t, err)
	})
}
