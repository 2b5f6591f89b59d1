//nolint:testpackage // exercising client internals directly
package crates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCrateServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crates/serde", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSource_CheckUpdate(t *testing.T) {
	t.Parallel()

	t.Run("should skip yanked versions and flag pre-releases", func(t *testing.T) {
		t.Parallel()

		// given
		server := newCrateServer(t, `{
			"crate": {"max_version": "1.0.200"},
			"versions": [
				{"num": "1.0.200", "yanked": true, "created_at": "2024-02-01T00:00:00Z"},
				{"num": "1.0.199-beta.1", "yanked": false, "created_at": "2024-01-20T00:00:00Z"},
				{"num": "1.0.195", "yanked": false, "created_at": "2024-01-10T00:00:00Z"}
			]
		}`)

		// when
		info, err := NewWithBaseURL(server.URL).CheckUpdate(context.Background(), "serde", "1.0.150")

		// then
		require.NoError(t, err)
		assert.True(t, info.UpdateAvailable)
		assert.Equal(t, "1.0.199-beta.1", info.LatestVersion.Version)
		require.NotNil(t, info.LatestStableVersion)
		assert.Equal(t, "1.0.195", info.LatestStableVersion.Version)
		assert.Len(t, info.AllVersions, 3)
	})

	t.Run("should report no update when current is the newest", func(t *testing.T) {
		t.Parallel()

		// given
		server := newCrateServer(t, `{
			"crate": {"max_version": "1.0.195"},
			"versions": [
				{"num": "1.0.195", "yanked": false, "created_at": "2024-01-10T00:00:00Z"}
			]
		}`)

		// when
		info, err := NewWithBaseURL(server.URL).CheckUpdate(context.Background(), "serde", "1.0.195")

		// then
		require.NoError(t, err)
		assert.False(t, info.UpdateAvailable)
	})
}
