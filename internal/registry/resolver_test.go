package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolveFirstMatchWins(t *testing.T) {
	server := newIndexServer(t, map[string]string{
		"/simple/demoipkg/": `<!DOCTYPE html><html><body>
			<a href="https://files.example/demoipkg-0.1.0-py3-none-any.whl">wheel</a>
			<a href="https://files.example/demoipkg-0.1.0.zip">zip</a>
			<a href="https://files.example/demoipkg-0.1.0.tar.gz">tar</a>
		</body></html>`,
	})

	r := NewResolver(server.URL, server.Client())
	url, err := r.Resolve(context.Background(), "demoipkg")
	require.NoError(t, err)

	// The zip appears before the tar.gz in document order, so it wins even
	// though a tarball is also available.
	assert.Equal(t, "https://files.example/demoipkg-0.1.0.zip", url)
}

func TestResolveSkipsNonArchiveLinks(t *testing.T) {
	server := newIndexServer(t, map[string]string{
		"/simple/demoipkg/": `<html><body>
			<a href="/project/demoipkg/">project page</a>
			<a href="https://files.example/demoipkg-0.1.0.tar.gz">sdist</a>
		</body></html>`,
	})

	r := NewResolver(server.URL, server.Client())
	url, err := r.Resolve(context.Background(), "demoipkg")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/demoipkg-0.1.0.tar.gz", url)
}

func TestResolveRelativeLink(t *testing.T) {
	server := newIndexServer(t, map[string]string{
		"/simple/demoipkg/": `<html><body>
			<a href="../../packages/demoipkg-0.1.0.tar.gz">sdist</a>
		</body></html>`,
	})

	r := NewResolver(server.URL, server.Client())
	url, err := r.Resolve(context.Background(), "demoipkg")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/packages/demoipkg-0.1.0.tar.gz", url)
}

func TestResolveNoArchiveLinks(t *testing.T) {
	server := newIndexServer(t, map[string]string{
		"/simple/demoipkg/": `<html><body><a href="/nothing/here">x</a></body></html>`,
	})

	r := NewResolver(server.URL, server.Client())
	_, err := r.Resolve(context.Background(), "demoipkg")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestResolveUnknownPackage(t *testing.T) {
	server := newIndexServer(t, map[string]string{})

	r := NewResolver(server.URL, server.Client())
	_, err := r.Resolve(context.Background(), "no-such-package")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestResolveUpstreamDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewResolver(server.URL, server.Client())
	_, err := r.Resolve(context.Background(), "demoipkg")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
