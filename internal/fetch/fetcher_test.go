package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serveBytes(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchTarGz(t *testing.T) {
	body := buildTarGz(t, map[string]string{
		"demoipkg-0.1.0/setup.cfg":            "[metadata]",
		"demoipkg-0.1.0/demoipkg/__init__.py": "VERSION = '0.1.0'",
	})
	server := serveBytes(t, body)

	dest := t.TempDir()
	f := NewFetcher(server.Client())
	require.NoError(t, f.Fetch(context.Background(), server.URL+"/demoipkg-0.1.0.tar.gz", dest))

	got, err := os.ReadFile(filepath.Join(dest, "demoipkg-0.1.0", "demoipkg", "__init__.py"))
	require.NoError(t, err)
	assert.Equal(t, "VERSION = '0.1.0'", string(got))
}

func TestFetchZip(t *testing.T) {
	body := buildZip(t, map[string]string{
		"demoipkg-0.1.0/README.md": "hello",
	})
	server := serveBytes(t, body)

	dest := t.TempDir()
	f := NewFetcher(server.Client())
	require.NoError(t, f.Fetch(context.Background(), server.URL+"/demoipkg-0.1.0.zip", dest))

	got, err := os.ReadFile(filepath.Join(dest, "demoipkg-0.1.0", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestFetchUpstreamErrorWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := t.TempDir()
	f := NewFetcher(server.Client())
	err := f.Fetch(context.Background(), server.URL+"/demoipkg-0.1.0.tar.gz", dest)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)

	entries, readErr := os.ReadDir(dest)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "a failed download must not create files under dest")
}

func TestFetchUnsupportedFormat(t *testing.T) {
	server := serveBytes(t, []byte("not an archive"))

	dest := t.TempDir()
	f := NewFetcher(server.Client())
	err := f.Fetch(context.Background(), server.URL+"/demoipkg-0.1.0.rar", dest)

	var formatErr *UnsupportedFormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestFetchHostileTarEntryStaysInside(t *testing.T) {
	body := buildTarGz(t, map[string]string{
		"../escape.txt": "should not land outside dest",
	})
	server := serveBytes(t, body)

	parent := t.TempDir()
	dest := filepath.Join(parent, "project")
	require.NoError(t, os.Mkdir(dest, 0o755))

	f := NewFetcher(server.Client())
	require.NoError(t, f.Fetch(context.Background(), server.URL+"/evil-0.1.0.tar.gz", dest))

	_, err := os.Stat(filepath.Join(parent, "escape.txt"))
	assert.True(t, os.IsNotExist(err), "entry must not escape the destination directory")

	// The entry is clamped to the destination root instead.
	_, err = os.Stat(filepath.Join(dest, "escape.txt"))
	assert.NoError(t, err)
}

func TestFetchHostileZipEntryStaysInside(t *testing.T) {
	body := buildZip(t, map[string]string{
		"../../escape.txt": "should not land outside dest",
	})
	server := serveBytes(t, body)

	parent := t.TempDir()
	dest := filepath.Join(parent, "project")
	require.NoError(t, os.Mkdir(dest, 0o755))

	f := NewFetcher(server.Client())
	require.NoError(t, f.Fetch(context.Background(), server.URL+"/evil-0.1.0.zip", dest))

	_, err := os.Stat(filepath.Join(parent, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchSkipsTarSymlinks(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "link",
		Typeflag: tar.TypeSymlink,
		Linkname: "/etc/passwd",
	}))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	server := serveBytes(t, buf.Bytes())

	dest := t.TempDir()
	f := NewFetcher(server.Client())
	require.NoError(t, f.Fetch(context.Background(), server.URL+"/pkg-0.1.0.tar.gz", dest))

	_, err := os.Lstat(filepath.Join(dest, "link"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
