package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// entryPath resolves an archive entry name to a path that cannot escape
// dest, whatever the entry name contains.
func entryPath(dest, name string) (string, error) {
	return securejoin.SecureJoin(dest, name)
}

func extractTarGz(body []byte, dest string) error {
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := entryPath(dest, header.Name)
		if err != nil {
			return fmt.Errorf("resolving tar entry %q: %w", header.Name, err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating dir %q: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("writing %q: %w", header.Name, err)
			}
		default:
			// Symlinks, devices and the like are not part of a source
			// distribution's contract; skip them rather than risk writing
			// outside dest.
		}
	}
}

func extractZip(body []byte, dest string) error {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("opening zip reader: %w", err)
	}

	for _, file := range zr.File {
		target, err := entryPath(dest, file.Name)
		if err != nil {
			return fmt.Errorf("resolving zip entry %q: %w", file.Name, err)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating dir %q: %w", file.Name, err)
			}
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("opening zip entry %q: %w", file.Name, err)
		}
		err = writeEntry(target, rc, file.FileInfo().Mode().Perm())
		rc.Close()
		if err != nil {
			return fmt.Errorf("writing %q: %w", file.Name, err)
		}
	}
	return nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
