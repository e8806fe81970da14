// Package projectfs is the persistence layer of the service. There is no
// database: the directory tree under the data root is the backing store, and
// it must stay readable across process restarts because builds finish long
// after the request that started them.
package projectfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid project name")
)

// nameRE accepts PEP-503-style project names: alphanumerics separated by
// single dots, dashes or underscores. Anything else is rejected before it can
// become a directory name.
var nameRE = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

const distDir = "dist"

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("data root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

// SanitizeName validates a submitted project name for use as a directory
// name under the data root.
func SanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || !nameRE.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// ProjectDir returns the directory for a project without creating it.
func (s *Store) ProjectDir(name string) (string, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, clean), nil
}

// EnsureProjectDir creates the project directory if it does not exist yet
// and returns its path.
func (s *Store) EnsureProjectDir(name string) (string, error) {
	dir, err := s.ProjectDir(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}
	return dir, nil
}

// ListProjects returns the names of all known projects, sorted. A project is
// any subdirectory of the data root.
func (s *Store) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read data root: %w", err)
	}

	projects := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		projects = append(projects, e.Name())
	}
	sort.Strings(projects)
	return projects, nil
}

// ListArtifacts returns the filenames under a project's dist directory.
// Returns ErrNotFound when the project has no dist directory, which is also
// the case for projects that were triggered but never built successfully.
func (s *Store) ListArtifacts(project string) ([]string, error) {
	dir, err := s.ProjectDir(project)
	if err != nil {
		return nil, ErrNotFound
	}

	entries, err := os.ReadDir(filepath.Join(dir, distDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read dist dir: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// ArtifactPath resolves a client-supplied file path (which may contain
// separators) to an absolute path that is guaranteed to stay inside the
// project's dist directory. Traversal attempts and missing files both come
// back as ErrNotFound.
func (s *Store) ArtifactPath(project, filePath string) (string, error) {
	dir, err := s.ProjectDir(project)
	if err != nil {
		return "", ErrNotFound
	}

	full, err := securejoin.SecureJoin(filepath.Join(dir, distDir), filePath)
	if err != nil {
		return "", ErrNotFound
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return full, nil
}
