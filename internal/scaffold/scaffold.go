// Package scaffold fills in the files the build toolchain needs when a
// source distribution ships without them: a README.md and a setup.py. Files
// already present in the source tree are never overwritten, so re-triggering
// a build is idempotent with respect to both.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
)

// Metadata is the build request payload. It is bound once per request and
// never mutated afterwards.
type Metadata struct {
	Name            string   `json:"name" binding:"required"`
	Version         string   `json:"version" binding:"required"`
	Author          string   `json:"author"`
	AuthorEmail     string   `json:"author_email"`
	Description     string   `json:"description"`
	LongDescription string   `json:"long_description"`
	Classifiers     []string `json:"classifiers"`
	PythonRequires  string   `json:"python_requires"`
	Packages        []string `json:"packages"`
	InstallRequires []string `json:"install_requires"`
}

const (
	readmeFile = "README.md"
	setupFile  = "setup.py"
)

// Ensure creates README.md and setup.py in dir unless they already exist.
func Ensure(dir string, meta Metadata, sourceURL string) error {
	readme := filepath.Join(dir, readmeFile)
	if _, err := os.Stat(readme); os.IsNotExist(err) {
		if err := os.WriteFile(readme, []byte(meta.LongDescription), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", readmeFile, err)
		}
	}

	setup := filepath.Join(dir, setupFile)
	if _, err := os.Stat(setup); os.IsNotExist(err) {
		content, err := renderSetup(meta, sourceURL)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", setupFile, err)
		}
		if err := os.WriteFile(setup, content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", setupFile, err)
		}
	}

	return nil
}
