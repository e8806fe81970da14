package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// StatusFile is the per-project build record, written next to the sources.
// The leading dot keeps it out of artifact listings. It survives restarts,
// which is what lets clients learn the fate of a build whose process died.
const StatusFile = ".build-status.json"

var ErrNoStatus = errors.New("no build status recorded")

type Status struct {
	BuildID    string     `json:"build_id"`
	Project    string     `json:"project"`
	State      State      `json:"state"`
	SourceURL  string     `json:"source_url,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ReadStatus loads the build record from a project directory.
func ReadStatus(projectDir string) (*Status, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, StatusFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("reading status: %w", err)
	}

	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}
	return &st, nil
}

// MarkAbandoned records a build that can no longer finish (its process is
// gone) as failed.
func MarkAbandoned(projectDir string, st *Status) error {
	now := time.Now().UTC()
	st.State = StateFailed
	st.FinishedAt = &now
	st.Error = "build abandoned: process exited before the build finished"
	return writeStatus(projectDir, st)
}

// writeStatus persists the record atomically so a concurrent reader never
// sees a half-written file.
func writeStatus(projectDir string, st *Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	tmp := filepath.Join(projectDir, StatusFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	return os.Rename(tmp, filepath.Join(projectDir, StatusFile))
}
