// Package builder shells out to the Python packaging toolchain. The build is
// a detached background task: the triggering request returns immediately and
// success is discovered out of band, through the repository index and the
// per-project status record.
package builder

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const logFile = "build.log"

type Runner struct {
	pipBin    string
	pythonBin string
	timeout   time.Duration
	locks     *lockTable
}

func NewRunner(pipBin, pythonBin string, timeout time.Duration) *Runner {
	return &Runner{
		pipBin:    pipBin,
		pythonBin: pythonBin,
		timeout:   timeout,
		locks:     newLockTable(),
	}
}

// TryBegin claims the build slot for a project. Callers that get true own
// the slot and must end it, either through Start (which releases it when the
// background task finishes) or through Abort when setup fails first.
func (r *Runner) TryBegin(project string) bool {
	return r.locks.tryAcquire(project)
}

// Abort releases a claimed build slot without running a build.
func (r *Runner) Abort(project string) {
	r.locks.release(project)
}

// Start records a pending status and detaches the build task. The caller
// must hold the project's build slot via TryBegin.
func (r *Runner) Start(project, dir, sourceURL string) error {
	st := &Status{
		BuildID:   uuid.New().String(),
		Project:   project,
		State:     StatePending,
		SourceURL: sourceURL,
		StartedAt: time.Now().UTC(),
	}
	if err := writeStatus(dir, st); err != nil {
		r.locks.release(project)
		return err
	}

	go r.run(dir, st)
	return nil
}

// run executes the toolchain. Errors never propagate anywhere: the task has
// no caller, so failure is terminal for the attempt and observable only via
// the log and the status record.
func (r *Runner) run(dir string, st *Status) {
	defer r.locks.release(st.Project)

	log.Printf("[build] id=%s project=%s starting in %s", st.BuildID, st.Project, dir)

	st.State = StateRunning
	if err := writeStatus(dir, st); err != nil {
		log.Printf("[build] id=%s failed to record running state: %v", st.BuildID, err)
	}

	err := r.runToolchain(dir)

	now := time.Now().UTC()
	st.FinishedAt = &now
	if err != nil {
		st.State = StateFailed
		st.Error = err.Error()
		log.Printf("[build] id=%s project=%s failed: %v", st.BuildID, st.Project, err)
	} else {
		st.State = StateSucceeded
		log.Printf("[build] id=%s project=%s completed successfully", st.BuildID, st.Project)
	}

	if err := writeStatus(dir, st); err != nil {
		log.Printf("[build] id=%s failed to record final state: %v", st.BuildID, err)
	}
}

func (r *Runner) runToolchain(dir string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	out, err := os.OpenFile(filepath.Join(dir, logFile), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening build log: %w", err)
	}
	defer out.Close()

	steps := [][]string{
		{r.pipBin, "install", "setuptools", "wheel"},
		{r.pythonBin, "setup.py", "sdist", "bdist_wheel"},
	}

	for _, args := range steps {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Stdout = out
		cmd.Stderr = out

		if err := cmd.Run(); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("%s: build timed out after %s", args[0], r.timeout)
			}
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}

	return nil
}
