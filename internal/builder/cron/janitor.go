// Package cronjob sweeps build-status records that can no longer make
// progress. A process restart leaves behind "pending" or "running" records
// whose build task died with the process; the sweep marks them failed so the
// status endpoint does not report a build as running forever.
package cronjob

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wheelforge/wheelforge-backend/internal/builder"
)

type Janitor struct {
	dataDir string
	maxAge  time.Duration
	cron    *cron.Cron
}

// NewJanitor creates a sweeper for the given data root. maxAge should exceed
// the build timeout so an in-flight build is never swept.
func NewJanitor(dataDir string, maxAge time.Duration) *Janitor {
	return &Janitor{
		dataDir: dataDir,
		maxAge:  maxAge,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start runs one sweep immediately, then every 5 minutes.
func (j *Janitor) Start() {
	j.Sweep()

	_, err := j.cron.AddFunc("0 */5 * * * *", j.Sweep)
	if err != nil {
		log.Printf("Failed to create janitor cron job: %v", err)
		return
	}

	log.Println("Janitor started (sweeping stale builds every 5 minutes)")
	j.cron.Start()
}

func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Sweep marks abandoned pending/running records as failed.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.dataDir)
	if err != nil {
		log.Printf("[janitor] cannot read data dir: %v", err)
		return
	}

	cutoff := time.Now().UTC().Add(-j.maxAge)

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(j.dataDir, e.Name())

		st, err := builder.ReadStatus(dir)
		if err != nil {
			continue
		}
		if st.State != builder.StatePending && st.State != builder.StateRunning {
			continue
		}
		if st.StartedAt.After(cutoff) {
			continue
		}

		if err := builder.MarkAbandoned(dir, st); err != nil {
			log.Printf("[janitor] project=%s: %v", st.Project, err)
			continue
		}
		log.Printf("[janitor] marked stale build as failed: project=%s id=%s", st.Project, st.BuildID)
	}
}
