package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"yt-notes/shared/audio"
	"yt-notes/shared/config"
)

// Maintenance runs periodic housekeeping jobs while the server is up.
// Currently that means pruning audio workspaces left behind by crashed
// runs.
type Maintenance struct {
	schedule string
	tmpDir   string
	maxAge   time.Duration
	cron     *cron.Cron
}

func NewMaintenance(cfg *config.Config) *Maintenance {
	return &Maintenance{
		schedule: cfg.Maintenance.Schedule,
		tmpDir:   cfg.TmpDir,
		maxAge:   time.Duration(cfg.Maintenance.MaxWorkspaceAgeHours) * time.Hour,
		// Prevent overlapping runs
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

func (m *Maintenance) Start() error {
	_, err := m.cron.AddFunc(m.schedule, m.runOnce)
	if err != nil {
		return fmt.Errorf("failed to add maintenance cron job: %w", err)
	}

	log.Printf("Maintenance scheduler started with schedule: %s", m.schedule)
	m.cron.Start()
	return nil
}

func (m *Maintenance) Stop() {
	m.cron.Stop()
	log.Printf("Maintenance scheduler stopped")
}

func (m *Maintenance) runOnce() {
	removed, err := audio.PruneWorkspaces(m.tmpDir, m.maxAge)
	if err != nil {
		log.Printf("Workspace pruning failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d stale audio workspaces", removed)
	}
}
