// Package reaper removes abandoned chunk sessions and spooled uploads from
// the temp namespace on a cron schedule.
package reaper

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper deletes temp files older than maxAge.
type Sweeper interface {
	Sweep(maxAge time.Duration, now time.Time) (int, error)
}

type Reaper struct {
	sweeper Sweeper
	maxAge  time.Duration
	cron    *cron.Cron
	now     func() time.Time
	logger  *slog.Logger
}

func New(sweeper Sweeper, maxAge time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		sweeper: sweeper,
		maxAge:  maxAge,
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
		logger:  logger,
	}
}

// RunOnce performs a single sweep and returns the number of files removed.
func (r *Reaper) RunOnce() int {
	startTime := time.Now()

	removed, err := r.sweeper.Sweep(r.maxAge, r.now())
	if err != nil {
		r.logger.Error("Temp cleanup finished with errors",
			"error", err.Error(),
			"files_removed", removed,
			"duration_ms", time.Since(startTime).Milliseconds())
		return removed
	}

	if removed > 0 {
		r.logger.Info("Completed temp cleanup",
			"files_removed", removed,
			"duration_ms", time.Since(startTime).Milliseconds())
	}
	return removed
}

// Start schedules sweeps using a six-field cron spec (seconds first).
func (r *Reaper) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce() }); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("Temp reaper started", "schedule", schedule, "max_age", r.maxAge.String())
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("Temp reaper stopped")
}
