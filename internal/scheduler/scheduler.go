// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rpggio/waypoint/internal/domain/project"
)

// ProjectLister lists project IDs to reconcile.
type ProjectLister interface {
	ListIDs(ctx context.Context, includeArchived bool) ([]string, error)
}

// ProgressUpdater recomputes a project's progress.
type ProgressUpdater interface {
	UpdateProjectProgress(ctx context.Context, projectID string) (*project.Project, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	projects ProjectLister
	progress ProgressUpdater
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a Scheduler. Jobs are added with the Add* methods.
func New(projects ProjectLister, progress ProgressUpdater, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		cron:     cron.New(),
		projects: projects,
		progress: progress,
		timeout:  time.Minute,
		logger:   logger,
	}
}

// AddProgressSweep schedules SweepProgress. An empty spec schedules nothing.
func (s *Scheduler) AddProgressSweep(spec string) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.SweepProgress(ctx); err != nil {
			s.logger.Error("progress sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling progress sweep %q: %w", spec, err)
	}
	return nil
}

// AddFunc schedules an arbitrary job.
func (s *Scheduler) AddFunc(spec, name string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("scheduling %s %q: %w", name, spec, err)
	}
	return nil
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// SweepProgress recomputes progress for every non-archived project and
// returns how many were processed, including projects whose progress was
// already current. A failing project is logged and skipped.
func (s *Scheduler) SweepProgress(ctx context.Context) (int, error) {
	ids, err := s.projects.ListIDs(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("listing projects: %w", err)
	}

	processed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if _, err := s.progress.UpdateProjectProgress(ctx, id); err != nil {
			// Archived between listing and update.
			if errors.Is(err, project.ErrArchived) || errors.Is(err, project.ErrNotFound) {
				continue
			}
			s.logger.Warn("progress update failed", "project_id", id, "error", err)
			continue
		}
		processed++
	}
	s.logger.Debug("progress sweep finished", "projects", len(ids), "processed", processed)
	return processed, nil
}
