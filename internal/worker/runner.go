// Package worker runs the scheduled full-catalog price sweep, replacing the
// external cron/workflow driver for standalone deployments.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/vinoprice/pricesync/internal/syncer"
)

type Runner struct {
	Syncer *syncer.Service
	Logger *log.Logger

	// Interval between full sweeps.
	Interval time.Duration

	PageSize    int
	Concurrency int
}

func (r Runner) Run(ctx context.Context) error {
	if r.Syncer == nil {
		return errors.New("syncer is nil")
	}
	if r.Interval <= 0 {
		r.Interval = 24 * time.Hour
	}
	if r.PageSize <= 0 {
		r.PageSize = 10
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	// one immediate pass
	if err := r.sweep(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				return err
			}
		}
	}
}

func (r Runner) sweep(ctx context.Context) error {
	cursor := ""
	pages := 0

	for {
		report, err := r.Syncer.SyncPage(ctx, r.PageSize, cursor, r.Concurrency)
		if err != nil {
			return err
		}

		pages++
		r.logf("sweep %s page %d: processed=%d updated=%d skipped=%d failed=%d",
			report.RunID, pages, report.Processed, report.Updated, report.Skipped, report.Failed)

		if !report.HasMore {
			return nil
		}
		cursor = report.NextCursor

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
