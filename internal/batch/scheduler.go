// Package batch runs the sync job repeatedly on a cron schedule.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"pkt.systems/pslog"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

// Scheduler drives repeated runs of a job on a cron schedule.
type Scheduler struct {
	schedule cron.Schedule
	expr     string
}

// New parses expr and returns a scheduler for it.
func New(expr string) (*Scheduler, error) {
	sched, err := ParseCron(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &Scheduler{schedule: sched, expr: expr}, nil
}

// ParseCron parses a five-field cron expression or a descriptor like @hourly.
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}

// Next returns the first tick after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run invokes job once immediately and then at every cron tick until the
// context is canceled. A failed run is logged and the schedule keeps going,
// except for authentication failures: those would fail every future tick
// the same way, so the loop stops and returns the error.
func (s *Scheduler) Run(ctx context.Context, job func(context.Context) error) error {
	if err := job(ctx); err != nil {
		if domain.IsAuth(err) {
			return err
		}
		pslog.Ctx(ctx).Warn("scheduled sync failed", "err", err)
	}

	for {
		next := s.schedule.Next(time.Now())
		pslog.Ctx(ctx).Info("next sync scheduled", "cron", s.expr, "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := job(ctx); err != nil {
			if domain.IsAuth(err) {
				return err
			}
			pslog.Ctx(ctx).Warn("scheduled sync failed", "err", err)
		}
	}
}
