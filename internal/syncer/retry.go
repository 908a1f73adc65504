package syncer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"pkt.systems/pslog"

	"github.com/pintyy/kaggle-sync/internal/domain"
	"github.com/pintyy/kaggle-sync/internal/progress"
)

const maxRetryInterval = 10 * time.Second

// retry runs fn under exponential backoff with jitter, bounded by
// opts.MaxAttempts. Only transient failures are retried; authentication and
// permanent failures escalate on the first occurrence. It returns how many
// attempts were made together with the final error.
func (s *Syncer) retry(ctx context.Context, op string, ref domain.NotebookRef, fn func() error) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		err := fn()
		if err != nil && !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.InitialBackoff
	bo.MaxInterval = maxRetryInterval
	bo.MaxElapsedTime = 0 // bounded by attempts, not wall clock

	notify := func(err error, delay time.Duration) {
		pslog.Ctx(ctx).Warn("retrying",
			"op", op,
			"ref", ref.Ref(),
			"attempt", attempts,
			"delay", delay,
			"err", err,
		)
		s.sink.Emit(progress.Event{
			Type:    progress.EventRetryScheduled,
			Time:    time.Now(),
			Ref:     ref,
			Op:      op,
			Attempt: attempts,
			Delay:   delay,
			Detail:  err.Error(),
		})
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.opts.MaxAttempts-1)), ctx),
		notify,
	)
	return attempts, err
}
