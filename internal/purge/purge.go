package purge

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Jeomhps/coffee-api/internal/coffees"
	"github.com/Jeomhps/coffee-api/internal/lock"
)

// Purger hard-deletes coffees whose tombstone is older than Retention.
type Purger struct {
	Repo      coffees.Repository
	Retention time.Duration

	// now is swapped in tests.
	now func() time.Time
}

func (p Purger) RunOnce(ctx context.Context) (int64, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}

	cutoff := now().Add(-p.Retention)
	n, err := p.Repo.PurgeDeleted(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge deleted coffees")
	}
	return n, nil
}

// Scheduler runs a Purger on a fixed interval, one replica at a time.
type Scheduler struct {
	Purger   Purger
	Locker   lock.Locker
	Interval time.Duration
	Log      logrus.FieldLogger
}

// RunOnce takes the lock and runs one pass. A lock held elsewhere is not an
// error; the pass is skipped.
func (s Scheduler) RunOnce(ctx context.Context) {
	l, err := s.Locker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.Log.WithError(err).Debug("skip purge run")
		} else if ctx.Err() == nil {
			s.Log.WithError(err).Warn("skip purge run")
		}
		return
	}
	defer l.Release()

	n, err := s.Purger.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.Log.WithError(err).Error("purge error")
		}
		return
	}
	if n > 0 {
		s.Log.WithField("count", n).Info("purged deleted coffees")
	} else {
		s.Log.Debug("no deleted coffees to purge")
	}
}

// Start runs the loop in the background. The returned stop cancels it and
// blocks until any pass in flight has finished, so the repository can be
// closed right after.
func (s Scheduler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// Run ticks until ctx is cancelled.
func (s Scheduler) Run(ctx context.Context) {
	s.Log.WithField("interval", s.Interval.String()).Info("starting purge loop")
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("purge loop exiting gracefully")
			return
		case <-t.C:
			s.RunOnce(ctx)
		}
	}
}
