package service

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/obs"
)

// Sweeper periodically drops hold index entries whose lease is gone.  It
// catches what the reconciler misses while disconnected or when the server
// does not publish expirations at all.
type Sweeper struct {
	holds    HoldStore
	metrics  *obs.Metrics
	log      hclog.Logger
	interval time.Duration
}

// NewSweeper returns a Sweeper running every interval.
func NewSweeper(holds HoldStore, m *obs.Metrics, log hclog.Logger, interval time.Duration) *Sweeper {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{holds: holds, metrics: m, log: log, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	start := time.Now()
	removed, err := s.SweepOnce(ctx)
	if err != nil && ctx.Err() == nil {
		s.log.Error("hold index sweep failed", "removed", removed, "error", err)
		return
	}
	if removed > 0 {
		s.log.Info("hold index sweep", "removed", removed, "duration_ms", time.Since(start).Milliseconds())
	}
}

// SweepOnce scans every hold index and removes members whose lease no
// longer exists.  It returns how many entries were removed before any
// error.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	removed := 0
	err := s.holds.ScanHoldIndexes(ctx, func(idx model.HoldIndex) error {
		seats, err := s.holds.UserHolds(ctx, idx.UserID, idx.EventID)
		if err != nil {
			return err
		}
		for _, seatID := range seats {
			ok, err := s.holds.RemoveIfExpired(ctx, idx.UserID, idx.EventID, seatID)
			if err != nil {
				return err
			}
			if ok {
				removed++
				s.metrics.SweptTotal.Inc()
			}
		}
		return nil
	})
	if err != nil {
		return removed, storeErr("sweep hold indexes", err)
	}
	return removed, nil
}
