package service

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/iliyamo/event-seat-reservation/internal/obs"
	"github.com/iliyamo/event-seat-reservation/internal/repository"
)

// Reconciler removes expired leases from their owner's hold index as the
// store reports the expirations.
type Reconciler struct {
	source  ExpirySource
	holds   HoldStore
	metrics *obs.Metrics
	log     hclog.Logger

	retryBase time.Duration
}

// NewReconciler returns a Reconciler; call Run in its own goroutine.
func NewReconciler(source ExpirySource, holds HoldStore, m *obs.Metrics, log hclog.Logger) *Reconciler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Reconciler{source: source, holds: holds, metrics: m, log: log, retryBase: time.Second}
}

// Run consumes expiry notifications until ctx is cancelled.  When the
// subscription fails or its channel closes it resubscribes with
// exponential backoff; the delay only resets after a subscription has
// delivered a notification.  Notifications lost while disconnected are
// left to the sweeper.
func (r *Reconciler) Run(ctx context.Context) {
	backoff := r.retryBase
	wait := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
		return true
	}
	for {
		events, err := r.source.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Warn("expiry subscribe failed", "error", err, "retry_in", backoff)
			if !wait() {
				return
			}
			continue
		}
		r.log.Debug("expiry subscription established")
		for ev := range events {
			backoff = r.retryBase
			r.Handle(ctx, ev)
		}
		if ctx.Err() != nil {
			return
		}
		r.log.Warn("expiry subscription closed; resubscribing", "retry_in", backoff)
		if !wait() {
			return
		}
	}
}

// Handle processes one notification.  Keys other than leases are ignored.
func (r *Reconciler) Handle(ctx context.Context, ev repository.ExpiredKey) {
	eventID, userID, seatID, ok := repository.ParseLeaseKey(ev.Key)
	if !ok {
		return
	}
	removed, err := r.holds.RemoveIfExpired(ctx, userID, eventID, seatID)
	if err != nil {
		r.metrics.ReconcileError.Inc()
		r.log.Error("reconcile expired hold", "key", ev.Key, "error", err)
		return
	}
	if removed {
		r.metrics.ExpiredTotal.Inc()
		r.log.Trace("expired hold removed from index", "user_id", userID, "event_id", eventID, "seat_id", seatID)
	}
}
