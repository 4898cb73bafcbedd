package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iliyamo/event-seat-reservation/internal/repository"
)

// chanSource hands out one prepared channel, closed when ctx is done, and
// fails every later subscription.
type chanSource struct {
	ch    chan repository.ExpiredKey
	calls atomic.Int64
}

func (s *chanSource) Subscribe(ctx context.Context) (<-chan repository.ExpiredKey, error) {
	if s.calls.Add(1) == 1 {
		go func() {
			<-ctx.Done()
			close(s.ch)
		}()
		return s.ch, nil
	}
	return nil, errors.New("subscription unavailable")
}

// closedSource hands out channels that are already closed.
type closedSource struct{ calls atomic.Int64 }

func (s *closedSource) Subscribe(context.Context) (<-chan repository.ExpiredKey, error) {
	s.calls.Add(1)
	ch := make(chan repository.ExpiredKey)
	close(ch)
	return ch, nil
}

func TestReconcilerBacksOffWhenChannelCloses(t *testing.T) {
	f := newFixture(t, HoldConfig{HoldDuration: time.Second})
	src := &closedSource{}
	r := NewReconciler(src, f.store, f.metrics, nil)
	r.retryBase = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	// 20ms, 40ms and 80ms of backoff fit in the window, so at most four subscriptions
	if n := src.calls.Load(); n < 2 || n > 4 {
		t.Fatalf("subscribed %d times", n)
	}
}

func TestReconcilerHandle(t *testing.T) {
	f := newFixture(t, HoldConfig{HoldDuration: time.Second})
	ctx := context.Background()
	ev := f.event(t, 10)
	r := NewReconciler(nil, f.store, f.metrics, nil)

	if err := f.holds.CreateHold(ctx, "alice", ev.ID, "seatId-1"); err != nil {
		t.Fatalf("hold: %v", err)
	}

	// unrelated and live keys are left alone
	r.Handle(ctx, repository.ExpiredKey{Key: "lock:" + ev.ID + ":seatId-1"})
	r.Handle(ctx, repository.ExpiredKey{Key: repository.LeaseKey(ev.ID, "alice", "seatId-1")})
	if held, _ := f.holds.GetUserHolds(ctx, "alice", ev.ID); len(held) != 1 {
		t.Fatalf("live hold removed: %v", held)
	}

	f.mr.FastForward(2 * time.Second)
	r.Handle(ctx, repository.ExpiredKey{Key: repository.LeaseKey(ev.ID, "alice", "seatId-1")})
	if held, _ := f.holds.GetUserHolds(ctx, "alice", ev.ID); len(held) != 0 {
		t.Fatalf("expired hold still indexed: %v", held)
	}
	if got := testutil.ToFloat64(f.metrics.ExpiredTotal); got != 1 {
		t.Fatalf("expired counter = %v", got)
	}
}

func TestReconcilerRun(t *testing.T) {
	f := newFixture(t, HoldConfig{HoldDuration: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ev := f.event(t, 10)

	if err := f.holds.CreateHold(ctx, "alice", ev.ID, "seatId-2"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	f.mr.FastForward(2 * time.Second)

	src := &chanSource{ch: make(chan repository.ExpiredKey, 1)}
	r := NewReconciler(src, f.store, f.metrics, nil)
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	src.ch <- repository.ExpiredKey{Key: repository.LeaseKey(ev.ID, "alice", "seatId-2")}

	deadline := time.Now().Add(2 * time.Second)
	for {
		held, err := f.holds.GetUserHolds(context.Background(), "alice", ev.ID)
		if err != nil {
			t.Fatalf("user holds: %v", err)
		}
		if len(held) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("reconciler did not remove %v", held)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop on cancel")
	}
}

func TestSweeperKeepsLiveHolds(t *testing.T) {
	f := newFixture(t, HoldConfig{HoldDuration: 10 * time.Second})
	ctx := context.Background()
	ev := f.event(t, 10)

	for _, s := range []string{"seatId-1", "seatId-2"} {
		if err := f.holds.CreateHold(ctx, "alice", ev.ID, s); err != nil {
			t.Fatalf("hold: %v", err)
		}
	}
	f.mr.FastForward(5 * time.Second)
	if err := f.holds.RefreshHold(ctx, "alice", ev.ID, "seatId-2"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	f.mr.FastForward(6 * time.Second)

	sw := NewSweeper(f.store, f.metrics, nil, time.Minute)
	removed, err := sw.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}
	held, _ := f.holds.GetUserHolds(ctx, "alice", ev.ID)
	if len(held) != 1 || held[0] != "seatId-2" {
		t.Fatalf("unexpected index after sweep: %v", held)
	}
	if got := testutil.ToFloat64(f.metrics.SweptTotal); got != 1 {
		t.Fatalf("swept counter = %v", got)
	}
}
