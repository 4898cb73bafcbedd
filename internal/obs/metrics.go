package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors for hold, refresh and reserve
// outcomes, operation latency and hold expiry bookkeeping.
type Metrics struct {
	HoldTotal      *prometheus.CounterVec // result=success|not_found|quota|unavailable|conflict|error
	RefreshTotal   *prometheus.CounterVec // result=success|not_found|forbidden|error
	ReserveTotal   *prometheus.CounterVec // result=success|not_found|forbidden|conflict|error
	OpLatencyMS    *prometheus.HistogramVec
	ExpiredTotal   prometheus.Counter     // lease expirations reconciled into the index
	ReconcileError prometheus.Counter
	SweptTotal     prometheus.Counter // stale index entries removed by the sweeper
	LockReleaseErr prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.  Tests pass
// a fresh prometheus.NewRegistry(); main passes prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HoldTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_hold_total",
				Help: "Total createHold attempts by result",
			},
			[]string{"result"},
		),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_hold_refresh_total",
				Help: "Total refreshHold attempts by result",
			},
			[]string{"result"},
		),
		ReserveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_reserve_total",
				Help: "Total reserveSeat attempts by result",
			},
			[]string{"result"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seat_op_latency_ms",
				Help:    "Latency of seat operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms .. ~2048ms
			},
			[]string{"op"},
		),
		ExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seat_hold_expired_total",
			Help: "Lease expirations removed from hold indexes by the reconciler",
		}),
		ReconcileError: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seat_hold_reconcile_errors_total",
			Help: "Expiry notifications that could not be reconciled",
		}),
		SweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seat_hold_swept_total",
			Help: "Stale hold index entries removed by the periodic sweep",
		}),
		LockReleaseErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seat_lock_release_errors_total",
			Help: "Reservation lock releases that failed or found the lease already expired",
		}),
	}

	reg.MustRegister(
		m.HoldTotal,
		m.RefreshTotal,
		m.ReserveTotal,
		m.OpLatencyMS,
		m.ExpiredTotal,
		m.ReconcileError,
		m.SweptTotal,
		m.LockReleaseErr,
	)

	return m
}
