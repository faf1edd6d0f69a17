package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the plinko settlement engine.
type Metrics struct {
	// --- Settlement ---
	GamesOpened    prometheus.Counter
	GamesResolved  *prometheus.CounterVec // branch: win, loss, degraded
	GamesRejected  *prometheus.CounterVec // phase, reason
	SettleDuration *prometheus.HistogramVec
	BallsPlayed    prometheus.Counter

	// --- Money ---
	VolumeTotal  prometheus.Counter
	FeesTotal    prometheus.Counter
	PayoutsTotal prometheus.Counter

	// --- House ---
	BankrollBalance prometheus.Gauge
	PendingRequests prometheus.Gauge

	// --- Oracle ---
	OracleRequests        prometheus.Counter
	OracleStillProcessing prometheus.Counter

	// --- Persistence ---
	PersistGamesWritten    prometheus.Counter
	PersistJournalsWritten prometheus.Counter
	PersistErrors          *prometheus.CounterVec
	PersistBatchDur        prometheus.Histogram

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	settleBuckets := []float64{
		0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
		0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		GamesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_games_opened_total",
			Help: "Games successfully opened (phase 1)",
		}),

		GamesResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "plinko_games_resolved_total",
			Help: "Games resolved (phase 2) by settlement branch",
		}, []string{"branch"}),

		GamesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "plinko_games_rejected_total",
			Help: "Settlement calls rejected before any state mutation",
		}, []string{"phase", "reason"}),

		SettleDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plinko_settle_duration_seconds",
			Help:    "Time to execute a settlement phase",
			Buckets: settleBuckets,
		}, []string{"phase"}),

		BallsPlayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_balls_played_total",
			Help: "Balls dropped across all resolved games",
		}),

		VolumeTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_volume_total",
			Help: "Total wagered amount accepted",
		}),

		FeesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_fees_total",
			Help: "Platform fees collected",
		}),

		PayoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_payouts_total",
			Help: "Amounts paid out to players",
		}),

		BankrollBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "plinko_bankroll_balance",
			Help: "Current pooled bankroll balance",
		}),

		PendingRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "plinko_pending_requests",
			Help: "Opened games awaiting oracle resolution",
		}),

		OracleRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_oracle_requests_total",
			Help: "Randomness requests issued to the oracle",
		}),

		OracleStillProcessing: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_oracle_still_processing_total",
			Help: "Resolution attempts that found the seed not yet fulfilled",
		}),

		PersistGamesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_persist_games_written_total",
			Help: "Game rows written to Postgres",
		}),

		PersistJournalsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plinko_persist_journals_written_total",
			Help: "Journal rows written to Postgres",
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "plinko_persist_errors_total",
			Help: "Persistence failures by kind",
		}, []string{"kind"}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "plinko_persist_batch_duration_seconds",
			Help:    "Time to flush one persistence batch",
			Buckets: prometheus.DefBuckets,
		}),

		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "plinko_query_requests_total",
			Help: "Query API requests",
		}, []string{"endpoint"}),

		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "plinko_query_errors_total",
			Help: "Query API failures",
		}, []string{"endpoint"}),
	}
}
