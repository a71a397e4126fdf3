package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lobby server's Prometheus instruments. A nil *Metrics
// is valid and records nothing, so callers never need nil checks.
type Metrics struct {
	PendingGames     prometheus.Gauge
	GamesCreated     *prometheus.CounterVec
	GamesLaunched    *prometheus.CounterVec
	LaunchFailures   prometheus.Counter
	DeliveryFailures prometheus.Counter
	TickDuration     prometheus.Histogram
}

// NewMetrics registers the lobby instruments on reg.
//
// Precondition: reg must not be nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PendingGames: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_pending_games",
			Help: "Number of games currently between creation and launch completion.",
		}),
		GamesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_games_created_total",
			Help: "Games accepted into the pending set, by game type.",
		}, []string{"game_type"}),
		GamesLaunched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_games_launched_total",
			Help: "Games that completed launch, by game type.",
		}, []string{"game_type"}),
		LaunchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "lobby_launch_failures_total",
			Help: "Games retired because the host manager could not provide a session.",
		}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "lobby_delivery_failures_total",
			Help: "Per-recipient notification sends that failed.",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lobby_tick_duration_seconds",
			Help:    "Wall time of each scheduler tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObservePendingGames sets the pending-games gauge.
func (m *Metrics) ObservePendingGames(n int) {
	if m == nil {
		return
	}
	m.PendingGames.Set(float64(n))
}

// GameCreated counts an accepted creation request.
func (m *Metrics) GameCreated(gameType string) {
	if m == nil {
		return
	}
	m.GamesCreated.WithLabelValues(gameType).Inc()
}

// GameLaunched counts a completed launch.
func (m *Metrics) GameLaunched(gameType string) {
	if m == nil {
		return
	}
	m.GamesLaunched.WithLabelValues(gameType).Inc()
}

// LaunchFailed counts a game retired on a host-session failure.
func (m *Metrics) LaunchFailed() {
	if m == nil {
		return
	}
	m.LaunchFailures.Inc()
}

// DeliveryFailed counts one failed recipient send.
func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.DeliveryFailures.Inc()
}

// ObserveTick records one tick duration in seconds.
func (m *Metrics) ObserveTick(seconds float64) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(seconds)
}
