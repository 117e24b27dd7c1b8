package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

var (
	SnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pick_engine_snapshots_total", Help: "Market snapshots processed"},
		[]string{"sport"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pick_engine_signals_total", Help: "Signals detected by type"},
		[]string{"type"},
	)
	PicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pick_engine_picks_total", Help: "Picks generated by market and tier"},
		[]string{"market", "tier"},
	)
	TierChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pick_engine_tier_changes_total", Help: "Tier transitions by direction"},
		[]string{"direction"},
	)
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pick_engine_errors_total", Help: "Processing errors by stage"},
		[]string{"stage"},
	)
	EvaluationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pick_engine_evaluation_seconds",
			Help:    "Time to process one snapshot",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(SnapshotsTotal, SignalsTotal, PicksTotal, TierChangesTotal, ErrorsTotal, EvaluationSeconds)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveSnapshot(sport string) {
	if sport == "" {
		sport = "unknown"
	}
	SnapshotsTotal.WithLabelValues(sport).Inc()
}

func ObserveSignals(signals []models.Signal) {
	for _, sig := range signals {
		SignalsTotal.WithLabelValues(string(sig.Type)).Inc()
	}
}

func ObservePick(pick *models.Pick) {
	PicksTotal.WithLabelValues(string(pick.Market), string(pick.Tier)).Inc()
}

func ObserveTierChange(change models.TierChange) {
	direction := "demoted"
	if change.Promoted() {
		direction = "promoted"
	}
	TierChangesTotal.WithLabelValues(direction).Inc()
}

func ObserveError(stage string) {
	ErrorsTotal.WithLabelValues(stage).Inc()
}
