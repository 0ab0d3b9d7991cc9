package metrics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"autoapply/internal/models"
)

var (
	applicationsDesc = prometheus.NewDesc(
		"autoapply_applications",
		"Application counts by ledger status",
		[]string{"status"},
		nil,
	)
	avgFitScoreDesc = prometheus.NewDesc(
		"autoapply_avg_fit_score",
		"Average fit score across all tracked applications",
		nil,
		nil,
	)

	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_gate_decisions_total",
			Help: "Safety gate decisions by reason code",
		},
		[]string{"reason"},
	)
)

// StatsReader provides ledger statistics for the collector.
type StatsReader interface {
	GetStats(ctx context.Context) (*models.Stats, error)
}

// StatsCollector is a custom Prometheus collector that reads application
// statistics from the ledger on each scrape.
type StatsCollector struct {
	db StatsReader
}

// Describe sends the metric descriptors to the channel.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- applicationsDesc
	ch <- avgFitScoreDesc
}

// Collect queries the ledger and emits the current counts as gauges.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.db.GetStats(context.Background())
	if err != nil {
		slog.Error("failed to collect application stats", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(applicationsDesc, prometheus.GaugeValue, float64(stats.Pending), "pending")
	ch <- prometheus.MustNewConstMetric(applicationsDesc, prometheus.GaugeValue, float64(stats.Applied), "applied")
	ch <- prometheus.MustNewConstMetric(applicationsDesc, prometheus.GaugeValue, float64(stats.Denied), "denied")
	ch <- prometheus.MustNewConstMetric(avgFitScoreDesc, prometheus.GaugeValue, float64(stats.AvgFitScore))
}

var initOnce sync.Once

// Init registers the stats collector and the decision counter.
// Must be called once at startup.
func Init(db StatsReader) {
	initOnce.Do(func() {
		prometheus.MustRegister(&StatsCollector{db: db})
		prometheus.MustRegister(decisionsTotal)
	})
}

// RecordDecision counts one gate verdict by reason code.
func RecordDecision(reason string) {
	decisionsTotal.WithLabelValues(reason).Inc()
}
