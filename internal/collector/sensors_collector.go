package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sensorsCollector exposes the latest poll result to Prometheus. It does
// not run the command itself; the poller feeds it through Observe.
type sensorsCollector struct {
	reading                *prometheus.Desc
	metrics                *prometheus.Desc
	chipsSkipped           *prometheus.Desc
	scrapeDuration         *prometheus.Desc
	scrapeCollectorSuccess *prometheus.Desc
	cacheAge               *prometheus.Desc

	logger *slog.Logger

	mu                 sync.RWMutex
	cachedMetrics      []prometheus.Metric
	lastMetrics        float64
	lastChipsSkipped   float64
	lastSuccess        float64
	lastScrapeDuration float64
	lastRefreshTime    time.Time
}

func NewSensorsCollector(logger *slog.Logger) *sensorsCollector {
	const namespace = "sensors"

	return &sensorsCollector{
		reading: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "reading"),
			"Latest *_input reading reported by the sensors command", []string{"key"}, nil),
		metrics: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "metrics"),
			"Number of readings in the latest sample", nil, nil),
		chipsSkipped: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "chips_skipped"),
			"Number of chips left out of the latest sample because they failed to parse", nil, nil),
		scrapeDuration: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "scrape_duration_seconds"),
			"Time it took to run the sensors command and parse its output", nil, nil),
		scrapeCollectorSuccess: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "collector_success"),
			"Whether the latest poll produced output with no skipped chips", nil, nil),
		cacheAge: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "cache_age_seconds"),
			"Age of the latest sample with output", nil, nil),
		logger: logger,
	}
}

func (collector *sensorsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.reading
	ch <- collector.metrics
	ch <- collector.chipsSkipped
	ch <- collector.scrapeDuration
	ch <- collector.scrapeCollectorSuccess
	ch <- collector.cacheAge
}

func (collector *sensorsCollector) Collect(ch chan<- prometheus.Metric) {
	collector.mu.RLock()
	cachedMetrics := append([]prometheus.Metric{}, collector.cachedMetrics...)
	lastMetrics := collector.lastMetrics
	lastChipsSkipped := collector.lastChipsSkipped
	lastScrapeDuration := collector.lastScrapeDuration
	lastSuccess := collector.lastSuccess
	lastRefreshTime := collector.lastRefreshTime
	collector.mu.RUnlock()

	for _, metric := range cachedMetrics {
		ch <- metric
	}

	cacheAge := 0.0
	if !lastRefreshTime.IsZero() {
		cacheAge = time.Since(lastRefreshTime).Seconds()
	}

	ch <- prometheus.MustNewConstMetric(collector.metrics, prometheus.GaugeValue, lastMetrics)
	ch <- prometheus.MustNewConstMetric(collector.chipsSkipped, prometheus.GaugeValue, lastChipsSkipped)
	ch <- prometheus.MustNewConstMetric(collector.scrapeDuration, prometheus.GaugeValue, lastScrapeDuration)
	ch <- prometheus.MustNewConstMetric(collector.scrapeCollectorSuccess, prometheus.GaugeValue, lastSuccess)
	ch <- prometheus.MustNewConstMetric(collector.cacheAge, prometheus.GaugeValue, cacheAge)
}

// Observe replaces the cached readings. An empty command output keeps the
// previous readings and only marks the poll as failed.
func (collector *sensorsCollector) Observe(_ context.Context, result PollResult) {
	collector.mu.Lock()
	defer collector.mu.Unlock()

	collector.lastScrapeDuration = result.Duration.Seconds()
	collector.lastChipsSkipped = float64(result.SkippedChips)

	if result.EmptyOutput {
		collector.lastSuccess = 0
		collector.logger.Debug("Sensors output empty, keeping previous readings")
		return
	}

	metrics := make([]prometheus.Metric, 0, len(result.Sample))
	for _, metric := range result.Sample {
		metrics = append(metrics, prometheus.MustNewConstMetric(collector.reading, prometheus.GaugeValue, metric.Value, metric.Key))
	}

	collector.cachedMetrics = metrics
	collector.lastMetrics = float64(len(result.Sample))
	collector.lastRefreshTime = result.Time
	collector.lastSuccess = 1
	if result.Err != nil {
		collector.lastSuccess = 0
	}
}
