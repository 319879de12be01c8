// Package metrics exports run metrics for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "partnersync"

// Registry holds the gauges describing the last sync run.
type Registry struct {
	reg             *prometheus.Registry
	LastRunTime     prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
	DurationSec     prometheus.Gauge
	Pages           prometheus.Gauge
	Customers       prometheus.Gauge
	Partners        prometheus.Gauge
	CacheHits       prometheus.Gauge
	GeocodeRequests prometheus.Gauge
	NoGeocodeResult prometheus.Gauge
	Skipped         *prometheus.GaugeVec
}

// NewRegistry creates a registry with all run gauges registered.
func NewRegistry() *Registry {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	r := &Registry{
		reg:             prometheus.NewRegistry(),
		LastRunTime:     gauge("last_run_timestamp_seconds", "Unix time the last sync run finished."),
		LastRunSuccess:  gauge("last_run_success", "1 if the last sync run succeeded, 0 otherwise."),
		DurationSec:     gauge("last_run_duration_seconds", "Duration of the last sync run."),
		Pages:           gauge("last_run_pages", "Customer pages fetched by the last run."),
		Customers:       gauge("last_run_customers", "Customers scanned by the last run."),
		Partners:        gauge("last_run_partners", "Partners in the last snapshot."),
		CacheHits:       gauge("last_run_cache_hits", "Addresses resolved from the geocode cache."),
		GeocodeRequests: gauge("last_run_geocode_requests", "Addresses resolved by the geocoding API."),
		NoGeocodeResult: gauge("last_run_no_geocode_result", "Partners dropped because their address did not resolve."),
		Skipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_skipped",
			Help:      "Customers not listed by the last run, by reason.",
		}, []string{"reason"}),
	}

	r.reg.MustRegister(r.LastRunTime, r.LastRunSuccess, r.DurationSec, r.Pages, r.Customers,
		r.Partners, r.CacheHits, r.GeocodeRequests, r.NoGeocodeResult, r.Skipped)
	return r
}

// Observe records the outcome of a run.
func (r *Registry) Observe(stats *model.RunStats, runErr error) {
	r.LastRunTime.Set(float64(stats.FinishedAt.Unix()))
	if runErr == nil {
		r.LastRunSuccess.Set(1)
	} else {
		r.LastRunSuccess.Set(0)
	}
	r.DurationSec.Set(stats.Duration().Seconds())
	r.Pages.Set(float64(stats.Pages))
	r.Customers.Set(float64(stats.Customers))
	r.Partners.Set(float64(stats.Partners))
	r.CacheHits.Set(float64(stats.CacheHits))
	r.GeocodeRequests.Set(float64(stats.Geocoded))
	r.NoGeocodeResult.Set(float64(stats.Skipped[model.SkipNoGeocode]))

	r.Skipped.Reset()
	for _, reason := range SkipReasons {
		r.Skipped.WithLabelValues(string(reason)).Set(float64(stats.Skipped[reason]))
	}
}

// SkipReasons lists every reason exported, so absent reasons report zero.
var SkipReasons = []model.SkipReason{
	model.SkipIneligible,
	model.SkipSuppressed,
	model.SkipMissingLocation,
	model.SkipNoGeocode,
	model.SkipDuplicate,
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced with a rename so the collector never reads a partial file.
func (r *Registry) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
