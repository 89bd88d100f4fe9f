package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds the pipeline counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RecordsFetched    prometheus.Counter
	DuplicateRecords  prometheus.Counter
	ParseSkips        prometheus.Counter
	Extracted         prometheus.Counter
	DNSHits           prometheus.Counter
	DNSMisses         prometheus.Counter
	FilteredOut       prometheus.Counter
	FilesSaved        prometheus.Counter
	PersistenceErrors prometheus.Counter
}

// New creates the metric set.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "webarchive",
			Name:      name,
			Help:      help,
		})
		m.registry.MustRegister(c)
		return c
	}

	m.RecordsFetched = counter("records_fetched_total", "Archive records received.")
	m.DuplicateRecords = counter("duplicate_records_total", "Records the server-side collapse let through more than once.")
	m.ParseSkips = counter("parse_skips_total", "Records dropped because they could not be parsed as URLs.")
	m.Extracted = counter("hostnames_extracted_total", "Unique hostnames extracted.")
	m.DNSHits = counter("dns_hits_total", "Hostnames with at least one address record.")
	m.DNSMisses = counter("dns_misses_total", "Hostnames dropped by DNS validation.")
	m.FilteredOut = counter("filtered_out_total", "Hostnames removed by user filters.")
	m.FilesSaved = counter("files_saved_total", "Output files written.")
	m.PersistenceErrors = counter("persistence_errors_total", "Output formats that failed to write.")

	return m
}

// Serve exposes /metrics on addr until the context is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics exporter listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn().Err(err).Msg("metrics exporter stopped")
		}
	}()
}
