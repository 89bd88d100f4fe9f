package cli

import (
	"fmt"

	"webarchive/pkg/application"
	"webarchive/pkg/dedup"
	"webarchive/pkg/domain/service"
	"webarchive/pkg/extract"
	"webarchive/pkg/filter"
	"webarchive/pkg/infrastructure/archive"
	"webarchive/pkg/infrastructure/dns"
	"webarchive/pkg/infrastructure/metrics"
	"webarchive/pkg/infrastructure/storage"

	"github.com/rs/zerolog"
)

// Assembler assembles all components for the application.
type Assembler struct {
	config *Config
}

// NewAssembler creates a new assembler.
func NewAssembler(config *Config) *Assembler {
	return &Assembler{config: config}
}

// AssemblePipeline wires the extraction pipeline with all dependencies.
// The returned metrics set is live regardless of whether the exporter is
// enabled.
func (a *Assembler) AssemblePipeline(logger zerolog.Logger) (*application.Pipeline, *metrics.Metrics, error) {
	spec, err := a.config.FilterSpec()
	if err != nil {
		return nil, nil, fmt.Errorf("building filter: %w", err)
	}

	fanout := application.NewObserverFanout()
	m := metrics.New()

	dups := dedup.NewRecordCounter(uint(a.config.MaxResults), a.config.BloomFilterFP)

	fetcher := archive.NewFetcher(archive.Config{
		APIURL:    a.config.APIURL,
		UserAgent: a.config.UserAgent,
		Limit:     a.config.MaxResults,
		Timeout:   a.config.TimeoutDuration,
		Retry: archive.RetryPolicy{
			MaxAttempts: a.config.MaxRetries,
			BaseDelay:   a.config.RetryDelayDuration,
			Backoff:     a.config.RetryBackoff,
		},
	}, dups, fanout, logger)

	resolver := dns.NewResolver(dns.Config{
		Servers: a.config.DNSServers,
		Timeout: a.config.DNSTimeoutDuration,
	}, logger)
	pool := dns.NewPool(resolver, a.config.NumWorkers, a.config.DNSQPS, fanout, logger)

	extractor := extract.NewExtractor(logger)
	if a.config.NoScope {
		extractor = extract.NewUnscopedExtractor(logger)
	}

	pipeline := application.NewPipeline(application.Config{
		Validator: service.NewValidator(),
		Fetcher:   fetcher,
		Extractor: extractor,
		Resolver:  pool,
		Engine:    filter.NewEngine(spec, logger),
		Sink:      storage.NewSink(a.config.OutputDir, logger),
		Metrics:   m,
		Dups:      dups,
		Fanout:    fanout,
		Formats:   a.config.Formats,
		Logger:    logger,
	})

	return pipeline, m, nil
}
