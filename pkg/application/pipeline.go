package application

import (
	"context"
	"time"

	"webarchive/pkg/dedup"
	"webarchive/pkg/domain/entity"
	"webarchive/pkg/domain/service"
	"webarchive/pkg/extract"
	"webarchive/pkg/filter"
	"webarchive/pkg/infrastructure/metrics"
	"webarchive/pkg/infrastructure/storage"

	"github.com/rs/zerolog"
)

// Pipeline runs the full extraction flow: validate → fetch → extract →
// resolve → filter → persist. Each stage fully consumes its input before
// the next begins.
type Pipeline struct {
	validator *service.Validator
	fetcher   service.ArchiveFetcher
	extractor *extract.Extractor
	resolver  service.HostResolver
	engine    *filter.Engine
	sink      *storage.Sink
	metrics   *metrics.Metrics
	dups      *dedup.RecordCounter
	fanout    *ObserverFanout
	formats   []string
	logger    zerolog.Logger
}

// Config wires the pipeline dependencies.
type Config struct {
	Validator *service.Validator
	Fetcher   service.ArchiveFetcher
	Extractor *extract.Extractor
	Resolver  service.HostResolver
	Engine    *filter.Engine
	Sink      *storage.Sink
	Metrics   *metrics.Metrics
	Dups      *dedup.RecordCounter
	Fanout    *ObserverFanout
	Formats   []string
	Logger    zerolog.Logger
}

// NewPipeline creates a pipeline from its assembled dependencies.
func NewPipeline(cfg Config) *Pipeline {
	fanout := cfg.Fanout
	if fanout == nil {
		fanout = NewObserverFanout()
	}
	return &Pipeline{
		validator: cfg.Validator,
		fetcher:   cfg.Fetcher,
		extractor: cfg.Extractor,
		resolver:  cfg.Resolver,
		engine:    cfg.Engine,
		sink:      cfg.Sink,
		metrics:   cfg.Metrics,
		dups:      cfg.Dups,
		fanout:    fanout,
		formats:   cfg.Formats,
		logger:    cfg.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// RegisterObserver adds a progress/discovery observer. Must be called
// before Run.
func (p *Pipeline) RegisterObserver(observer service.PipelineObserver) {
	p.fanout.Register(observer)
}

// Run executes one extraction for the raw domain input. Empty archive
// data and an empty post-resolution set are legitimate terminal states
// carried in the result's Outcome, not errors. Errors are limited to
// invalid input, exhausted fetch retries and cancellation.
func (p *Pipeline) Run(ctx context.Context, rawDomain string) (*entity.PipelineResult, error) {
	domain, err := p.validator.Validate(rawDomain)
	if err != nil {
		return nil, err
	}

	result := &entity.PipelineResult{
		Domain:      domain,
		Manifest:    make(map[string]string),
		ExtractedAt: time.Now(),
	}

	p.logger.Info().Str("domain", domain.String()).Msg("starting extraction")

	records, err := p.fetcher.Fetch(ctx, domain)
	if err != nil {
		return nil, err
	}
	result.Records = records
	result.Stats.RecordsFetched = int64(len(records))
	if p.dups != nil {
		result.Stats.DuplicateRecords = p.dups.Duplicates()
	}
	if p.metrics != nil {
		p.metrics.RecordsFetched.Add(float64(len(records)))
		p.metrics.DuplicateRecords.Add(float64(result.Stats.DuplicateRecords))
	}
	p.fanout.OnStatsUpdate(result.Stats)

	// No history for this domain: short-circuit without touching the
	// later stages.
	if len(records) == 0 {
		result.Outcome = entity.OutcomeNoData
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The raw dump is written before extraction, so it survives even
	// when nothing downstream does.
	if rawPath, err := p.sink.SaveRaw(domain, records); err != nil {
		p.logger.Error().Err(err).Msg("raw dump failed")
		result.Stats.SaveErrors++
		if p.metrics != nil {
			p.metrics.PersistenceErrors.Inc()
		}
	} else {
		result.Manifest[storage.FormatRaw] = rawPath
	}

	p.fanout.OnStageStart(entity.StageExtract, int64(len(records)))
	extracted := p.extractor.Extract(domain, records)
	p.fanout.OnStageEnd(entity.StageExtract)

	result.Stats.ParseSkips = extracted.Skipped
	result.Stats.OutOfScope = extracted.OutOfScope
	result.Stats.Extracted = int64(len(extracted.Hostnames))
	if p.metrics != nil {
		p.metrics.ParseSkips.Add(float64(extracted.Skipped))
		p.metrics.Extracted.Add(float64(len(extracted.Hostnames)))
	}
	for _, hostname := range extracted.Hostnames {
		p.fanout.OnSubdomain(hostname)
	}
	p.fanout.OnStatsUpdate(result.Stats)

	resolved, misses := p.resolver.Resolve(ctx, extracted.Hostnames)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Stats.Resolved = int64(len(resolved))
	result.Stats.ResolutionMisses = int64(misses)
	if p.metrics != nil {
		p.metrics.DNSHits.Add(float64(len(resolved)))
		p.metrics.DNSMisses.Add(float64(misses))
	}
	p.fanout.OnStatsUpdate(result.Stats)

	filtered := p.engine.Apply(resolved)
	result.Stats.FilteredOut = int64(len(resolved) - len(filtered))
	if p.metrics != nil {
		p.metrics.FilteredOut.Add(float64(result.Stats.FilteredOut))
	}
	p.fanout.OnStatsUpdate(result.Stats)

	// Nothing survived resolution or filtering: a reportable empty
	// result, with only the raw dump on disk.
	if len(filtered) == 0 {
		result.Outcome = entity.OutcomeNoSubdomains
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.fanout.OnStageStart(entity.StageSave, int64(len(p.formats)))
	manifest, saveErrs := p.sink.Save(domain, filtered, result.ExtractedAt, p.formats)
	p.fanout.OnStageEnd(entity.StageSave)

	for format, path := range manifest {
		result.Manifest[format] = path
	}
	result.Stats.SaveErrors += int64(len(saveErrs))
	if p.metrics != nil {
		p.metrics.FilesSaved.Add(float64(len(manifest)))
		p.metrics.PersistenceErrors.Add(float64(len(saveErrs)))
	}
	for _, saveErr := range saveErrs {
		p.logger.Error().Err(saveErr).Msg("output format failed")
	}

	result.Subdomains = filtered
	result.Outcome = entity.OutcomeCompleted
	p.fanout.OnStatsUpdate(result.Stats)

	p.logger.Info().
		Int("subdomains", len(filtered)).
		Int("formats", len(manifest)).
		Msg("extraction completed")

	return result, nil
}
