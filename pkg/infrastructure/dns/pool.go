package dns

import (
	"context"
	"sync"

	"webarchive/pkg/domain/entity"
	"webarchive/pkg/domain/service"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HostLookuper is the single-lookup dependency of the pool.
type HostLookuper interface {
	Lookup(ctx context.Context, hostname string) ([]string, error)
}

// Pool validates hostnames concurrently over a bounded worker pool.
// Results are re-ordered by original input index before being returned,
// so the output is deterministic regardless of lookup completion order.
// Implements service.HostResolver.
type Pool struct {
	resolver HostLookuper
	workers  int
	limiter  *rate.Limiter
	observer service.PipelineObserver
	logger   zerolog.Logger
}

// NewPool creates a resolution pool with the given concurrency. qps > 0
// caps the aggregate lookup rate; observer may be nil.
func NewPool(resolver HostLookuper, workers int, qps float64, observer service.PipelineObserver, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	var limiter *rate.Limiter
	if qps > 0 {
		limiter = rate.NewLimiter(rate.Limit(qps), 1)
	}
	if observer == nil {
		observer = service.NopObserver{}
	}
	return &Pool{
		resolver: resolver,
		workers:  workers,
		limiter:  limiter,
		observer: observer,
		logger:   logger.With().Str("component", "dns").Logger(),
	}
}

// Resolve keeps the hostnames with at least one address record,
// preserving input order. Per-lookup failures drop the hostname and are
// never fatal; cancellation drains the remaining work.
func (p *Pool) Resolve(ctx context.Context, hostnames []entity.Hostname) ([]entity.Hostname, int) {
	if len(hostnames) == 0 {
		return nil, 0
	}

	p.observer.OnStageStart(entity.StageResolve, int64(len(hostnames)))
	defer p.observer.OnStageEnd(entity.StageResolve)

	jobs := make(chan int)
	resolved := make([]bool, len(hostnames))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed int64

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ok := p.lookup(ctx, hostnames[i])

				mu.Lock()
				resolved[i] = ok
				completed++
				done := completed
				mu.Unlock()

				p.observer.OnStageProgress(entity.StageResolve, done)
			}
		}()
	}

	for i := range hostnames {
		select {
		case <-ctx.Done():
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	var kept []entity.Hostname
	misses := 0
	for i, hostname := range hostnames {
		if resolved[i] {
			kept = append(kept, hostname)
		} else {
			misses++
		}
	}

	p.logger.Info().
		Int("in", len(hostnames)).
		Int("resolved", len(kept)).
		Int("misses", misses).
		Msg("resolution finished")

	return kept, misses
}

// lookup performs one rate-limited lookup; any failure means drop.
func (p *Pool) lookup(ctx context.Context, hostname entity.Hostname) bool {
	if ctx.Err() != nil {
		return false
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return false
		}
	}

	ips, err := p.resolver.Lookup(ctx, hostname.String())
	if err != nil {
		p.logger.Debug().Str("hostname", hostname.String()).Err(err).Msg("lookup miss")
		return false
	}
	return len(ips) > 0
}
