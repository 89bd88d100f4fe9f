package archive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"webarchive/pkg/dedup"
	"webarchive/pkg/domain/entity"
	"webarchive/pkg/domain/service"

	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single CDX line; archived URLs can be very long.
const maxLineBytes = 1 << 20

// RetryPolicy is the explicit retry budget applied by Fetch.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Backoff     float64
}

// Delay returns the sleep before the given retry (1-based), growing by
// the backoff factor.
func (p RetryPolicy) Delay(retry int) time.Duration {
	delay := float64(p.BaseDelay)
	for i := 1; i < retry; i++ {
		delay *= p.Backoff
	}
	return time.Duration(delay)
}

// Config holds archive fetcher configuration.
type Config struct {
	APIURL    string
	UserAgent string
	Limit     int
	Timeout   time.Duration
	Retry     RetryPolicy
}

// Fetcher queries the web-archive CDX index for the historical URLs of a
// domain. Implements service.ArchiveFetcher.
type Fetcher struct {
	client   *http.Client
	config   Config
	dups     *dedup.RecordCounter
	observer service.PipelineObserver
	logger   zerolog.Logger
}

// NewFetcher creates an archive fetcher. dups and observer may be nil.
func NewFetcher(config Config, dups *dedup.RecordCounter, observer service.PipelineObserver, logger zerolog.Logger) *Fetcher {
	if observer == nil {
		observer = service.NopObserver{}
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config:   config,
		dups:     dups,
		observer: observer,
		logger:   logger.With().Str("component", "archive").Logger(),
	}
}

// Fetch retrieves all URL records under *.<domain>/*, deduplicated by URL
// key server-side and capped at the configured limit. Transport failures
// and non-2xx statuses are retried per the retry policy; the final
// failure surfaces as *entity.FetchError. An empty body is a valid empty
// result, not an error.
func (f *Fetcher) Fetch(ctx context.Context, domain entity.Domain) ([]entity.ArchiveRecord, error) {
	queryURL := f.queryURL(domain)

	f.observer.OnStageStart(entity.StageFetch, -1)
	defer f.observer.OnStageEnd(entity.StageFetch)

	var lastErr error
	for attempt := 1; attempt <= f.config.Retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.config.Retry.Delay(attempt - 1)
			f.logger.Warn().
				Int("attempt", attempt-1).
				Dur("retry_in", delay).
				Err(lastErr).
				Msg("fetch attempt failed, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		records, err := f.fetchOnce(ctx, queryURL)
		if err == nil {
			f.logger.Info().Int("records", len(records)).Msg("fetch succeeded")
			return records, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, &entity.FetchError{
		URL:      queryURL,
		Attempts: f.config.Retry.MaxAttempts,
		Err:      lastErr,
	}
}

// queryURL builds the CDX query for the domain.
func (f *Fetcher) queryURL(domain entity.Domain) string {
	params := url.Values{}
	params.Set("url", fmt.Sprintf("*.%s/*", domain))
	params.Set("output", "txt")
	params.Set("fl", "original")
	params.Set("collapse", "urlkey")
	params.Set("limit", strconv.Itoa(f.config.Limit))
	return f.config.APIURL + "?" + params.Encode()
}

// fetchOnce performs a single attempt, scanning the body line by line in
// one pass and reporting progress per record.
func (f *Fetcher) fetchOnce(ctx context.Context, queryURL string) ([]entity.ArchiveRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("archive API returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var records []entity.ArchiveRecord
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if f.dups != nil {
			f.dups.Observe(line)
		}
		records = append(records, entity.ArchiveRecord(line))
		f.observer.OnStageProgress(entity.StageFetch, int64(len(records)))
	}
	if err := scanner.Err(); err != nil {
		// A body that cannot be read as text lines is a fetch failure.
		return nil, fmt.Errorf("reading archive response: %w", err)
	}

	return records, nil
}
