package archive_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"webarchive/pkg/dedup"
	"webarchive/pkg/domain/entity"
	"webarchive/pkg/infrastructure/archive"

	"github.com/rs/zerolog"
)

func testConfig(apiURL string) archive.Config {
	return archive.Config{
		APIURL:    apiURL,
		UserAgent: "webarchive-test/1.0",
		Limit:     10000,
		Timeout:   5 * time.Second,
		Retry: archive.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			Backoff:     2.0,
		},
	}
}

func TestFetchQueryParameters(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		fmt.Fprintln(w, "https://www.example.com/")
	}))
	defer srv.Close()

	f := archive.NewFetcher(testConfig(srv.URL), nil, nil, zerolog.Nop())
	if _, err := f.Fetch(context.Background(), "example.com"); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	q := got.URL.Query()
	want := map[string]string{
		"url":      "*.example.com/*",
		"output":   "txt",
		"fl":       "original",
		"collapse": "urlkey",
		"limit":    "10000",
	}
	for key, value := range want {
		if q.Get(key) != value {
			t.Errorf("query %s = %q, want %q", key, q.Get(key), value)
		}
	}
	if ua := got.Header.Get("User-Agent"); ua != "webarchive-test/1.0" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestFetchSplitsNonEmptyLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "https://a.example.com/\n\nhttps://b.example.com/x\n   \nhttps://c.example.com/\n")
	}))
	defer srv.Close()

	f := archive.NewFetcher(testConfig(srv.URL), nil, nil, zerolog.Nop())
	records, err := f.Fetch(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	want := []entity.ArchiveRecord{
		"https://a.example.com/",
		"https://b.example.com/x",
		"https://c.example.com/",
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("Fetch = %v, want %v", records, want)
	}
}

func TestFetchEmptyBodyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := archive.NewFetcher(testConfig(srv.URL), nil, nil, zerolog.Nop())
	records, err := f.Fetch(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Fetch of empty body failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Fetch = %v, want empty", records)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "https://www.example.com/")
	}))
	defer srv.Close()

	f := archive.NewFetcher(testConfig(srv.URL), nil, nil, zerolog.Nop())
	records, err := f.Fetch(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Fetch = %v, want 1 record", records)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := archive.NewFetcher(testConfig(srv.URL), nil, nil, zerolog.Nop())
	_, err := f.Fetch(context.Background(), "example.com")
	if err == nil {
		t.Fatalf("Fetch succeeded, want FetchError")
	}

	var fetchErr *entity.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error is %T, want *entity.FetchError", err)
	}
	if fetchErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", fetchErr.Attempts)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestFetchCancelledBetweenRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry.BaseDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	f := archive.NewFetcher(cfg, nil, nil, zerolog.Nop())
	_, err := f.Fetch(ctx, "example.com")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFetchCountsDuplicateRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "https://a.example.com/\nhttps://a.example.com/\nhttps://b.example.com/\n")
	}))
	defer srv.Close()

	dups := dedup.NewRecordCounter(1000, 0.001)
	f := archive.NewFetcher(testConfig(srv.URL), dups, nil, zerolog.Nop())
	records, err := f.Fetch(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// Duplicates are counted, never dropped.
	if len(records) != 3 {
		t.Errorf("Fetch = %d records, want 3", len(records))
	}
	if dups.Duplicates() != 1 {
		t.Errorf("Duplicates = %d, want 1", dups.Duplicates())
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := archive.RetryPolicy{MaxAttempts: 4, BaseDelay: time.Second, Backoff: 2.0}

	testCases := []struct {
		retry    int
		expected time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
	}
	for _, tc := range testCases {
		if got := p.Delay(tc.retry); got != tc.expected {
			t.Errorf("Delay(%d) = %s, want %s", tc.retry, got, tc.expected)
		}
	}
}
