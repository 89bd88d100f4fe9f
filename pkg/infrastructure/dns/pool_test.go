package dns_test

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"webarchive/pkg/domain/entity"
	dnsinfra "webarchive/pkg/infrastructure/dns"

	"github.com/rs/zerolog"
)

// fakeLookuper resolves hostnames present in its answer map and fails
// everything else, tracking concurrency.
type fakeLookuper struct {
	answers map[string][]string
	delay   time.Duration

	mu      sync.Mutex
	active  int
	maxSeen int
	calls   int
}

func (f *fakeLookuper) Lookup(ctx context.Context, hostname string) ([]string, error) {
	f.mu.Lock()
	f.active++
	f.calls++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if ips, ok := f.answers[hostname]; ok {
		return ips, nil
	}
	return nil, fmt.Errorf("%s: NXDOMAIN", hostname)
}

func hs(names ...string) []entity.Hostname {
	out := make([]entity.Hostname, len(names))
	for i, n := range names {
		out[i] = entity.Hostname(n)
	}
	return out
}

func TestPoolPreservesInputOrder(t *testing.T) {
	resolver := &fakeLookuper{
		answers: map[string][]string{
			"a.example.com": {"192.0.2.1"},
			"c.example.com": {"192.0.2.2"},
			"e.example.com": {"192.0.2.3"},
		},
		delay: time.Millisecond,
	}

	pool := dnsinfra.NewPool(resolver, 8, 0, nil, zerolog.Nop())
	kept, misses := pool.Resolve(context.Background(),
		hs("a.example.com", "b.example.com", "c.example.com", "d.example.com", "e.example.com"))

	want := hs("a.example.com", "c.example.com", "e.example.com")
	if !reflect.DeepEqual(kept, want) {
		t.Errorf("Resolve = %v, want %v", kept, want)
	}
	if misses != 2 {
		t.Errorf("misses = %d, want 2", misses)
	}
}

func TestPoolBoundedConcurrency(t *testing.T) {
	resolver := &fakeLookuper{
		answers: map[string][]string{},
		delay:   5 * time.Millisecond,
	}

	var input []entity.Hostname
	for i := 0; i < 32; i++ {
		input = append(input, entity.Hostname(fmt.Sprintf("h%d.example.com", i)))
	}

	pool := dnsinfra.NewPool(resolver, 4, 0, nil, zerolog.Nop())
	pool.Resolve(context.Background(), input)

	if resolver.maxSeen > 4 {
		t.Errorf("observed %d concurrent lookups, want <= 4", resolver.maxSeen)
	}
	if resolver.calls != 32 {
		t.Errorf("calls = %d, want 32", resolver.calls)
	}
}

func TestPoolAllMissesYieldEmptyResult(t *testing.T) {
	resolver := &fakeLookuper{answers: map[string][]string{}}

	pool := dnsinfra.NewPool(resolver, 2, 0, nil, zerolog.Nop())
	kept, misses := pool.Resolve(context.Background(), hs("a.example.com", "b.example.com"))

	if len(kept) != 0 {
		t.Errorf("Resolve = %v, want empty", kept)
	}
	if misses != 2 {
		t.Errorf("misses = %d, want 2", misses)
	}
}

func TestPoolEmptyInput(t *testing.T) {
	pool := dnsinfra.NewPool(&fakeLookuper{}, 2, 0, nil, zerolog.Nop())
	kept, misses := pool.Resolve(context.Background(), nil)
	if kept != nil || misses != 0 {
		t.Errorf("Resolve(nil) = %v, %d; want nil, 0", kept, misses)
	}
}

func TestPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := &fakeLookuper{
		answers: map[string][]string{"a.example.com": {"192.0.2.1"}},
	}
	pool := dnsinfra.NewPool(resolver, 2, 0, nil, zerolog.Nop())
	kept, _ := pool.Resolve(ctx, hs("a.example.com", "b.example.com"))

	if len(kept) != 0 {
		t.Errorf("Resolve with cancelled context = %v, want empty", kept)
	}
}
