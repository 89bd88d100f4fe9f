package dedup

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// RecordCounter tracks how many archive records the server-side
// collapse=urlkey deduplication let through more than once. It is purely
// observational: records are counted, never dropped, so a bloom false
// positive only overstates the duplicate count slightly.
type RecordCounter struct {
	filter     *bloom.BloomFilter
	mu         sync.Mutex
	duplicates int64
}

// NewRecordCounter creates a counter sized for n expected records with
// the given false positive rate.
func NewRecordCounter(n uint, fp float64) *RecordCounter {
	return &RecordCounter{filter: bloom.NewWithEstimates(n, fp)}
}

// Observe records one raw line and reports whether it was seen before.
func (c *RecordCounter) Observe(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := c.filter.TestAndAdd([]byte(line))
	if seen {
		c.duplicates++
	}
	return seen
}

// Duplicates returns the number of repeated lines observed so far.
func (c *RecordCounter) Duplicates() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duplicates
}

// Reset clears the counter and the underlying filter.
func (c *RecordCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.ClearAll()
	c.duplicates = 0
}
