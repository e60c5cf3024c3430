// Package bloom provides the probabilistic prefilter the ingestion
// pipeline uses to deduplicate discovered event URLs. A negative test
// proves a URL has never been ingested, so the caller can skip the store
// lookups entirely; a positive test only means "maybe seen" and must be
// confirmed against the store.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a set-membership prefilter over ingested source URLs.
// Filter is safe for concurrent use by multiple goroutines.
type Filter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Seed creates a filter preloaded with known URLs, sized for at least
// min expected entries so the caller can keep adding during a run.
func Seed(urls []string, min uint, fpRate float64) *Filter {
	n := uint(len(urls))
	if n < min {
		n = min
	}
	f := NewFilter(n, fpRate)
	for _, u := range urls {
		f.Add(u)
	}
	return f
}

// Add records a URL in the filter.
func (f *Filter) Add(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.AddString(url)
}

// Test reports whether the URL might already be ingested.
// False positives are possible; false negatives are not.
func (f *Filter) Test(url string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.f.TestString(url)
}

// EstimatedCount returns the approximate number of URLs in the filter.
func (f *Filter) EstimatedCount() uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint(f.f.ApproximatedSize())
}
