// Package bloom provides the probabilistic pre-check of the crawl visited set.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter answers "definitely not seen" for normalized URLs. It is not safe
// for concurrent use; the crawl frontier guards it with its own lock.
type Filter struct {
	f     *bloom.BloomFilter
	added uint
}

// NewFilter returns a filter sized for expected URLs at the given false
// positive rate.
func NewFilter(expected uint, fpRate float64) *Filter {
	if expected == 0 {
		expected = 1
	}
	return &Filter{f: bloom.NewWithEstimates(expected, fpRate)}
}

// TestAndAdd adds key and reports whether it may have been added before.
// A false result is exact.
func (f *Filter) TestAndAdd(key string) bool {
	present := f.f.TestAndAddString(key)
	if !present {
		f.added++
	}
	return present
}

// Test reports whether key may have been added.
func (f *Filter) Test(key string) bool {
	return f.f.TestString(key)
}

// Added returns how many keys were added while reported absent.
func (f *Filter) Added() uint {
	return f.added
}
