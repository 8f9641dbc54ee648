package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/libdoc/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("https://example.com/page1"))
	assert.False(t, f.TestAndAdd("https://example.com/page1"))
	assert.True(t, f.Test("https://example.com/page1"))
	assert.True(t, f.TestAndAdd("https://example.com/page1"))
	assert.False(t, f.Test("https://example.com/page2"))
	assert.Equal(t, uint(1), f.Added())
}

func TestFilter_ZeroCapacity(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(0, 0.01)

	assert.False(t, f.TestAndAdd("https://example.com/"))
	assert.True(t, f.Test("https://example.com/"))
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		n      = 10000
		fpRate = 0.01
	)

	f := bloom.NewFilter(n, fpRate)
	for i := range n {
		f.TestAndAdd(fmt.Sprintf("https://example.com/added/%d", i))
	}

	falsePositives := 0
	for i := range n {
		if f.Test(fmt.Sprintf("https://example.com/other/%d", i)) {
			falsePositives++
		}
	}

	// Allow three times the configured rate to keep the test stable.
	assert.Less(t, float64(falsePositives)/n, fpRate*3)
}
