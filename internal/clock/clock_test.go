package clock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickMonotonic(t *testing.T) {
	c := New()
	first := c.Tick()
	second := c.Tick()
	assert.Less(t, first, second)
}

func TestTickStartsAtZero(t *testing.T) {
	c := New()
	assert.Equal(t, uint64(0), c.Tick())
	assert.Equal(t, uint64(1), c.Tick())
}

func TestNowDoesNotAdvance(t *testing.T) {
	c := New()
	c.Tick()
	before := c.Now()
	after := c.Now()
	assert.Equal(t, before, after)
}

func TestObserveAdvancesPastRemote(t *testing.T) {
	c := New()
	c.Observe(10)
	assert.GreaterOrEqual(t, c.Now(), uint64(11))
}

func TestObserveNeverRewinds(t *testing.T) {
	c := New()
	for i := 0; i < 20; i++ {
		c.Tick()
	}
	before := c.Now()
	c.Observe(3)
	assert.Equal(t, before, c.Now())
}

// concurrent Tick calls never hand out the same value twice, so no two
// events on one replica share a timestamp (the ordering half of C1 is
// covered by TestTickMonotonic).
func TestConcurrentTicksAreUnique(t *testing.T) {
	c := New()
	const n = 200
	seen := make(chan uint64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			seen <- c.Tick()
		}()
	}
	wg.Wait()
	close(seen)

	values := make(map[uint64]bool)
	for v := range seen {
		assert.False(t, values[v], "duplicate tick value %d", v)
		values[v] = true
	}
	assert.Len(t, values, n)
}
