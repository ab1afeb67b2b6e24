package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrozenNow(t *testing.T) {
	now := FrozenNow(BaseTime)
	assert.Equal(t, BaseTime, now())
	assert.Equal(t, BaseTime, now(), "frozen time never advances")
}

func TestSteppingNow(t *testing.T) {
	now := SteppingNow(BaseTime, time.Second)
	assert.Equal(t, BaseTime, now())
	assert.Equal(t, BaseTime.Add(time.Second), now())
	assert.Equal(t, BaseTime.Add(2*time.Second), now())
}

func TestSteppingNowConcurrent(t *testing.T) {
	now := SteppingNow(BaseTime, time.Millisecond)

	const calls = 100
	var wg sync.WaitGroup
	seen := make(chan time.Time, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		assert.False(t, unique[ts], "duplicate timestamp %s", ts)
		unique[ts] = true
	}
	assert.Len(t, unique, calls)
}
