package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSlidingWindow_AcceptsUpToMax(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewSlidingWindow(3, 5*time.Minute, clock.Now)

	for i := 0; i < 3; i++ {
		st := l.Check()
		require.True(t, st.Allowed, "call %d should be allowed", i+1)
		assert.Equal(t, 3-i-1, st.Remaining)
		clock.Advance(time.Second)
	}

	st := l.Check()
	assert.False(t, st.Allowed)
	assert.Equal(t, 0, st.Remaining)
	assert.Equal(t, 5*time.Minute, st.ResetIn)
	assert.Equal(t, 5, st.ResetMinutes())
}

func TestSlidingWindow_ResetRoundsUpToMinutes(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewSlidingWindow(1, 5*time.Minute, clock.Now)

	require.True(t, l.Check().Allowed)
	clock.Advance(3*time.Minute + 10*time.Second)

	st := l.Check()
	require.False(t, st.Allowed)
	assert.Equal(t, 2*time.Minute, st.ResetIn)
}

func TestSlidingWindow_RecoversAfterWindow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewSlidingWindow(50, 5*time.Minute, clock.Now)

	for i := 0; i < 50; i++ {
		require.True(t, l.Check().Allowed)
	}
	require.False(t, l.Check().Allowed)

	clock.Advance(5 * time.Minute)

	st := l.Check()
	assert.True(t, st.Allowed)
	assert.Equal(t, 49, st.Remaining)
}

func TestSlidingWindow_RejectedCallsAreNotRecorded(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewSlidingWindow(2, time.Minute, clock.Now)

	require.True(t, l.Check().Allowed)
	clock.Advance(30 * time.Second)
	require.True(t, l.Check().Allowed)

	for i := 0; i < 5; i++ {
		require.False(t, l.Check().Allowed)
	}

	// 第一个时间戳滑出后只空出一个名额
	clock.Advance(30 * time.Second)
	assert.True(t, l.Check().Allowed)
	assert.False(t, l.Check().Allowed)
}

func TestSlidingWindow_PeekDoesNotConsume(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewSlidingWindow(2, time.Minute, clock.Now)

	for i := 0; i < 5; i++ {
		st := l.Peek()
		assert.True(t, st.Allowed)
		assert.Equal(t, 2, st.Remaining)
	}

	require.True(t, l.Check().Allowed)
	assert.Equal(t, 1, l.Peek().Remaining)
}

func TestSlidingWindow_Disabled(t *testing.T) {
	t.Parallel()

	l := NewSlidingWindow(0, time.Minute, nil)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Check().Allowed)
	}
}

func TestSlidingWindow_ConcurrentCallersNeverOvershoot(t *testing.T) {
	t.Parallel()

	l := NewSlidingWindow(50, time.Hour, nil)

	var accepted int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check().Allowed {
				atomic.AddInt64(&accepted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), accepted)
}
