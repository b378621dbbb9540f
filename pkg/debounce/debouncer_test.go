package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 30 * time.Millisecond

func TestDebouncerRunsOnlyLastTrigger(t *testing.T) {
	d := New(testDelay)

	var calls atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() {
			calls.Add(1)
			last.Store(int32(i))
		})
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDelay)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	d := New(testDelay)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	require.True(t, d.Pending())

	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel(), "second cancel has nothing to cancel")

	time.Sleep(3 * testDelay)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncerStopRejectsNewTriggers(t *testing.T) {
	d := New(testDelay)
	d.Stop()

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(3 * testDelay)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Pending())
}

func TestFuncReadsLatestValueAtFireTime(t *testing.T) {
	var mu sync.Mutex
	var got []string
	f := NewFunc(testDelay, func(v string) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	for _, v := range []string{"1", "10", "100", "1000", "10000"} {
		f.Call(v)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"10000"}, got)
	assert.Equal(t, "10000", f.Latest())
}
