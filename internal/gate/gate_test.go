package gate

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireUpToCapacity(t *testing.T) {
	g := New(2)

	rel1, ok := g.Acquire(context.Background())
	require.True(t, ok)
	rel2, ok := g.Acquire(context.Background())
	require.True(t, ok)
	assert.Equal(t, 2, g.InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok = g.Acquire(ctx)
	assert.False(t, ok, "third acquire must wait and hit the deadline")

	rel1()
	rel3, ok := g.Acquire(context.Background())
	require.True(t, ok, "released slot is grantable again")

	rel2()
	rel3()
	assert.True(t, g.Balanced())
	assert.Equal(t, 2, g.HighWater())
}

func TestZeroCapacityDeclinesImmediately(t *testing.T) {
	g := New(0)
	start := time.Now()
	_, ok := g.Acquire(context.Background())
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	g = New(-3)
	_, ok = g.Acquire(context.Background())
	assert.False(t, ok)
}

func TestAcquireHonoursCancel(t *testing.T) {
	g := New(1)
	rel, ok := g.Acquire(context.Background())
	require.True(t, ok)
	defer rel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := g.Acquire(ctx)
		done <- ok
	}()
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("acquire did not observe cancellation")
	}
}

func TestDoubleReleasePanics(t *testing.T) {
	g := New(1)
	rel, ok := g.Acquire(context.Background())
	require.True(t, ok)
	rel()
	assert.Panics(t, func() { rel() })
}

func TestNeverOverAdmits(t *testing.T) {
	const (
		capacity = 3
		tasks    = 50
	)
	g := New(capacity)
	rng := rand.New(rand.NewSource(7))
	delays := make([]time.Duration, tasks)
	for i := range delays {
		delays[i] = time.Duration(rng.Intn(3)) * time.Millisecond
	}

	var wg sync.WaitGroup
	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			rel, ok := g.Acquire(context.Background())
			if !ok {
				return
			}
			defer rel()
			if cur := g.InFlight(); cur > capacity {
				t.Errorf("in-flight %d exceeds capacity %d", cur, capacity)
			}
			time.Sleep(d)
		}(delays[i])
	}
	wg.Wait()

	assert.LessOrEqual(t, g.HighWater(), capacity)
	assert.Equal(t, tasks, g.Acquires(), "every task eventually got a slot")
	assert.True(t, g.Balanced(), "acquires and releases must balance after the batch drains")
	assert.Equal(t, 0, g.InFlight())
}
