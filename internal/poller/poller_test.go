package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRun_AppliesResultsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu      sync.Mutex
		applied []int
		calls   atomic.Int32
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, Config{Key: "count", Interval: 5 * time.Millisecond, Immediate: true},
			func(context.Context) (int, error) { return int(calls.Add(1)), nil },
			func(n int, err error) {
				mu.Lock()
				defer mu.Unlock()
				applied = append(applied, n)
			})
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) >= 3
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(applied); i++ {
		assert.Greater(t, applied[i], applied[i-1])
	}
}

func TestRun_SkipsTicksWhileInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var (
		concurrent atomic.Int32
		maxSeen    atomic.Int32
		calls      atomic.Int32
	)

	go Run(ctx, Config{Key: "slow", Interval: time.Millisecond, Immediate: true},
		func(context.Context) (struct{}, error) {
			n := concurrent.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			calls.Add(1)
			<-release
			concurrent.Add(-1)
			return struct{}{}, nil
		},
		func(struct{}, error) {})

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	close(release)

	assert.Eventually(t, func() bool { return calls.Load() > 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestRun_SharedGroupPreventsOverlapAcrossPollers(t *testing.T) {
	group := NewGroup()
	assert.True(t, group.tryAcquire("GetAllBookings{}"))
	assert.False(t, group.tryAcquire("GetAllBookings{}"))
	assert.True(t, group.tryAcquire("GetAllUsers{}"))
	group.release("GetAllBookings{}")
	assert.True(t, group.tryAcquire("GetAllBookings{}"))
}

func TestRun_DiscardsResultsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	finish := make(chan struct{})
	var applied atomic.Bool

	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, Config{Key: "late", Interval: time.Hour, Immediate: true},
			func(context.Context) (int, error) {
				close(started)
				<-finish
				return 1, errors.New("late")
			},
			func(int, error) { applied.Store(true) })
	}()

	<-started
	cancel()
	<-done
	close(finish)

	time.Sleep(10 * time.Millisecond)
	assert.False(t, applied.Load())
}

func TestRun_WaitsForRunningApplyBeforeReturning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	applying := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, Config{Key: "apply", Interval: time.Hour, Immediate: true},
			func(context.Context) (int, error) { return 1, nil },
			func(int, error) {
				close(applying)
				<-release
			})
	}()

	<-applying
	cancel()
	select {
	case <-done:
		t.Fatal("Run returned while apply was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestRun_MetricsAreLabelledByName(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	key := `GetBookings{"userId":"u1"}`
	var applied atomic.Int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, Config{Key: key, Name: "GetBookingsLabel", Interval: time.Hour, Immediate: true},
			func(context.Context) (int, error) { return 1, nil },
			func(int, error) { applied.Add(1) })
	}()

	assert.Eventually(t, func() bool { return applied.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, float64(1), testutil.ToFloat64(ticksTotal.WithLabelValues("GetBookingsLabel", "applied")))
	assert.False(t, ticksTotal.DeleteLabelValues(key, "applied"))
}
