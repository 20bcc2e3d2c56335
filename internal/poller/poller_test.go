package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func counting(calls *atomic.Int64) FetchFunc[int64] {
	return func(ctx context.Context) (int64, error) {
		return calls.Add(1), nil
	}
}

func TestStartFetchesImmediately(t *testing.T) {
	var calls atomic.Int64
	p := New("orders", time.Hour, counting(&calls), quietLog())
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return p.Snapshot().HasData }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), p.Snapshot().Data)
	assert.True(t, p.Running())
}

func TestTicksRepeatOnInterval(t *testing.T) {
	var calls atomic.Int64
	p := New("queue", 10*time.Millisecond, counting(&calls), quietLog())
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestOverlappingFetchKeepsNewerResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var n atomic.Int64
	fetch := func(ctx context.Context) (string, error) {
		if n.Add(1) == 1 {
			close(started)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}
	p := New("orders", time.Hour, fetch, quietLog())

	type outcome struct {
		snap    Snapshot[string]
		applied bool
	}
	slow := make(chan outcome, 1)
	go func() {
		s, ok := p.Refresh(context.Background())
		slow <- outcome{s, ok}
	}()
	<-started

	snap, applied := p.Refresh(context.Background())
	require.True(t, applied)
	assert.Equal(t, "fresh", snap.Data)
	assert.Equal(t, uint64(2), snap.Seq)

	close(release)
	got := <-slow
	assert.False(t, got.applied, "older fetch completing later must be discarded")
	assert.Equal(t, "fresh", got.snap.Data)
	assert.Equal(t, "fresh", p.Snapshot().Data)
}

func TestFailureKeepsLastGoodData(t *testing.T) {
	fail := false
	boom := errors.New("backend down")
	p := New("orders", time.Hour, func(ctx context.Context) ([]int, error) {
		if fail {
			return nil, boom
		}
		return []int{1, 2}, nil
	}, quietLog())

	snap, _ := p.Refresh(context.Background())
	require.NoError(t, snap.Err)

	fail = true
	snap, applied := p.Refresh(context.Background())
	assert.True(t, applied)
	assert.ErrorIs(t, snap.Err, boom)
	assert.True(t, snap.HasData)
	assert.Equal(t, []int{1, 2}, snap.Data)

	fail = false
	snap, _ = p.Refresh(context.Background())
	assert.NoError(t, snap.Err)
}

func TestStaleFailureDoesNotMaskNewerData(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var n atomic.Int64
	p := New("orders", time.Hour, func(ctx context.Context) (int, error) {
		if n.Add(1) == 1 {
			close(started)
			<-release
			return 0, errors.New("timeout")
		}
		return 7, nil
	}, quietLog())

	done := make(chan bool, 1)
	go func() {
		_, ok := p.Refresh(context.Background())
		done <- ok
	}()
	<-started
	p.Refresh(context.Background())
	close(release)

	assert.False(t, <-done)
	assert.NoError(t, p.Snapshot().Err)
	assert.Equal(t, 7, p.Snapshot().Data)
}

func TestStopWaitsForInFlightFetches(t *testing.T) {
	var inFlight, total atomic.Int64
	p := New("orders", 5*time.Millisecond, func(ctx context.Context) (int, error) {
		inFlight.Add(1)
		defer inFlight.Add(-1)
		total.Add(1)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return 1, nil
		}
	}, quietLog())

	p.Start(context.Background())
	for i := 0; i < 5; i++ {
		p.RefreshNow()
	}
	p.Stop()

	assert.Zero(t, inFlight.Load(), "no fetch may outlive Stop")
	after := total.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, total.Load(), "no fetch may start after Stop")
	assert.False(t, p.Running())

	p.RefreshNow()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, total.Load(), "RefreshNow on a stopped poller is a no-op")
}

func TestStopIsIdempotentAndRestartable(t *testing.T) {
	var calls atomic.Int64
	p := New("orders", time.Hour, counting(&calls), quietLog())
	p.Stop()

	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	p.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	p.Stop()
}

func TestSubscribeReceivesLatestAndClosesOnStop(t *testing.T) {
	var calls atomic.Int64
	p := New("queue", time.Hour, counting(&calls), quietLog())
	ch, cancel := p.Subscribe()
	defer cancel()

	p.Start(context.Background())
	first := <-ch
	assert.Equal(t, int64(1), first.Data)

	// Two results land before the subscriber reads; only the newest remains.
	p.Refresh(context.Background())
	p.Refresh(context.Background())
	latest := <-ch
	assert.Equal(t, int64(3), latest.Data)

	p.Stop()
	_, open := <-ch
	assert.False(t, open)
}

func TestSubscribeAfterDataGetsCurrentSnapshot(t *testing.T) {
	var calls atomic.Int64
	p := New("queue", time.Hour, counting(&calls), quietLog())
	p.Refresh(context.Background())

	ch, cancel := p.Subscribe()
	got := <-ch
	assert.Equal(t, int64(1), got.Data)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestConcurrentRefreshesApplyMonotonically(t *testing.T) {
	var calls atomic.Int64
	p := New("orders", time.Hour, counting(&calls), quietLog())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Refresh(context.Background())
		}()
	}
	wg.Wait()

	snap := p.Snapshot()
	assert.LessOrEqual(t, snap.Seq, uint64(20))
	assert.True(t, snap.HasData)
}
