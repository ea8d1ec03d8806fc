package application

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimeSource struct {
	calls atomic.Int32
	fetch func() (int64, error)
}

func (f *fakeTimeSource) FetchServerTime(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.fetch()
}

func TestClockSyncer(t *testing.T) {
	t.Run("Offset", testClockOffset())
	t.Run("FailureResetsOffset", testClockFailure())
	t.Run("ResyncOnDrift", testClockResyncOnDrift())
	t.Run("DriftUsesWallClock", testClockDriftUsesWallClock())
}

func testClockOffset() func(*testing.T) {
	return func(t *testing.T) {
		local := time.UnixMilli(1_000_000)
		clock := NewClock()
		clock.now = func() time.Time { return local }

		source := &fakeTimeSource{
			fetch: func() (int64, error) { return 1_005_000, nil },
		}
		syncer := newClockSyncer(clock, source)
		syncer.now = clock.now

		syncer.sync(context.Background())
		require.Equal(t, int64(5000), clock.Offset())
		require.Equal(t, int64(1_005_000), clock.NowMs())
		require.Equal(t, uint32(1005), clock.NowSec())
	}
}

func testClockFailure() func(*testing.T) {
	return func(t *testing.T) {
		clock := NewClock()
		clock.setOffset(1234)

		source := &fakeTimeSource{
			fetch: func() (int64, error) { return 0, fmt.Errorf("unreachable") },
		}
		syncer := newClockSyncer(clock, source)

		syncer.sync(context.Background())
		require.Zero(t, clock.Offset())
	}
}

func testClockResyncOnDrift() func(*testing.T) {
	return func(t *testing.T) {
		var jump atomic.Int64
		now := func() time.Time {
			return time.Now().Add(time.Duration(jump.Load()))
		}

		clock := NewClock()
		source := &fakeTimeSource{
			fetch: func() (int64, error) { return now().UnixMilli(), nil },
		}
		syncer := newClockSyncer(clock, source)
		syncer.now = now
		syncer.checkInterval = 10 * time.Millisecond
		syncer.maxDrift = time.Second

		syncer.start(context.Background())
		defer syncer.stop()
		require.Equal(t, int32(2), source.calls.Load())

		jump.Store(int64(time.Hour))
		require.Eventually(t, func() bool {
			return source.calls.Load() >= 3
		}, 2*time.Second, 10*time.Millisecond)
	}
}

func testClockDriftUsesWallClock() func(*testing.T) {
	return func(t *testing.T) {
		syncer := newClockSyncer(NewClock(), &fakeTimeSource{})

		// readings with a monotonic part print it as "m=".
		require.Contains(t, time.Now().String(), "m=")
		require.NotContains(t, syncer.wallNow().String(), "m=")
	}
}
