package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Clock is the local clock corrected by the offset from the server time.
type Clock struct {
	offset atomic.Int64
	now    func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Now returns the corrected time.
func (c *Clock) Now() time.Time {
	return c.now().Add(time.Duration(c.offset.Load()) * time.Millisecond)
}

// NowMs returns the corrected unix time in milliseconds.
func (c *Clock) NowMs() int64 {
	return c.Now().UnixMilli()
}

// NowSec returns the corrected unix time in seconds.
func (c *Clock) NowSec() uint32 {
	return uint32(c.Now().Unix())
}

// Offset returns the offset in milliseconds.
func (c *Clock) Offset() int64 {
	return c.offset.Load()
}

func (c *Clock) setOffset(offset int64) {
	c.offset.Store(offset)
}

// clockSyncer keeps the offset of a Clock updated. It syncs on start and
// every time the wall clock jumps by more than clockMaxDrift.
type clockSyncer struct {
	clock  *Clock
	source ports.TimeSource

	timeout       time.Duration
	checkInterval time.Duration
	maxDrift      time.Duration
	now           func() time.Time

	quit     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newClockSyncer(clock *Clock, source ports.TimeSource) *clockSyncer {
	return &clockSyncer{
		clock:         clock,
		source:        source,
		timeout:       clockSyncTimeout,
		checkInterval: clockCheckInterval,
		maxDrift:      clockMaxDrift,
		now:           time.Now,
		quit:          make(chan struct{}),
	}
}

func (s *clockSyncer) start(ctx context.Context) {
	// The first response is often slower because of the tls handshake.
	s.sync(ctx)
	s.sync(ctx)

	s.wg.Add(1)
	go s.watchDrift(s.wallNow())
}

func (s *clockSyncer) stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.wg.Wait()
	})
}

// wallNow strips the monotonic reading, so that steps of the system clock
// show up when comparing two readings.
func (s *clockSyncer) wallNow() time.Time {
	return s.now().Round(0)
}

func (s *clockSyncer) watchDrift(last time.Time) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			now := s.wallNow()
			drift := now.Sub(last) - s.checkInterval
			if drift < 0 {
				drift = -drift
			}
			last = now
			if drift > s.maxDrift {
				log.Debugf("clock drifted by %s, resyncing", drift)
				s.sync(context.Background())
				last = s.wallNow()
			}
		}
	}
}

func (s *clockSyncer) sync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sentAt := s.now().UnixMilli()
	serverTime, err := s.source.FetchServerTime(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to sync clock")
		s.clock.setOffset(0)
		return
	}
	receivedAt := s.now().UnixMilli()

	offset := serverTime - (sentAt+receivedAt)/2
	s.clock.setOffset(offset)
	log.Debugf("clock offset: %dms", offset)
}
