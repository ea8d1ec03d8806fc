package application

import (
	"context"
	"sync"
	"sync/atomic"
)

// networkLock arbitrates between the users of the active connection and a
// network switch. Users share it: the first one takes the underlying lock,
// the others only bump a counter, and the last one to leave gives it back.
// A switch takes the underlying lock exclusively.
type networkLock struct {
	// single slot, full while held.
	mu chan struct{}

	lock    sync.Mutex
	counter int
	// closed once the shared holders own mu.
	ready chan struct{}

	acquisitions atomic.Int64
	releases     atomic.Int64
}

func newNetworkLock() *networkLock {
	return &networkLock{mu: make(chan struct{}, 1)}
}

func (l *networkLock) acquireShared(ctx context.Context) error {
	l.lock.Lock()
	l.counter++
	if l.counter == 1 {
		ready := make(chan struct{})
		l.ready = ready
		go func() {
			l.mu <- struct{}{}
			l.acquisitions.Add(1)
			close(ready)
		}()
	}
	ready := l.ready
	l.lock.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.releaseShared()
		return ctx.Err()
	}
}

func (l *networkLock) releaseShared() {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.counter <= 0 {
		return
	}
	l.counter--
	if l.counter > 0 {
		return
	}

	ready := l.ready
	l.ready = nil
	select {
	case <-ready:
		l.unlock()
	default:
		// every holder gave up before the lock was taken.
		go func() {
			<-ready
			l.unlock()
		}()
	}
}

func (l *networkLock) lockExclusive(ctx context.Context) error {
	select {
	case l.mu <- struct{}{}:
		l.acquisitions.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *networkLock) unlockExclusive() {
	l.unlock()
}

func (l *networkLock) unlock() {
	<-l.mu
	l.releases.Add(1)
}

func (l *networkLock) sharedHolders() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.counter
}
