package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

const (
	subscriptionKindWallet = "wallet"
	subscriptionKindToken  = "token"
)

type subscriptionDeps struct {
	connection ConnectionService
	engine     ports.WalletEngine
	clock      *Clock
	metrics    *stats.Metrics
	interval   time.Duration
}

// contractSubscription runs the polling loop shared by wallet and token
// subscriptions.
type contractSubscription struct {
	address string
	kind    string
	deps    subscriptionDeps
	poll    func(ctx context.Context, first bool) error

	interval   atomic.Int64
	intervalCh chan struct{}
	skipCh     chan struct{}

	// held during a poll and during Use.
	pollLock sync.Mutex
	polled   bool

	ctx       context.Context
	cancel    context.CancelFunc
	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
}

func newContractSubscription(
	address, kind string, deps subscriptionDeps,
) *contractSubscription {
	ctx, cancel := context.WithCancel(context.Background())
	s := &contractSubscription{
		address:    address,
		kind:       kind,
		deps:       deps,
		intervalCh: make(chan struct{}, 1),
		skipCh:     make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	interval := deps.interval
	if interval <= 0 {
		interval = DefaultBackgroundPollingInterval
	}
	s.interval.Store(int64(interval))
	return s
}

func (s *contractSubscription) Address() string {
	return s.address
}

// Start begins the polling loop.
func (s *contractSubscription) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run()
	})
}

// Stop cancels the polling loop and waits for it to return. It's idempotent.
func (s *contractSubscription) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.cancel()
		if s.started.Load() {
			<-s.done
		}
		log.Debugf("%s subscription for %s stopped", s.kind, s.address)
	})
}

// SetPollingInterval changes the polling interval. An in-flight wait is
// shortened to the new interval, never extended.
func (s *contractSubscription) SetPollingInterval(interval time.Duration) {
	if interval <= 0 || time.Duration(s.interval.Load()) == interval {
		return
	}
	s.interval.Store(int64(interval))
	select {
	case s.intervalCh <- struct{}{}:
	default:
	}
}

func (s *contractSubscription) PollingInterval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SkipRefreshTimer makes the next poll fire immediately.
func (s *contractSubscription) SkipRefreshTimer() {
	select {
	case s.skipCh <- struct{}{}:
	default:
	}
}

// PrepareReliablePolling refreshes the state synchronously, so that the
// outcome of a message sent right after is found by the next poll.
func (s *contractSubscription) PrepareReliablePolling(ctx context.Context) error {
	s.pollLock.Lock()
	defer s.pollLock.Unlock()

	return s.pollLocked(ctx)
}

// Use runs fn while no poll is in progress.
func (s *contractSubscription) Use(fn func() error) error {
	s.pollLock.Lock()
	defer s.pollLock.Unlock()

	return fn()
}

func (s *contractSubscription) run() {
	defer close(s.done)

	for {
		s.pollLock.Lock()
		if err := s.pollLocked(s.ctx); err != nil && s.ctx.Err() == nil {
			log.WithError(err).Debugf("%s subscription poll for %s failed", s.kind, s.address)
		}
		s.pollLock.Unlock()

		if !s.wait() {
			return
		}
	}
}

func (s *contractSubscription) pollLocked(ctx context.Context) error {
	first := !s.polled
	err := s.poll(ctx, first)
	if err != nil {
		s.deps.metrics.IncPolls(s.kind, "failure")
		return err
	}
	s.polled = true
	s.deps.metrics.IncPolls(s.kind, "success")
	return nil
}

func (s *contractSubscription) wait() bool {
	started := time.Now()
	timer := time.NewTimer(s.PollingInterval())
	defer timer.Stop()

	for {
		select {
		case <-s.quit:
			return false
		case <-s.skipCh:
			return true
		case <-timer.C:
			return true
		case <-s.intervalCh:
			remaining := s.PollingInterval() - time.Since(started)
			if remaining <= 0 {
				return true
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(remaining)
		}
	}
}

// fetchNewTransactions returns the transactions of address with lt greater
// than knownLt, from the one with lt headLt backwards. It pages until knownLt
// or the beginning of the history is reached.
func fetchNewTransactions(
	ctx context.Context, transport ports.Transport,
	address string, headLt, knownLt uint64,
) ([]domain.Transaction, error) {
	transactions := make([]domain.Transaction, 0)
	fromLt := headLt
	for {
		batch, err := transport.GetTransactions(
			ctx, address, fromLt, transactionsPageSize,
		)
		if err != nil {
			return nil, err
		}

		for _, tx := range batch {
			if tx.ID.Lt <= knownLt {
				return transactions, nil
			}
			transactions = append(transactions, tx)
		}

		if len(batch) < transactionsPageSize {
			break
		}
		last := batch[len(batch)-1]
		if last.PrevTransactionID == nil || last.PrevTransactionID.Lt <= knownLt {
			break
		}
		if last.PrevTransactionID.Lt >= fromLt {
			log.Warnf(
				"transactions of %s stopped going backwards at lt %d", address, fromLt,
			)
			break
		}
		fromLt = last.PrevTransactionID.Lt
	}
	return transactions, nil
}
