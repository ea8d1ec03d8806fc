package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

// ConnectionState is the observable state of the connection service.
type ConnectionState struct {
	ClockOffset        int64                      `json:"clockOffset"`
	SelectedConnection domain.ConnectionDataItem  `json:"selectedConnection"`
	PendingConnection  *domain.ConnectionDataItem `json:"pendingConnection,omitempty"`
	Failed             bool                       `json:"failed"`
	Initialized        bool                       `json:"initialized"`
}

// InitializedConnection is the live pairing of a network preset with its
// transport.
type InitializedConnection struct {
	Data      domain.ConnectionDataItem
	Transport ports.Transport
}

// Group is the network group of the connection.
func (c *InitializedConnection) Group() string {
	return c.Data.Group
}

func (c *InitializedConnection) free() {
	switch c.Data.Type {
	case domain.ConnectionTypeGraphQL, domain.ConnectionTypeJrpc:
		c.Transport.Free()
	}
}

// ConnectionConfig tunes the connection service.
type ConnectionConfig struct {
	TestTimeout           time.Duration
	InitialSyncAttempts   uint
	InitialSyncRetryDelay time.Duration
}

func (c ConnectionConfig) withDefaults() ConnectionConfig {
	if c.TestTimeout <= 0 {
		c.TestTimeout = DefaultConnectionTestTimeout
	}
	if c.InitialSyncAttempts == 0 {
		c.InitialSyncAttempts = DefaultInitialSyncAttempts
	}
	if c.InitialSyncRetryDelay <= 0 {
		c.InitialSyncRetryDelay = DefaultInitialSyncRetryDelay
	}
	return c
}

// ConnectionService owns the active network connection. Callers use it in a
// shared way through Acquire and Use, while a network switch takes it
// exclusively.
type ConnectionService interface {
	InitialSync(ctx context.Context) error
	StartSwitchingNetwork(
		ctx context.Context, params domain.ConnectionDataItem,
	) (*NetworkSwitchHandle, error)
	TrySwitchingNetwork(
		ctx context.Context, preferred domain.ConnectionDataItem, allowSiblings bool,
	) error
	Acquire(ctx context.Context) (*InitializedConnection, func(), error)
	Use(ctx context.Context, fn func(conn *InitializedConnection) error) error
	IsFromZerostate(address string) bool

	GetAvailableNetworks(ctx context.Context) ([]domain.ConnectionDataItem, error)
	FindNetwork(ctx context.Context, id int) (domain.ConnectionDataItem, error)
	AddCustomNetwork(
		ctx context.Context, network domain.ConnectionDataItem,
	) (domain.ConnectionDataItem, error)
	UpdateCustomNetwork(ctx context.Context, network domain.ConnectionDataItem) error
	DeleteCustomNetwork(ctx context.Context, id int) error
	ResetCustomNetworks(ctx context.Context) error

	GetState() ConnectionState
	OnStateChanged(handler func(ConnectionState))
	Clock() *Clock
	Close()
}

type connectionService struct {
	storage     ports.Storage
	factory     ports.TransportFactory
	clock       *Clock
	clockSyncer *clockSyncer
	cfg         ConnectionConfig
	metrics     *stats.Metrics

	lock *networkLock

	stateLock sync.RWMutex
	conn      *InitializedConnection
	selected  domain.ConnectionDataItem
	pending   *domain.ConnectionDataItem
	failed    bool
	synced    bool
	handlers  []func(ConnectionState)

	networksLock   sync.Mutex
	customNetworks []domain.ConnectionDataItem

	testLock   sync.Mutex
	cancelTest func()
}

func NewConnectionService(
	storage ports.Storage,
	factory ports.TransportFactory,
	timeSource ports.TimeSource,
	cfg ConnectionConfig,
	metrics *stats.Metrics,
) (ConnectionService, error) {
	if storage == nil {
		return nil, fmt.Errorf("missing storage")
	}
	if factory == nil {
		return nil, fmt.Errorf("missing transport factory")
	}
	if timeSource == nil {
		return nil, fmt.Errorf("missing time source")
	}

	clock := NewClock()
	selected, _ := domain.GetPreset(domain.DefaultConnectionID)
	return &connectionService{
		storage:     storage,
		factory:     factory,
		clock:       clock,
		clockSyncer: newClockSyncer(clock, timeSource),
		cfg:         cfg.withDefaults(),
		metrics:     metrics,
		lock:        newNetworkLock(),
		selected:    selected,
	}, nil
}

func (s *connectionService) InitialSync(ctx context.Context) error {
	s.stateLock.Lock()
	if s.synced {
		s.stateLock.Unlock()
		return ErrAlreadySynced
	}
	s.synced = true
	s.stateLock.Unlock()

	s.clockSyncer.start(ctx)
	s.metrics.SetClockOffset(s.clock.Offset())

	custom, err := s.loadCustomNetworks(ctx)
	if err != nil {
		return err
	}

	selectedID := domain.DefaultConnectionID
	if _, err := s.storage.Get(
		ctx, ports.SelectedConnectionIDKey, &selectedID,
	); err != nil {
		log.WithError(err).Warn("failed to load selected connection id")
	}
	params, ok := domain.FindNetwork(custom, selectedID)
	if !ok {
		params, _ = domain.GetPreset(domain.DefaultConnectionID)
	}

	s.stateLock.Lock()
	s.selected = params
	s.stateLock.Unlock()

	err = retry.Do(
		func() error {
			return s.TrySwitchingNetwork(ctx, params, true)
		},
		retry.Context(ctx),
		retry.Attempts(s.cfg.InitialSyncAttempts),
		retry.Delay(s.cfg.InitialSyncRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).Warnf(
				"failed to select initial connection, retrying in %s",
				s.cfg.InitialSyncRetryDelay,
			)
		}),
	)
	if err != nil {
		log.WithError(err).Error("initial connection failed")
		s.stateLock.Lock()
		s.failed = true
		s.stateLock.Unlock()
		s.notifyState()
	}
	return nil
}

func (s *connectionService) StartSwitchingNetwork(
	ctx context.Context, params domain.ConnectionDataItem,
) (*NetworkSwitchHandle, error) {
	s.cancelConnectionTest()

	if err := s.lock.lockExclusive(ctx); err != nil {
		return nil, err
	}

	s.stateLock.Lock()
	pending := params
	s.pending = &pending
	s.stateLock.Unlock()
	s.notifyState()

	return &NetworkSwitchHandle{svc: s, params: params}, nil
}

func (s *connectionService) TrySwitchingNetwork(
	ctx context.Context, preferred domain.ConnectionDataItem, allowSiblings bool,
) error {
	candidates := []domain.ConnectionDataItem{preferred}
	if allowSiblings {
		candidates = domain.AvailableNetworksGroup(preferred, s.getCustomNetworks())
	}

	for _, params := range candidates {
		log.Infof("connecting to %s ...", params.Name)

		handle, err := s.StartSwitchingNetwork(ctx, params)
		if err != nil {
			return err
		}
		err = handle.Switch(ctx)
		if err == nil {
			log.Infof("connected to %s", params.Name)
			return nil
		}
		if errors.Is(err, ErrConnectionTestCancelled) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warnf("connection to %s failed", params.Name)
	}

	return ErrNoSuitableConnection
}

func (s *connectionService) Acquire(
	ctx context.Context,
) (*InitializedConnection, func(), error) {
	if s.getConnection() == nil {
		return nil, nil, errConnectionNotInitialized()
	}

	if err := s.lock.acquireShared(ctx); err != nil {
		return nil, nil, err
	}
	s.metrics.SetNetworkUsers(s.lock.sharedHolders())

	// A switch may have failed to commit while waiting.
	conn := s.getConnection()
	if conn == nil {
		s.lock.releaseShared()
		return nil, nil, errConnectionNotInitialized()
	}

	once := &sync.Once{}
	release := func() {
		once.Do(func() {
			s.lock.releaseShared()
			s.metrics.SetNetworkUsers(s.lock.sharedHolders())
		})
	}
	return conn, release, nil
}

func (s *connectionService) Use(
	ctx context.Context, fn func(conn *InitializedConnection) error,
) error {
	conn, release, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(conn)
}

func (s *connectionService) IsFromZerostate(address string) bool {
	conn := s.getConnection()
	if conn == nil {
		return false
	}
	return domain.IsFromZerostate(conn.Group(), address)
}

func (s *connectionService) GetState() ConnectionState {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	state := ConnectionState{
		ClockOffset:        s.clock.Offset(),
		SelectedConnection: s.selected,
		Failed:             s.failed,
		Initialized:        s.conn != nil,
	}
	if s.pending != nil {
		pending := *s.pending
		state.PendingConnection = &pending
	}
	return state
}

func (s *connectionService) OnStateChanged(handler func(ConnectionState)) {
	if handler == nil {
		return
	}
	s.stateLock.Lock()
	defer s.stateLock.Unlock()
	s.handlers = append(s.handlers, handler)
}

func (s *connectionService) Clock() *Clock {
	return s.clock
}

func (s *connectionService) Close() {
	s.clockSyncer.stop()
	s.cancelConnectionTest()

	s.stateLock.Lock()
	conn := s.conn
	s.conn = nil
	s.stateLock.Unlock()

	if conn != nil {
		conn.free()
	}
}

// connect builds and tests a transport for params and commits it. The
// previous connection is freed only once the new one is ready.
func (s *connectionService) connect(
	ctx context.Context, params domain.ConnectionDataItem,
) error {
	var (
		transport  ports.Transport
		shouldTest bool
		err        error
	)

	switch params.Type {
	case domain.ConnectionTypeGraphQL:
		if params.Gql == nil {
			return connectionError(domain.ErrMissingEndpoints)
		}
		transport, err = s.factory.NewGqlTransport(*params.Gql)
		shouldTest = !params.Gql.Local
	case domain.ConnectionTypeJrpc:
		if params.Jrpc == nil {
			return connectionError(domain.ErrMissingEndpoints)
		}
		transport, err = s.factory.NewJrpcTransport(*params.Jrpc)
		shouldTest = true
	default:
		return domain.NewRpcError(
			domain.ResourceUnavailable, "Unsupported connection type",
		)
	}
	if err != nil {
		return connectionError(err)
	}

	if shouldTest {
		if err := s.testConnection(ctx, transport); err != nil {
			transport.Free()
			if errors.Is(err, ErrConnectionTestCancelled) {
				return err
			}
			return connectionError(err)
		}
	}

	s.stateLock.Lock()
	prev := s.conn
	s.conn = &InitializedConnection{Data: params, Transport: transport}
	s.selected = params
	s.failed = false
	s.stateLock.Unlock()

	if prev != nil {
		prev.free()
	}

	if err := s.storage.Set(
		ctx, ports.SelectedConnectionIDKey, params.ID,
	); err != nil {
		log.WithError(err).Warn("failed to persist selected connection id")
	}
	s.metrics.SetSelectedNetwork(params.ID, params.Group)
	return nil
}

func (s *connectionService) testConnection(
	ctx context.Context, transport ports.Transport,
) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TestTimeout)
	defer cancel()

	cancelled := &atomic.Bool{}
	s.testLock.Lock()
	s.cancelTest = func() {
		cancelled.Store(true)
		cancel()
	}
	s.testLock.Unlock()

	defer func() {
		s.testLock.Lock()
		s.cancelTest = nil
		s.testLock.Unlock()
	}()

	_, err := transport.GetFullContractState(ctx, domain.ZeroAddress)
	if cancelled.Load() {
		return ErrConnectionTestCancelled
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("connection timeout")
		}
		return err
	}
	return nil
}

func (s *connectionService) cancelConnectionTest() {
	s.testLock.Lock()
	defer s.testLock.Unlock()

	if s.cancelTest != nil {
		s.cancelTest()
		s.cancelTest = nil
	}
}

func (s *connectionService) getConnection() *InitializedConnection {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()
	return s.conn
}

func (s *connectionService) endSwitch() {
	s.stateLock.Lock()
	s.pending = nil
	s.stateLock.Unlock()
	s.notifyState()
}

func (s *connectionService) notifyState() {
	state := s.GetState()

	s.stateLock.RLock()
	handlers := append([]func(ConnectionState){}, s.handlers...)
	s.stateLock.RUnlock()

	for _, handler := range handlers {
		handler(state)
	}
}

func connectionError(err error) error {
	return domain.NewRpcError(
		domain.Internal, "Failed to create connection: %s", err,
	)
}

// NetworkSwitchHandle holds the network exclusively until Switch or Release
// is called.
type NetworkSwitchHandle struct {
	svc    *connectionService
	params domain.ConnectionDataItem

	released atomic.Bool
	once     sync.Once
}

// Switch connects to the network of the handle and releases it, whatever
// the outcome.
func (h *NetworkSwitchHandle) Switch(ctx context.Context) error {
	if h.released.Load() {
		return ErrSwitchReleased
	}
	defer h.Release()

	err := h.svc.connect(ctx, h.params)
	result := "success"
	if err != nil {
		result = "failure"
	}
	h.svc.metrics.IncNetworkSwitch(h.params.Group, result)
	return err
}

// Release gives the network back without switching. It's safe to call it
// more than once.
func (h *NetworkSwitchHandle) Release() {
	h.once.Do(func() {
		h.released.Store(true)
		h.svc.lock.unlockExclusive()
		h.svc.endSwitch()
	})
}
