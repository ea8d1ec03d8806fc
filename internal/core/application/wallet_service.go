package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// WalletState is the state of the whole wallet as exposed to the clients.
type WalletState struct {
	Connection        ConnectionState `json:"connection"`
	Accounts          AccountState    `json:"accounts"`
	ActiveConnections int             `json:"activeConnections"`
}

// StorageExport is the backup of the durable state of the wallet. Keys are
// held by the wallet engine and are not part of it.
type StorageExport struct {
	MasterKeysNames    map[string]string        `json:"masterKeysNames"`
	RecentMasterKeys   []domain.KeyStoreEntry   `json:"recentMasterKeys"`
	AccountsVisibility map[string]bool          `json:"accountsVisibility"`
	ExternalAccounts   []domain.ExternalAccount `json:"externalAccounts"`
	Accounts           []domain.AssetsList      `json:"accounts"`
}

func (e StorageExport) validate() error {
	if e.Accounts == nil {
		return fmt.Errorf("missing accounts")
	}
	for _, account := range e.Accounts {
		if _, err := domain.ExtractAddressWorkchain(account.Address()); err != nil {
			return fmt.Errorf("account %s: %w", account.Address(), err)
		}
		if !account.TonWallet.ContractType.IsValid() {
			return fmt.Errorf(
				"account %s: %w", account.Address(), ErrUnknownContractType,
			)
		}
	}
	return nil
}

// WalletService coordinates the connection and the account services.
type WalletService interface {
	InitialSync(ctx context.Context) error
	// ChangeNetwork moves every subscription to the network with the given
	// id. If it can't be reached, the current network is restored.
	ChangeNetwork(ctx context.Context, id int) error
	// SetActiveConnections records the number of attached clients, the
	// subscriptions poll intensively while there's at least one.
	SetActiveConnections(count int)
	ExportStorage(ctx context.Context) ([]byte, error)
	ImportStorage(ctx context.Context, data []byte) (bool, error)
	LogOut(ctx context.Context) error
	GetState() WalletState
	RegisterEventListener() (<-chan Event, func())
	Connection() ConnectionService
	Accounts() AccountService
	Close()
}

type walletService struct {
	connection ConnectionService
	accounts   AccountService
	storage    ports.Storage
	accountsDB ports.AccountsStorage

	// serializes network changes, imports and logouts.
	lock              sync.Mutex
	activeConnections atomic.Int64

	events      *eventBus
	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

func NewWalletService(
	connection ConnectionService,
	accounts AccountService,
	storage ports.Storage,
	accountsDB ports.AccountsStorage,
) (WalletService, error) {
	if connection == nil {
		return nil, fmt.Errorf("missing connection service")
	}
	if accounts == nil {
		return nil, fmt.Errorf("missing account service")
	}
	if storage == nil {
		return nil, fmt.Errorf("missing storage")
	}
	if accountsDB == nil {
		return nil, fmt.Errorf("missing accounts storage")
	}

	events := newEventBus()
	accountEvents, unsubscribe := accounts.RegisterEventListener()
	svc := &walletService{
		connection:  connection,
		accounts:    accounts,
		storage:     storage,
		accountsDB:  accountsDB,
		events:      events,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
	}

	connection.OnStateChanged(func(state ConnectionState) {
		events.publish(Event{Type: EventConnectionChanged, Payload: state})
	})
	go svc.forwardEvents(accountEvents)

	return svc, nil
}

func (w *walletService) InitialSync(ctx context.Context) error {
	if err := w.connection.InitialSync(ctx); err != nil {
		return err
	}
	if err := w.accounts.InitialSync(ctx); err != nil {
		return err
	}
	if w.connection.GetState().Failed {
		log.Warn("no network available, subscriptions not started")
		return nil
	}
	if err := w.accounts.StartSubscriptions(ctx); err != nil {
		log.WithError(err).Warn("failed to start some subscriptions")
	}
	return nil
}

func (w *walletService) ChangeNetwork(ctx context.Context, id int) error {
	params, err := w.connection.FindNetwork(ctx, id)
	if err != nil {
		return domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if w.connection.GetState().SelectedConnection.ID == params.ID &&
		!w.connection.GetState().Failed {
		return nil
	}
	return w.changeNetwork(ctx, &params)
}

// changeNetwork must be called with lock held. A nil target reconnects to
// the current network.
func (w *walletService) changeNetwork(
	ctx context.Context, target *domain.ConnectionDataItem,
) error {
	current := w.connection.GetState().SelectedConnection
	if target == nil {
		target = &current
	}

	w.accounts.StopSubscriptions(ctx)
	log.Debug("stopped account subscriptions")

	var switchErr error
	if err := w.connection.TrySwitchingNetwork(ctx, *target, true); err != nil {
		log.WithError(err).Warnf(
			"failed to switch to network %s, restoring %s", target.Name, current.Name,
		)
		if err := w.connection.TrySwitchingNetwork(ctx, current, true); err != nil {
			switchErr = err
		}
	}

	if err := w.accounts.StartSubscriptions(ctx); err != nil {
		log.WithError(err).Warn("failed to restart some subscriptions")
	}

	selected := w.connection.GetState().SelectedConnection
	log.Infof("selected network %s (%d)", selected.Name, selected.ID)
	w.events.publish(Event{Type: EventConnectionChanged, Payload: selected.Group})
	return switchErr
}

func (w *walletService) SetActiveConnections(count int) {
	if count < 0 {
		count = 0
	}
	prev := w.activeConnections.Swap(int64(count))
	switch {
	case prev <= 0 && count > 0:
		w.accounts.EnableIntensivePolling()
	case prev > 0 && count <= 0:
		w.accounts.DisableIntensivePolling()
	}
}

func (w *walletService) ExportStorage(ctx context.Context) ([]byte, error) {
	export := StorageExport{
		MasterKeysNames:    make(map[string]string),
		RecentMasterKeys:   make([]domain.KeyStoreEntry, 0),
		AccountsVisibility: make(map[string]bool),
		ExternalAccounts:   make([]domain.ExternalAccount, 0),
	}
	values := map[string]interface{}{
		ports.MasterKeysNamesKey:    &export.MasterKeysNames,
		ports.RecentMasterKeysKey:   &export.RecentMasterKeys,
		ports.AccountsVisibilityKey: &export.AccountsVisibility,
		ports.ExternalAccountsKey:   &export.ExternalAccounts,
	}
	for key, value := range values {
		if _, err := w.storage.Get(ctx, key, value); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
	}

	accounts, err := w.accountsDB.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	export.Accounts = accounts

	return json.MarshalIndent(export, "", "  ")
}

func (w *walletService) ImportStorage(ctx context.Context, data []byte) (bool, error) {
	var export StorageExport
	if err := json.Unmarshal(data, &export); err != nil {
		log.WithError(err).Debug("malformed storage backup")
		return false, nil
	}
	if err := export.validate(); err != nil {
		log.WithError(err).Debug("invalid storage backup")
		return false, nil
	}
	if export.MasterKeysNames == nil {
		export.MasterKeysNames = make(map[string]string)
	}
	if export.RecentMasterKeys == nil {
		export.RecentMasterKeys = make([]domain.KeyStoreEntry, 0)
	}
	if export.AccountsVisibility == nil {
		export.AccountsVisibility = make(map[string]bool)
	}
	if export.ExternalAccounts == nil {
		export.ExternalAccounts = make([]domain.ExternalAccount, 0)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	values := map[string]interface{}{
		ports.MasterKeysNamesKey:    export.MasterKeysNames,
		ports.RecentMasterKeysKey:   export.RecentMasterKeys,
		ports.AccountsVisibilityKey: export.AccountsVisibility,
		ports.ExternalAccountsKey:   export.ExternalAccounts,
	}
	for key, value := range values {
		if err := w.storage.Set(ctx, key, value); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	if err := w.storage.Remove(
		ctx, ports.SelectedAccountAddressKey, ports.SelectedMasterKeyKey,
	); err != nil {
		return false, err
	}

	if err := w.accountsDB.Clear(ctx); err != nil {
		return false, fmt.Errorf("failed to clear accounts: %w", err)
	}
	if err := w.accountsDB.AddAccounts(ctx, export.Accounts); err != nil {
		return false, fmt.Errorf("failed to import accounts: %w", err)
	}

	w.accounts.StopSubscriptions(ctx)
	if err := w.accounts.InitialSync(ctx); err != nil {
		return false, err
	}
	if err := w.changeNetwork(ctx, nil); err != nil {
		return true, err
	}

	log.Infof("imported %d accounts", len(export.Accounts))
	return true, nil
}

func (w *walletService) LogOut(ctx context.Context) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if err := w.accounts.LogOut(ctx); err != nil {
		return err
	}
	w.events.publish(Event{Type: EventStateChanged})
	return nil
}

func (w *walletService) GetState() WalletState {
	return WalletState{
		Connection:        w.connection.GetState(),
		Accounts:          w.accounts.GetState(),
		ActiveConnections: int(w.activeConnections.Load()),
	}
}

func (w *walletService) RegisterEventListener() (<-chan Event, func()) {
	return w.events.register()
}

func (w *walletService) Connection() ConnectionService {
	return w.connection
}

func (w *walletService) Accounts() AccountService {
	return w.accounts
}

func (w *walletService) Close() {
	w.closeOnce.Do(func() {
		w.unsubscribe()
		<-w.done
		w.accounts.Close()
		w.connection.Close()
		w.events.close()
	})
}

func (w *walletService) forwardEvents(events <-chan Event) {
	defer close(w.done)

	for event := range events {
		w.events.publish(event)
	}
}
