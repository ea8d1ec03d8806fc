package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// PollingConfig are the two polling tiers of the subscriptions.
type PollingConfig struct {
	Intensive  time.Duration
	Background time.Duration
}

func (c PollingConfig) withDefaults() PollingConfig {
	if c.Intensive <= 0 {
		c.Intensive = DefaultIntensivePollingInterval
	}
	if c.Background <= 0 {
		c.Background = DefaultBackgroundPollingInterval
	}
	return c
}

// AccountService keeps a subscription for every account and for each of
// its enabled token wallets, and turns what they report into AccountState.
type AccountService interface {
	InitialSync(ctx context.Context) error
	StartSubscriptions(ctx context.Context) error
	StopSubscriptions(ctx context.Context)
	UpdateTokenWallets(ctx context.Context, address string, roots map[string]bool) error
	HasTokenWallet(address, rootTokenContract string) bool
	LogOut(ctx context.Context) error

	CreateAccount(ctx context.Context, params domain.AccountToAdd) (*domain.AssetsList, error)
	CreateAccounts(ctx context.Context, params []domain.AccountToAdd) ([]domain.AssetsList, error)
	AddExternalAccount(ctx context.Context, address, publicKey, externalPublicKey string) error
	SelectAccount(ctx context.Context, address string) error
	RemoveAccount(ctx context.Context, address string) error
	RemoveAccounts(ctx context.Context, addresses []string) error
	RenameAccount(ctx context.Context, address, name string) error
	UpdateAccountVisibility(ctx context.Context, address string, visible bool) error
	SelectMasterKey(ctx context.Context, masterKey string) error
	UpdateMasterKeyName(ctx context.Context, masterKey, name string) error
	UpdateRecentMasterKey(ctx context.Context, entry domain.KeyStoreEntry) error

	EstimateFees(ctx context.Context, address string, message domain.SignedMessage) (string, error)
	GetMultisigPendingTransactions(
		ctx context.Context, address string,
	) ([]domain.MultisigPendingTransaction, error)
	GetTokenRootDetails(ctx context.Context, rootTokenContract, owner string) (*domain.TokenRootDetails, error)
	GetTokenWalletBalance(ctx context.Context, tokenWallet string) (string, error)
	// SendMessage broadcasts message from the wallet of address and blocks
	// until its transaction is found, it expires, it's rejected or ctx is
	// done.
	SendMessage(
		ctx context.Context, address string, message domain.SignedMessage,
		info *domain.StoredMessageInfo,
	) (*domain.Transaction, error)
	PreloadTransactions(ctx context.Context, address string, fromLt uint64) error
	PreloadTokenTransactions(ctx context.Context, owner, rootTokenContract string, fromLt uint64) error

	EnableIntensivePolling()
	DisableIntensivePolling()

	GetState() AccountState
	RegisterEventListener() (<-chan Event, func())
	Close()
}

type accountService struct {
	connection ConnectionService
	engine     ports.WalletEngine
	keyStore   ports.KeyStore
	storage    ports.Storage
	session    ports.SessionStorage
	accounts   ports.AccountsStorage
	notifier   ports.Notifier
	metrics    *stats.Metrics
	polling    PollingConfig

	// guards the subscription registry and structural changes to it.
	subsLock   sync.Mutex
	walletSubs map[string]*WalletSubscription
	tokenSubs  map[string]map[string]*TokenWalletSubscription
	intensive  atomic.Bool

	stateLock sync.RWMutex
	state     AccountState

	watermarkLock         sync.Mutex
	lastTransactions      map[string]domain.TransactionID
	lastTokenTransactions map[string]map[string]domain.TransactionID

	requests *messageRequests
	events   *eventBus
}

func NewAccountService(
	connection ConnectionService,
	engine ports.WalletEngine,
	keyStore ports.KeyStore,
	storage ports.Storage,
	session ports.SessionStorage,
	accounts ports.AccountsStorage,
	notifier ports.Notifier,
	polling PollingConfig,
	metrics *stats.Metrics,
) (AccountService, error) {
	if connection == nil {
		return nil, fmt.Errorf("missing connection service")
	}
	if engine == nil {
		return nil, fmt.Errorf("missing wallet engine")
	}
	if keyStore == nil {
		return nil, fmt.Errorf("missing key store")
	}
	if storage == nil {
		return nil, fmt.Errorf("missing storage")
	}
	if session == nil {
		return nil, fmt.Errorf("missing session storage")
	}
	if accounts == nil {
		return nil, fmt.Errorf("missing accounts storage")
	}
	if notifier == nil {
		return nil, fmt.Errorf("missing notifier")
	}

	return &accountService{
		connection:            connection,
		engine:                engine,
		keyStore:              keyStore,
		storage:               storage,
		session:               session,
		accounts:              accounts,
		notifier:              notifier,
		metrics:               metrics,
		polling:               polling.withDefaults(),
		walletSubs:            make(map[string]*WalletSubscription),
		tokenSubs:             make(map[string]map[string]*TokenWalletSubscription),
		state:                 defaultAccountState(),
		lastTransactions:      make(map[string]domain.TransactionID),
		lastTokenTransactions: make(map[string]map[string]domain.TransactionID),
		requests:              newMessageRequests(),
		events:                newEventBus(),
	}, nil
}

func (s *accountService) InitialSync(ctx context.Context) error {
	s.loadWatermarks(ctx)

	keys, err := s.keyStore.GetKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}
	storedKeys := make(map[string]domain.KeyStoreEntry, len(keys))
	for _, key := range keys {
		storedKeys[key.PublicKey] = key
	}

	externalAccounts := make([]domain.ExternalAccount, 0)
	if _, err := s.storage.Get(ctx, ports.ExternalAccountsKey, &externalAccounts); err != nil {
		return err
	}

	accounts, err := s.accounts.GetAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	entries := make(map[string]domain.AssetsList, len(accounts))
	for _, account := range accounts {
		entries[account.Address()] = account
	}

	var selectedAddress string
	if _, err := s.storage.Get(ctx, ports.SelectedAccountAddressKey, &selectedAddress); err != nil {
		return err
	}
	selected, ok := entries[selectedAddress]
	if !ok {
		selectedAddress = ""
		if len(accounts) > 0 {
			selected, ok = accounts[0], true
			selectedAddress = selected.Address()
		}
	}

	var selectedMasterKey string
	found, err := s.storage.Get(ctx, ports.SelectedMasterKeyKey, &selectedMasterKey)
	if err != nil {
		return err
	}
	if !found && ok {
		selectedMasterKey = masterKeyOf(selected, storedKeys, externalAccounts)
	}

	visibility := make(map[string]bool)
	if _, err := s.storage.Get(ctx, ports.AccountsVisibilityKey, &visibility); err != nil {
		return err
	}
	masterKeysNames := make(map[string]string)
	if _, err := s.storage.Get(ctx, ports.MasterKeysNamesKey, &masterKeysNames); err != nil {
		return err
	}
	recentMasterKeys := make([]domain.KeyStoreEntry, 0)
	if _, err := s.storage.Get(ctx, ports.RecentMasterKeysKey, &recentMasterKeys); err != nil {
		return err
	}

	if visibility == nil {
		visibility = make(map[string]bool)
	}
	if masterKeysNames == nil {
		masterKeysNames = make(map[string]string)
	}

	s.stateLock.Lock()
	s.state.AccountEntries = entries
	s.state.AccountsVisibility = visibility
	s.state.ExternalAccounts = externalAccounts
	s.state.MasterKeysNames = masterKeysNames
	s.state.RecentMasterKeys = recentMasterKeys
	s.state.SelectedAccountAddress = selectedAddress
	s.state.SelectedMasterKey = selectedMasterKey
	s.state.StoredKeys = storedKeys
	s.stateLock.Unlock()

	log.Debugf("loaded %d accounts and %d keys", len(entries), len(storedKeys))
	s.publish(Event{Type: EventStateChanged})
	return nil
}

// masterKeyOf returns the master key of the key owning account, falling back
// to the first custodian key when account is an external one.
func masterKeyOf(
	account domain.AssetsList, storedKeys map[string]domain.KeyStoreEntry,
	externalAccounts []domain.ExternalAccount,
) string {
	if key, ok := storedKeys[account.TonWallet.PublicKey]; ok {
		return key.MasterKey
	}
	for _, external := range externalAccounts {
		if external.Address != account.Address() {
			continue
		}
		if len(external.ExternalIn) > 0 {
			return storedKeys[external.ExternalIn[0]].MasterKey
		}
		break
	}
	return ""
}

type accountSubscriptions struct {
	wallet *WalletSubscription
	tokens []*TokenWalletSubscription
}

func (s *accountService) StartSubscriptions(ctx context.Context) error {
	group := s.currentGroup()

	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	s.stateLock.RLock()
	accounts := make([]domain.AssetsList, 0, len(s.state.AccountEntries))
	for _, account := range s.state.AccountEntries {
		accounts = append(accounts, account)
	}
	s.stateLock.RUnlock()

	results := make([]accountSubscriptions, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i := range accounts {
		i, account := i, accounts[i]
		g.Go(func() error {
			address := account.Address()
			if _, ok := s.walletSubs[address]; !ok {
				wallet, err := s.newWalletSubscription(gctx, account.TonWallet)
				if err != nil {
					return fmt.Errorf("failed to subscribe to wallet %s: %w", address, err)
				}
				results[i].wallet = wallet
			}

			for _, root := range account.TokenWallets(group) {
				if _, ok := s.tokenSubs[address][root]; ok {
					continue
				}
				token, err := s.newTokenSubscription(gctx, address, root)
				if err != nil {
					return fmt.Errorf(
						"failed to subscribe to token wallet %s of %s: %w", root, address, err,
					)
				}
				results[i].tokens = append(results[i].tokens, token)
			}
			return nil
		})
	}
	err := g.Wait()

	// whatever was created is kept, even when another account failed.
	for _, result := range results {
		if result.wallet != nil {
			s.registerWalletSubscription(result.wallet)
		}
		for _, token := range result.tokens {
			s.registerTokenSubscription(token)
		}
	}
	s.updateSubscriptionsMetrics()

	if err != nil {
		return err
	}
	log.Debugf("subscriptions started for %d accounts", len(accounts))
	return nil
}

func (s *accountService) StopSubscriptions(ctx context.Context) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	s.stopSubscriptions()
	s.publish(Event{Type: EventStateChanged})
}

func (s *accountService) UpdateTokenWallets(
	ctx context.Context, address string, roots map[string]bool,
) error {
	group := s.currentGroup()

	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	var (
		g       errgroup.Group
		created = make([]*TokenWalletSubscription, 0)
		mu      sync.Mutex
	)
	for root, enabled := range roots {
		root := root
		if !enabled {
			if token, ok := s.tokenSubs[address][root]; ok {
				delete(s.tokenSubs[address], root)
				token.Stop()
			}
			continue
		}
		if _, ok := s.tokenSubs[address][root]; ok {
			continue
		}
		g.Go(func() error {
			token, err := s.newTokenSubscription(ctx, address, root)
			if err != nil {
				return err
			}
			mu.Lock()
			created = append(created, token)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	for _, token := range created {
		s.registerTokenSubscription(token)
	}
	if len(s.tokenSubs[address]) <= 0 {
		delete(s.tokenSubs, address)
	}
	s.updateSubscriptionsMetrics()
	if err != nil {
		return domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}

	assets, err := s.accounts.UpdateTokenWallets(ctx, address, group, roots)
	if err != nil {
		return domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}

	s.stateLock.Lock()
	active := s.tokenSubs[address]
	if byRoot, ok := s.state.AccountTokenTransactions[address]; ok {
		for root := range byRoot {
			if _, ok := active[root]; !ok {
				delete(byRoot, root)
			}
		}
		if len(active) <= 0 {
			delete(s.state.AccountTokenTransactions, address)
		}
	}
	if byRoot, ok := s.state.AccountTokenStates[address]; ok {
		for root := range byRoot {
			if _, ok := active[root]; !ok {
				delete(byRoot, root)
			}
		}
	}
	if assets != nil {
		s.state.AccountEntries[assets.Address()] = *assets
	}
	s.stateLock.Unlock()

	s.publish(Event{Type: EventStateChanged, Address: address})
	return nil
}

func (s *accountService) HasTokenWallet(address, rootTokenContract string) bool {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	_, ok := s.tokenSubs[address][rootTokenContract]
	return ok
}

func (s *accountService) LogOut(ctx context.Context) error {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	s.stopSubscriptions()

	if err := s.accounts.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}
	if err := s.keyStore.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear keys: %w", err)
	}
	if err := s.storage.Remove(
		ctx,
		ports.SelectedAccountAddressKey,
		ports.SelectedMasterKeyKey,
		ports.MasterKeysNamesKey,
		ports.AccountsVisibilityKey,
		ports.RecentMasterKeysKey,
		ports.ExternalAccountsKey,
	); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}

	s.watermarkLock.Lock()
	s.lastTransactions = make(map[string]domain.TransactionID)
	s.lastTokenTransactions = make(map[string]map[string]domain.TransactionID)
	if err := s.session.Remove(
		ctx, ports.LastTransactionsKey, ports.LastTokenTransactionsKey,
	); err != nil {
		log.WithError(err).Warn("failed to clear transaction watermarks")
	}
	s.watermarkLock.Unlock()

	s.stateLock.Lock()
	s.state = defaultAccountState()
	s.stateLock.Unlock()

	log.Info("logged out")
	s.publish(Event{Type: EventStateChanged})
	return nil
}

func (s *accountService) EstimateFees(
	ctx context.Context, address string, message domain.SignedMessage,
) (string, error) {
	wallet, err := s.getWalletSubscription(address)
	if err != nil {
		return "", err
	}
	return wallet.EstimateFees(ctx, message)
}

func (s *accountService) GetMultisigPendingTransactions(
	ctx context.Context, address string,
) ([]domain.MultisigPendingTransaction, error) {
	wallet, err := s.getWalletSubscription(address)
	if err != nil {
		return nil, err
	}
	return wallet.GetMultisigPendingTransactions(ctx)
}

func (s *accountService) GetTokenRootDetails(
	ctx context.Context, rootTokenContract, owner string,
) (*domain.TokenRootDetails, error) {
	var details *domain.TokenRootDetails
	err := s.connection.Use(ctx, func(conn *InitializedConnection) error {
		var err error
		details, err = conn.Transport.GetTokenRootDetails(ctx, rootTokenContract, owner)
		return wrapTransportError(err)
	})
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, domain.NewRpcError(
			domain.ResourceUnavailable,
			"Token root contract %s not found", rootTokenContract,
		)
	}
	return details, nil
}

func (s *accountService) GetTokenWalletBalance(
	ctx context.Context, tokenWallet string,
) (string, error) {
	var balance string
	err := s.connection.Use(ctx, func(conn *InitializedConnection) error {
		var err error
		balance, err = conn.Transport.GetTokenWalletBalance(ctx, tokenWallet)
		return wrapTransportError(err)
	})
	return balance, err
}

func (s *accountService) SendMessage(
	ctx context.Context, address string, message domain.SignedMessage,
	info *domain.StoredMessageInfo,
) (*domain.Transaction, error) {
	wallet, err := s.getWalletSubscription(address)
	if err != nil {
		return nil, err
	}

	result, err := s.requests.add(address, message.Hash)
	if err != nil {
		return nil, err
	}
	s.metrics.SetPendingMessages(s.requests.count())

	if err := wallet.PrepareReliablePolling(ctx); err != nil {
		log.WithError(err).Debugf("failed to refresh %s before sending", address)
	}

	// the info is stored before sending, the message may be found by the
	// very next poll.
	if info != nil {
		stored := *info
		stored.MessageHash = message.Hash
		stored.CreatedAt = s.connection.Clock().NowSec()
		s.addPendingTransaction(address, stored)
	}

	if _, err := wallet.SendMessage(ctx, message); err != nil {
		if info != nil {
			s.removePendingTransaction(address, message.Hash)
		}
		if s.requests.reject(
			address, message.Hash,
			domain.NewRpcError(domain.ResourceUnavailable, "%s", err),
		) {
			s.metrics.IncSettledMessages("failed")
		}
	}

	select {
	case res := <-result:
		s.metrics.SetPendingMessages(s.requests.count())
		return res.tx, res.err
	case <-ctx.Done():
		if _, ok := s.requests.take(address, message.Hash); !ok {
			// settled in the meantime.
			res := <-result
			return res.tx, res.err
		}
		s.metrics.SetPendingMessages(s.requests.count())
		return nil, ctx.Err()
	}
}

func (s *accountService) addPendingTransaction(
	address string, info domain.StoredMessageInfo,
) {
	s.stateLock.Lock()
	pending, ok := s.state.AccountPendingTransactions[address]
	if !ok {
		pending = make(map[string]domain.StoredMessageInfo)
		s.state.AccountPendingTransactions[address] = pending
	}
	pending[info.MessageHash] = info
	s.stateLock.Unlock()

	s.publish(Event{Type: EventStateChanged, Address: address})
}

func (s *accountService) removePendingTransaction(address, hash string) {
	s.stateLock.Lock()
	delete(s.state.AccountPendingTransactions[address], hash)
	s.stateLock.Unlock()
}

func (s *accountService) PreloadTransactions(
	ctx context.Context, address string, fromLt uint64,
) error {
	wallet, err := s.getWalletSubscription(address)
	if err != nil {
		return err
	}
	if err := wallet.PreloadTransactions(ctx, fromLt); err != nil {
		return domain.NewRpcError(domain.ResourceUnavailable, "%s", err)
	}
	return nil
}

func (s *accountService) PreloadTokenTransactions(
	ctx context.Context, owner, rootTokenContract string, fromLt uint64,
) error {
	s.subsLock.Lock()
	token, ok := s.tokenSubs[owner][rootTokenContract]
	s.subsLock.Unlock()
	if !ok {
		return errTokenSubscriptionNotFound(owner, rootTokenContract)
	}

	if err := token.PreloadTransactions(ctx, fromLt); err != nil {
		return domain.NewRpcError(domain.ResourceUnavailable, "%s", err)
	}
	return nil
}

func (s *accountService) EnableIntensivePolling() {
	if s.intensive.Swap(true) {
		return
	}
	log.Debug("enable intensive polling")
	s.forEachSubscription(func(sub *contractSubscription) {
		sub.SkipRefreshTimer()
		sub.SetPollingInterval(s.polling.Intensive)
	})
}

func (s *accountService) DisableIntensivePolling() {
	if !s.intensive.Swap(false) {
		return
	}
	log.Debug("disable intensive polling")
	s.forEachSubscription(func(sub *contractSubscription) {
		sub.SetPollingInterval(s.polling.Background)
	})
}

func (s *accountService) GetState() AccountState {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	return s.state.clone()
}

func (s *accountService) RegisterEventListener() (<-chan Event, func()) {
	return s.events.register()
}

func (s *accountService) Close() {
	s.subsLock.Lock()
	s.stopSubscriptions()
	s.subsLock.Unlock()

	s.events.close()
}

// stopSubscriptions must be called with subsLock held.
func (s *accountService) stopSubscriptions() {
	var g errgroup.Group
	for _, wallet := range s.walletSubs {
		wallet := wallet
		g.Go(func() error {
			wallet.Stop()
			return nil
		})
	}
	for _, tokens := range s.tokenSubs {
		for _, token := range tokens {
			token := token
			g.Go(func() error {
				token.Stop()
				return nil
			})
		}
	}
	_ = g.Wait()

	s.walletSubs = make(map[string]*WalletSubscription)
	s.tokenSubs = make(map[string]map[string]*TokenWalletSubscription)
	s.updateSubscriptionsMetrics()

	if n := s.requests.rejectAll(errMessageRejected()); n > 0 {
		log.Debugf("rejected %d pending send message requests", n)
		s.metrics.IncSettledMessages("rejected")
	}
	s.metrics.SetPendingMessages(0)

	s.stateLock.Lock()
	s.state.resetSubscriptionCaches()
	s.stateLock.Unlock()
}

func (s *accountService) subscriptionDeps() subscriptionDeps {
	interval := s.polling.Background
	if s.intensive.Load() {
		interval = s.polling.Intensive
	}
	return subscriptionDeps{
		connection: s.connection,
		engine:     s.engine,
		clock:      s.connection.Clock(),
		metrics:    s.metrics,
		interval:   interval,
	}
}

func (s *accountService) newWalletSubscription(
	ctx context.Context, wallet domain.TonWallet,
) (*WalletSubscription, error) {
	handlers := s.walletHandlers(wallet.Address, wallet.ContractType)
	if s.connection.IsFromZerostate(wallet.Address) {
		return SubscribeWalletByAddress(
			s.subscriptionDeps(), wallet.Address, wallet.ContractType, handlers,
		)
	}

	workchain, err := domain.ExtractAddressWorkchain(wallet.Address)
	if err != nil {
		return nil, domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}
	return SubscribeWallet(
		ctx, s.subscriptionDeps(), workchain, wallet.PublicKey,
		wallet.ContractType, handlers,
	)
}

func (s *accountService) newTokenSubscription(
	ctx context.Context, owner, root string,
) (*TokenWalletSubscription, error) {
	return SubscribeTokenWallet(
		ctx, s.subscriptionDeps(), owner, root, s.tokenHandlers(owner, root),
	)
}

// registerWalletSubscription must be called with subsLock held.
func (s *accountService) registerWalletSubscription(wallet *WalletSubscription) {
	s.walletSubs[wallet.Address()] = wallet
	wallet.Start()
}

// registerTokenSubscription records the symbol of the token before the
// subscription starts, so transactions are never reported for an unknown
// token. It must be called with subsLock held.
func (s *accountService) registerTokenSubscription(token *TokenWalletSubscription) {
	s.stateLock.Lock()
	s.state.KnownTokens[token.RootTokenContract()] = token.Symbol()
	s.stateLock.Unlock()

	byRoot, ok := s.tokenSubs[token.Owner()]
	if !ok {
		byRoot = make(map[string]*TokenWalletSubscription)
		s.tokenSubs[token.Owner()] = byRoot
	}
	byRoot[token.RootTokenContract()] = token
	token.Start()
}

func (s *accountService) getWalletSubscription(address string) (*WalletSubscription, error) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	wallet, ok := s.walletSubs[address]
	if !ok {
		return nil, errSubscriptionNotFound(address)
	}
	return wallet, nil
}

func (s *accountService) forEachSubscription(fn func(sub *contractSubscription)) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	for _, wallet := range s.walletSubs {
		fn(wallet.contractSubscription)
	}
	for _, tokens := range s.tokenSubs {
		for _, token := range tokens {
			fn(token.contractSubscription)
		}
	}
}

func (s *accountService) updateSubscriptionsMetrics() {
	tokens := 0
	for _, byRoot := range s.tokenSubs {
		tokens += len(byRoot)
	}
	s.metrics.SetSubscriptions(subscriptionKindWallet, len(s.walletSubs))
	s.metrics.SetSubscriptions(subscriptionKindToken, tokens)
}

func (s *accountService) currentGroup() string {
	return s.connection.GetState().SelectedConnection.Group
}

func (s *accountService) save(ctx context.Context, key string, value interface{}) error {
	if err := s.storage.Set(ctx, key, value); err != nil {
		return domain.NewRpcError(domain.InvalidRequest, "failed to save %s: %s", key, err)
	}
	return nil
}

func (s *accountService) publish(event Event) {
	s.events.publish(event)
}

func firstAddress(entries map[string]domain.AssetsList) string {
	addresses := make([]string, 0, len(entries))
	for address := range entries {
		addresses = append(addresses, address)
	}
	if len(addresses) <= 0 {
		return ""
	}
	sort.Strings(addresses)
	return addresses[0]
}
