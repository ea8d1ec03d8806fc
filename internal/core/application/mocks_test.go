package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// **** Chain ****

// fakeChain is an in-memory blockchain shared by the transports of a test.
type fakeChain struct {
	lock         sync.Mutex
	states       map[string]*domain.ContractState
	txs          map[string][]domain.Transaction
	tokenDetails map[string]domain.TokenRootDetails
	balances     map[string]string
	sent         []domain.SignedMessage
	nextLt       uint64

	// confirm makes every sent message show up as a transaction.
	confirm atomic.Bool
	sendErr error
	down    atomic.Bool

	// number of upcoming GetTransactions calls that fail.
	failTransactions atomic.Int32
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		states:       make(map[string]*domain.ContractState),
		txs:          make(map[string][]domain.Transaction),
		tokenDetails: make(map[string]domain.TokenRootDetails),
		balances:     make(map[string]string),
		nextLt:       1000,
	}
}

// addTransaction appends a transaction to the history of address and moves
// its state forward.
func (c *fakeChain) addTransaction(address, inHash, value string) domain.Transaction {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.addTransactionLocked(address, inHash, value)
}

func (c *fakeChain) addTransactionLocked(address, inHash, value string) domain.Transaction {
	c.nextLt += 10
	tx := domain.Transaction{
		ID:        domain.TransactionID{Lt: c.nextLt, Hash: fmt.Sprintf("tx%d", c.nextLt)},
		CreatedAt: uint32(c.nextLt),
		InMessage: domain.Message{
			Hash:  inHash,
			Src:   "0:" + hex.EncodeToString(make([]byte, 32)),
			Dst:   address,
			Value: value,
		},
	}
	history := c.txs[address]
	if len(history) > 0 {
		prev := history[0].ID
		tx.PrevTransactionID = &prev
	}
	c.txs[address] = append([]domain.Transaction{tx}, history...)

	state, ok := c.states[address]
	if !ok {
		state = &domain.ContractState{Balance: "0"}
		c.states[address] = state
	}
	id := tx.ID
	state.LastTransactionID = &id
	state.IsDeployed = true
	state.Balance = fmt.Sprintf("%d", c.nextLt)
	return tx
}

func (c *fakeChain) addToken(root, owner string, symbol domain.TokenSymbol) string {
	c.lock.Lock()
	defer c.lock.Unlock()

	tokenWallet := testAddress(root + owner)
	c.tokenDetails[root+owner] = domain.TokenRootDetails{
		Symbol:             symbol,
		TokenWalletAddress: tokenWallet,
	}
	c.balances[tokenWallet] = "0"
	return tokenWallet
}

func (c *fakeChain) setBalance(tokenWallet, balance string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.balances[tokenWallet] = balance
}

func (c *fakeChain) takeTransactionsFailure() bool {
	for {
		n := c.failTransactions.Load()
		if n <= 0 {
			return false
		}
		if c.failTransactions.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (c *fakeChain) sentMessages() []domain.SignedMessage {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]domain.SignedMessage{}, c.sent...)
}

// **** Transport ****

type fakeTransport struct {
	chain *fakeChain
	freed atomic.Int32
}

func newFakeTransport(chain *fakeChain) *fakeTransport {
	return &fakeTransport{chain: chain}
}

func (t *fakeTransport) GetFullContractState(
	ctx context.Context, address string,
) (*domain.ContractState, error) {
	if t.chain.down.Load() {
		return nil, fmt.Errorf("network is down")
	}
	t.chain.lock.Lock()
	defer t.chain.lock.Unlock()

	state, ok := t.chain.states[address]
	if !ok {
		return nil, nil
	}
	cloned := *state
	return &cloned, nil
}

func (t *fakeTransport) GetTransactions(
	ctx context.Context, address string, fromLt uint64, limit uint8,
) ([]domain.Transaction, error) {
	if t.chain.down.Load() {
		return nil, fmt.Errorf("network is down")
	}
	if t.chain.takeTransactionsFailure() {
		return nil, fmt.Errorf("transactions unavailable")
	}
	t.chain.lock.Lock()
	defer t.chain.lock.Unlock()

	txs := make([]domain.Transaction, 0)
	for _, tx := range t.chain.txs[address] {
		if fromLt > 0 && tx.ID.Lt > fromLt {
			continue
		}
		txs = append(txs, tx)
		if len(txs) >= int(limit) {
			break
		}
	}
	return txs, nil
}

func (t *fakeTransport) SendMessage(
	ctx context.Context, address string, message domain.SignedMessage,
) error {
	t.chain.lock.Lock()
	defer t.chain.lock.Unlock()

	if t.chain.sendErr != nil {
		return t.chain.sendErr
	}
	t.chain.sent = append(t.chain.sent, message)
	if t.chain.confirm.Load() {
		t.chain.addTransactionLocked(address, message.Hash, "0")
	}
	return nil
}

func (t *fakeTransport) GetTokenRootDetails(
	ctx context.Context, rootTokenContract, owner string,
) (*domain.TokenRootDetails, error) {
	t.chain.lock.Lock()
	defer t.chain.lock.Unlock()

	details, ok := t.chain.tokenDetails[rootTokenContract+owner]
	if !ok {
		return nil, nil
	}
	return &details, nil
}

func (t *fakeTransport) GetTokenWalletBalance(
	ctx context.Context, tokenWallet string,
) (string, error) {
	t.chain.lock.Lock()
	defer t.chain.lock.Unlock()
	return t.chain.balances[tokenWallet], nil
}

func (t *fakeTransport) Free() {
	t.freed.Add(1)
}

// **** TransportFactory ****

type mockTransportFactory struct {
	mock.Mock
}

func (m *mockTransportFactory) NewGqlTransport(
	params domain.GqlParams,
) (ports.Transport, error) {
	args := m.Called(params)

	var res ports.Transport
	if a := args.Get(0); a != nil {
		res = a.(ports.Transport)
	}
	return res, args.Error(1)
}

func (m *mockTransportFactory) NewJrpcTransport(
	params domain.JrpcParams,
) (ports.Transport, error) {
	args := m.Called(params)

	var res ports.Transport
	if a := args.Get(0); a != nil {
		res = a.(ports.Transport)
	}
	return res, args.Error(1)
}

// **** TimeSource ****

type mockTimeSource struct {
	mock.Mock
}

func (m *mockTimeSource) FetchServerTime(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	var res int64
	if a := args.Get(0); a != nil {
		res = a.(int64)
	}
	return res, args.Error(1)
}

// **** Notifier ****

type mockNotifier struct {
	mock.Mock
	notified chan ports.Notification
}

func newMockNotifier() *mockNotifier {
	m := &mockNotifier{notified: make(chan ports.Notification, 16)}
	m.On("ShowNotification", mock.Anything, mock.Anything).Return(nil)
	return m
}

func (m *mockNotifier) ShowNotification(
	ctx context.Context, notification ports.Notification,
) error {
	args := m.Called(ctx, notification)
	select {
	case m.notified <- notification:
	default:
	}
	return args.Error(0)
}

// **** KeyStore ****

type mockKeyStore struct {
	mock.Mock
}

func (m *mockKeyStore) GetKeys(ctx context.Context) ([]domain.KeyStoreEntry, error) {
	args := m.Called(ctx)

	var res []domain.KeyStoreEntry
	if a := args.Get(0); a != nil {
		res = a.([]domain.KeyStoreEntry)
	}
	return res, args.Error(1)
}

func (m *mockKeyStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// **** WalletEngine ****

// fakeEngine derives addresses from the hash of the public key and decodes
// transactions as they are.
type fakeEngine struct {
	custodians map[string][]string
	pending    []domain.MultisigPendingTransaction
}

func (e *fakeEngine) ComputeWalletAddress(
	ctx context.Context, workchain int8, publicKey string,
	contractType domain.ContractType,
) (string, error) {
	if publicKey == "" {
		return "", fmt.Errorf("empty public key")
	}
	sum := sha256.Sum256([]byte(publicKey + string(contractType)))
	return fmt.Sprintf("%d:%s", workchain, hex.EncodeToString(sum[:])), nil
}

func (e *fakeEngine) ParseWalletTransactions(
	ctx context.Context, contractType domain.ContractType,
	transactions []domain.Transaction,
) ([]domain.Transaction, error) {
	return append([]domain.Transaction{}, transactions...), nil
}

func (e *fakeEngine) ParseTokenTransactions(
	ctx context.Context, rootTokenContract string,
	transactions []domain.Transaction,
) ([]domain.TokenWalletTransaction, error) {
	parsed := make([]domain.TokenWalletTransaction, 0, len(transactions))
	for _, tx := range transactions {
		parsed = append(parsed, domain.TokenWalletTransaction{
			Transaction: tx,
			TokenInfo: &domain.TokenTransactionInfo{
				Type:    "incoming_transfer",
				Value:   tx.InMessage.Value,
				Address: tx.InMessage.Src,
			},
		})
	}
	return parsed, nil
}

func (e *fakeEngine) GetCustodians(
	ctx context.Context, contractType domain.ContractType, boc string,
) ([]string, error) {
	return e.custodians[boc], nil
}

func (e *fakeEngine) GetMultisigPendingTransactions(
	ctx context.Context, contractType domain.ContractType, boc string,
) ([]domain.MultisigPendingTransaction, error) {
	return e.pending, nil
}

func (e *fakeEngine) EstimateFees(
	ctx context.Context, address string, message domain.SignedMessage,
) (string, error) {
	return "12345", nil
}

func (e *fakeEngine) DecodeTokenRootDetails(
	ctx context.Context, rootBoc, owner string,
) (*domain.TokenRootDetails, error) {
	return nil, fmt.Errorf("not supported")
}

func (e *fakeEngine) DecodeTokenWalletBalance(
	ctx context.Context, walletBoc string,
) (string, error) {
	return "", fmt.Errorf("not supported")
}

// **** Storage ****

// memStore is a JSON key/value store kept in memory.
type memStore struct {
	lock   sync.Mutex
	values map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string, value interface{}) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	buf, ok := s.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(buf, value)
}

func (s *memStore) Set(ctx context.Context, key string, value interface{}) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = buf
	return nil
}

func (s *memStore) Remove(ctx context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *memStore) GetAll(ctx context.Context) (map[string][]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	all := make(map[string][]byte, len(s.values))
	for k, v := range s.values {
		all[k] = append([]byte{}, v...)
	}
	return all, nil
}

func (s *memStore) Close() {}

func (s *memStore) has(key string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.values[key]
	return ok
}

// memAccounts is an in-memory AccountsStorage.
type memAccounts struct {
	lock     sync.Mutex
	accounts map[string]domain.AssetsList
}

func newMemAccounts(accounts ...domain.AssetsList) *memAccounts {
	s := &memAccounts{accounts: make(map[string]domain.AssetsList)}
	for _, account := range accounts {
		s.accounts[account.Address()] = account
	}
	return s
}

func (s *memAccounts) GetAccounts(ctx context.Context) ([]domain.AssetsList, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	accounts := make([]domain.AssetsList, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, cloneAssetsList(account))
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Address() < accounts[j].Address()
	})
	return accounts, nil
}

func (s *memAccounts) GetAccount(
	ctx context.Context, address string,
) (*domain.AssetsList, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	account, ok := s.accounts[address]
	if !ok {
		return nil, nil
	}
	account = cloneAssetsList(account)
	return &account, nil
}

func (s *memAccounts) AddAccounts(ctx context.Context, accounts []domain.AssetsList) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, account := range accounts {
		s.accounts[account.Address()] = cloneAssetsList(account)
	}
	return nil
}

func (s *memAccounts) RemoveAccounts(ctx context.Context, addresses []string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, address := range addresses {
		delete(s.accounts, address)
	}
	return nil
}

func (s *memAccounts) RenameAccount(
	ctx context.Context, address, name string,
) (*domain.AssetsList, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	account, ok := s.accounts[address]
	if !ok {
		return nil, fmt.Errorf("account %s not found", address)
	}
	account.Name = name
	s.accounts[address] = account
	return &account, nil
}

func (s *memAccounts) UpdateTokenWallets(
	ctx context.Context, address, group string, roots map[string]bool,
) (*domain.AssetsList, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	account, ok := s.accounts[address]
	if !ok {
		return nil, fmt.Errorf("account %s not found", address)
	}
	account = cloneAssetsList(account)
	for root, enabled := range roots {
		if enabled {
			account.AddTokenWallet(group, root)
		} else {
			account.RemoveTokenWallet(group, root)
		}
	}
	s.accounts[address] = account
	return &account, nil
}

func (s *memAccounts) Clear(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.accounts = make(map[string]domain.AssetsList)
	return nil
}

func (s *memAccounts) Close() {}

func (s *memAccounts) count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.accounts)
}

// **** Helpers ****

func testAddress(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return "0:" + hex.EncodeToString(sum[:])
}

func testAccount(name, publicKey string, contractType domain.ContractType) domain.AssetsList {
	engine := &fakeEngine{}
	address, _ := engine.ComputeWalletAddress(
		context.Background(), 0, publicKey, contractType,
	)
	return domain.AssetsList{
		Name: name,
		TonWallet: domain.TonWallet{
			Address:      address,
			PublicKey:    publicKey,
			ContractType: contractType,
		},
		AdditionalAssets: make(map[string]domain.AdditionalAssets),
	}
}
