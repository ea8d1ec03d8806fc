package httpinterface_test

import (
	"context"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// The mocks embed the service interfaces so that only the methods used by a
// test need to be stubbed.

type mockWallet struct {
	mock.Mock
	application.WalletService

	accounts   *mockAccounts
	connection *mockConnection
	active     chan int
}

func newMockWallet() *mockWallet {
	return &mockWallet{
		accounts:   &mockAccounts{},
		connection: &mockConnection{},
		active:     make(chan int, 16),
	}
}

func (m *mockWallet) Accounts() application.AccountService {
	return m.accounts
}

func (m *mockWallet) Connection() application.ConnectionService {
	return m.connection
}

func (m *mockWallet) SetActiveConnections(count int) {
	m.active <- count
}

func (m *mockWallet) GetState() application.WalletState {
	args := m.Called()
	return args.Get(0).(application.WalletState)
}

func (m *mockWallet) ChangeNetwork(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockWallet) ExportStorage(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockWallet) ImportStorage(ctx context.Context, data []byte) (bool, error) {
	args := m.Called(ctx, data)
	return args.Bool(0), args.Error(1)
}

func (m *mockWallet) RegisterEventListener() (<-chan application.Event, func()) {
	args := m.Called()
	return args.Get(0).(<-chan application.Event), args.Get(1).(func())
}

type mockAccounts struct {
	mock.Mock
	application.AccountService
}

func (m *mockAccounts) GetState() application.AccountState {
	args := m.Called()
	return args.Get(0).(application.AccountState)
}

func (m *mockAccounts) CreateAccount(
	ctx context.Context, params domain.AccountToAdd,
) (*domain.AssetsList, error) {
	args := m.Called(ctx, params)
	var res *domain.AssetsList
	if a := args.Get(0); a != nil {
		res = a.(*domain.AssetsList)
	}
	return res, args.Error(1)
}

func (m *mockAccounts) RenameAccount(ctx context.Context, address, name string) error {
	args := m.Called(ctx, address, name)
	return args.Error(0)
}

func (m *mockAccounts) UpdateAccountVisibility(
	ctx context.Context, address string, visible bool,
) error {
	args := m.Called(ctx, address, visible)
	return args.Error(0)
}

func (m *mockAccounts) UpdateTokenWallets(
	ctx context.Context, address string, roots map[string]bool,
) error {
	args := m.Called(ctx, address, roots)
	return args.Error(0)
}

func (m *mockAccounts) SendMessage(
	ctx context.Context, address string, message domain.SignedMessage,
	info *domain.StoredMessageInfo,
) (*domain.Transaction, error) {
	args := m.Called(ctx, address, message, info)
	var res *domain.Transaction
	if a := args.Get(0); a != nil {
		res = a.(*domain.Transaction)
	}
	return res, args.Error(1)
}

func (m *mockAccounts) PreloadTransactions(
	ctx context.Context, address string, fromLt uint64,
) error {
	args := m.Called(ctx, address, fromLt)
	return args.Error(0)
}

func (m *mockAccounts) EnableIntensivePolling() {
	m.Called()
}

func (m *mockAccounts) DisableIntensivePolling() {
	m.Called()
}

type mockConnection struct {
	mock.Mock
	application.ConnectionService
}

func (m *mockConnection) GetState() application.ConnectionState {
	args := m.Called()
	return args.Get(0).(application.ConnectionState)
}

func (m *mockConnection) GetAvailableNetworks(
	ctx context.Context,
) ([]domain.ConnectionDataItem, error) {
	args := m.Called(ctx)
	var res []domain.ConnectionDataItem
	if a := args.Get(0); a != nil {
		res = a.([]domain.ConnectionDataItem)
	}
	return res, args.Error(1)
}

func (m *mockConnection) AddCustomNetwork(
	ctx context.Context, network domain.ConnectionDataItem,
) (domain.ConnectionDataItem, error) {
	args := m.Called(ctx, network)
	return args.Get(0).(domain.ConnectionDataItem), args.Error(1)
}

func (m *mockConnection) DeleteCustomNetwork(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
