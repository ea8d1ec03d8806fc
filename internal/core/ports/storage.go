package ports

import (
	"context"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
)

// Storage keys of the durable store.
const (
	SelectedConnectionIDKey   = "selectedConnectionId"
	CustomNetworksKey         = "customNetworks"
	SelectedAccountAddressKey = "selectedAccountAddress"
	SelectedMasterKeyKey      = "selectedMasterKey"
	MasterKeysNamesKey        = "masterKeysNames"
	RecentMasterKeysKey       = "recentMasterKeys"
	AccountsVisibilityKey     = "accountsVisibility"
	ExternalAccountsKey       = "externalAccounts"
)

// Storage keys of the session store.
const (
	LastTransactionsKey      = "lastTransactions"
	LastTokenTransactionsKey = "lastTokenTransactions"
)

// KeyValueStore is a small JSON key/value store.
type KeyValueStore interface {
	// Get decodes the value stored at key into value. It returns false if the
	// key is not set.
	Get(ctx context.Context, key string, value interface{}) (bool, error)
	// Set encodes and stores value at key.
	Set(ctx context.Context, key string, value interface{}) error
	// Remove deletes the given keys, missing ones are ignored.
	Remove(ctx context.Context, keys ...string) error
	// GetAll returns the raw JSON of every stored key.
	GetAll(ctx context.Context) (map[string][]byte, error)
	Close()
}

// Storage is the durable store of the wallet.
type Storage interface {
	KeyValueStore
}

// SessionStorage is cleared on every restart of the daemon.
type SessionStorage interface {
	KeyValueStore
}

// AccountsStorage persists the list of accounts and their token wallets.
type AccountsStorage interface {
	GetAccounts(ctx context.Context) ([]domain.AssetsList, error)
	GetAccount(ctx context.Context, address string) (*domain.AssetsList, error)
	AddAccounts(ctx context.Context, accounts []domain.AssetsList) error
	RemoveAccounts(ctx context.Context, addresses []string) error
	RenameAccount(ctx context.Context, address, name string) (*domain.AssetsList, error)
	// UpdateTokenWallets enables or disables the root contracts of an account
	// on the given network group.
	UpdateTokenWallets(
		ctx context.Context, address, group string, roots map[string]bool,
	) (*domain.AssetsList, error)
	Clear(ctx context.Context) error
	Close()
}
