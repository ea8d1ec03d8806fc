package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type accountsStore struct {
	store *badgerhold.Store
	// serializes read-modify-write updates of a single account.
	lock sync.Mutex
}

// NewAccountsStorage returns the repository of the accounts, keyed by the
// address of their native wallet.
func NewAccountsStorage(dbManager *DbManager) ports.AccountsStorage {
	return &accountsStore{store: dbManager.AccountsStore}
}

func (s *accountsStore) GetAccounts(
	_ context.Context,
) ([]domain.AssetsList, error) {
	accounts := make([]domain.AssetsList, 0)
	if err := s.store.Find(&accounts, nil); err != nil {
		return nil, err
	}
	domain.SortAccounts(accounts)
	return accounts, nil
}

func (s *accountsStore) GetAccount(
	_ context.Context, address string,
) (*domain.AssetsList, error) {
	var account domain.AssetsList
	if err := s.store.Get(address, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (s *accountsStore) AddAccounts(
	_ context.Context, accounts []domain.AssetsList,
) error {
	for _, account := range accounts {
		if account.Address() == "" {
			return ErrAccountInvalidRequest
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.store.Badger().Update(func(tx *badger.Txn) error {
		for i := range accounts {
			account := accounts[i]
			if err := s.store.TxUpsert(tx, account.Address(), &account); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *accountsStore) RemoveAccounts(
	_ context.Context, addresses []string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.store.Badger().Update(func(tx *badger.Txn) error {
		for _, address := range addresses {
			if err := s.store.TxDelete(tx, address, domain.AssetsList{}); err != nil &&
				!errors.Is(err, badgerhold.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

func (s *accountsStore) RenameAccount(
	ctx context.Context, address, name string,
) (*domain.AssetsList, error) {
	return s.updateAccount(ctx, address, func(account *domain.AssetsList) {
		account.Name = name
	})
}

func (s *accountsStore) UpdateTokenWallets(
	ctx context.Context, address, group string, roots map[string]bool,
) (*domain.AssetsList, error) {
	return s.updateAccount(ctx, address, func(account *domain.AssetsList) {
		for root, enabled := range roots {
			if enabled {
				account.AddTokenWallet(group, root)
			} else {
				account.RemoveTokenWallet(group, root)
			}
		}
	})
}

func (s *accountsStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.store.DeleteMatching(domain.AssetsList{}, nil)
}

func (s *accountsStore) Close() {
	s.store.Close()
}

func (s *accountsStore) updateAccount(
	_ context.Context, address string, updateFn func(*domain.AssetsList),
) (*domain.AssetsList, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var account domain.AssetsList
	if err := s.store.Get(address, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
		}
		return nil, err
	}

	updateFn(&account)

	if err := s.store.Update(address, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
