package dbbadger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type kvEntry struct {
	Key   string
	Value json.RawMessage
}

type kvStore struct {
	store *badgerhold.Store
}

// NewStorage returns the durable key/value store of the wallet.
func NewStorage(dbManager *DbManager) ports.Storage {
	return &kvStore{dbManager.Store}
}

// NewSessionStorage returns the key/value store that lives as long as the
// daemon process.
func NewSessionStorage(dbManager *DbManager) ports.SessionStorage {
	return &kvStore{dbManager.SessionStore}
}

func (s *kvStore) Get(
	_ context.Context, key string, value interface{},
) (bool, error) {
	var entry kvEntry
	if err := s.store.Get(key, &entry); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(entry.Value, value); err != nil {
		return true, err
	}
	return true, nil
}

func (s *kvStore) Set(_ context.Context, key string, value interface{}) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.store.Upsert(key, &kvEntry{key, buf})
}

func (s *kvStore) Remove(_ context.Context, keys ...string) error {
	return s.store.Badger().Update(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := s.store.TxDelete(tx, key, kvEntry{}); err != nil &&
				!errors.Is(err, badgerhold.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

func (s *kvStore) GetAll(_ context.Context) (map[string][]byte, error) {
	var entries []kvEntry
	if err := s.store.Find(&entries, nil); err != nil {
		return nil, err
	}

	all := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		all[entry.Key] = entry.Value
	}
	return all, nil
}

func (s *kvStore) Close() {
	s.store.Close()
}
