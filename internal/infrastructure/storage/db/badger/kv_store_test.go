package dbbadger_test

import (
	"context"
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	dbbadger "github.com/evrwallet/evrwallet-daemon/internal/infrastructure/storage/db/badger"
	"github.com/stretchr/testify/require"
)

func newTestDbManager(t *testing.T, dir string) *dbbadger.DbManager {
	dbManager, err := dbbadger.NewDbManager(dir, nil)
	require.NoError(t, err)
	t.Cleanup(dbManager.Close)
	return dbManager
}

func TestKeyValueStore(t *testing.T) {
	t.Run("InMemory", testKeyValueStore(func(t *testing.T) ports.KeyValueStore {
		return dbbadger.NewStorage(newTestDbManager(t, ""))
	}))
	t.Run("OnDisk", testKeyValueStore(func(t *testing.T) ports.KeyValueStore {
		return dbbadger.NewStorage(newTestDbManager(t, t.TempDir()))
	}))
	t.Run("Session", testKeyValueStore(func(t *testing.T) ports.KeyValueStore {
		return dbbadger.NewSessionStorage(newTestDbManager(t, ""))
	}))
}

func testKeyValueStore(
	newStore func(t *testing.T) ports.KeyValueStore,
) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		var id int
		found, err := store.Get(ctx, ports.SelectedConnectionIDKey, &id)
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, store.Set(ctx, ports.SelectedConnectionIDKey, 4))
		found, err = store.Get(ctx, ports.SelectedConnectionIDKey, &id)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, 4, id)

		networks := []domain.ConnectionDataItem{{
			ID:    domain.CustomNetworkStartID,
			Name:  "My node",
			Group: "mainnet",
			Type:  domain.ConnectionTypeJrpc,
			Jrpc:  &domain.JrpcParams{Endpoint: "http://127.0.0.1/rpc"},
		}}
		require.NoError(t, store.Set(ctx, ports.CustomNetworksKey, networks))
		require.NoError(t, store.Set(ctx, ports.SelectedConnectionIDKey, 1000))

		var stored []domain.ConnectionDataItem
		found, err = store.Get(ctx, ports.CustomNetworksKey, &stored)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, networks, stored)

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.JSONEq(t, "1000", string(all[ports.SelectedConnectionIDKey]))

		require.NoError(t, store.Remove(ctx, ports.CustomNetworksKey, "missing"))
		found, err = store.Get(ctx, ports.CustomNetworksKey, &stored)
		require.NoError(t, err)
		require.False(t, found)

		all, err = store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	}
}

func TestStoragePersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	dbManager, err := dbbadger.NewDbManager(dir, nil)
	require.NoError(t, err)
	storage := dbbadger.NewStorage(dbManager)
	session := dbbadger.NewSessionStorage(dbManager)
	require.NoError(t, storage.Set(ctx, ports.SelectedAccountAddressKey, "0:aa"))
	require.NoError(t, session.Set(ctx, ports.LastTransactionsKey, map[string]string{"0:aa": "1"}))
	dbManager.Close()

	dbManager = newTestDbManager(t, dir)
	storage = dbbadger.NewStorage(dbManager)
	session = dbbadger.NewSessionStorage(dbManager)

	var address string
	found, err := storage.Get(ctx, ports.SelectedAccountAddressKey, &address)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "0:aa", address)

	found, err = session.Get(ctx, ports.LastTransactionsKey, &map[string]string{})
	require.NoError(t, err)
	require.False(t, found)
}
