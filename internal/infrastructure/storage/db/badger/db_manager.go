package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	storageDir  = "storage"
	accountsDir = "accounts"

	gcInterval     = 30 * time.Minute
	gcDiscardRatio = 0.5
)

// DbManager holds all the badgerhold stores in a single data structure. The
// session store is always kept in memory so that it's reset on every restart.
type DbManager struct {
	Store         *badgerhold.Store
	AccountsStore *badgerhold.Store
	SessionStore  *badgerhold.Store
}

// NewDbManager opens (or creates if not exists) the badger stores on disk. It
// expects a base data dir and an optional logger. With an empty base dir,
// every store is kept in memory.
func NewDbManager(baseDbDir string, logger badger.Logger) (*DbManager, error) {
	var mainDir, accDir string
	if len(baseDbDir) > 0 {
		mainDir = filepath.Join(baseDbDir, storageDir)
		accDir = filepath.Join(baseDbDir, accountsDir)
	}

	store, err := createDb(mainDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	accountsStore, err := createDb(accDir, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening accounts db: %w", err)
	}

	sessionStore, err := createDb("", logger)
	if err != nil {
		store.Close()
		accountsStore.Close()
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	return &DbManager{
		Store:         store,
		AccountsStore: accountsStore,
		SessionStore:  sessionStore,
	}, nil
}

// Close closes every store.
func (d *DbManager) Close() {
	d.Store.Close()
	d.AccountsStore.Close()
	d.SessionStore.Close()
}

// NewLogger returns a badger.Logger writing through logrus.
func NewLogger() badger.Logger {
	return log.WithField("component", "badger")
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(gcInterval)

		go func() {
			for range ticker.C {
				if db.Badger().IsClosed() {
					ticker.Stop()
					return
				}
				if err := db.Badger().RunValueLogGC(gcDiscardRatio); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}
