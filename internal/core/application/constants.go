package application

import "time"

// Supported db types
const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

// Polling tiers
const (
	DefaultIntensivePollingInterval  = 10 * time.Second
	DefaultBackgroundPollingInterval = 2 * time.Minute
)

const (
	DefaultConnectionTestTimeout = 10 * time.Second
	DefaultInitialSyncAttempts   = 5
	DefaultInitialSyncRetryDelay = 5 * time.Second

	clockSyncTimeout   = 5 * time.Second
	clockCheckInterval = time.Second
	clockMaxDrift      = 2000 * time.Millisecond

	// transactions fetched per poll or preload.
	transactionsPageSize = 16

	notificationTimeout = 30 * time.Second
)

// Event types emitted to the listeners registered with RegisterEventListener.
const (
	EventStateChanged         = "stateChanged"
	EventTransactionsFound    = "transactionsFound"
	EventTokenTransactions    = "tokenTransactionsFound"
	EventMessageSent          = "messageSent"
	EventMessageExpired       = "messageExpired"
	EventConnectionChanged    = "connectionChanged"
	EventUnconfirmedChanged   = "unconfirmedTransactionsChanged"
	EventCustodiansChanged    = "custodiansChanged"
	EventTokenBalanceChanged  = "tokenBalanceChanged"
	EventMultisigAggregations = "multisigTransactionsChanged"
)
