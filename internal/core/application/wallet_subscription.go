package application

import (
	"context"
	"sync"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
)

// WalletHandlers are the callbacks of a WalletSubscription. Nil callbacks are
// skipped. They're called from the polling goroutine and must not stop the
// subscription.
type WalletHandlers struct {
	OnStateChanged                   func(state domain.ContractState)
	OnTransactionsFound              func(txs []domain.Transaction, info domain.BatchInfo)
	OnMessageSent                    func(pending domain.PendingTransaction, tx *domain.Transaction)
	OnMessageExpired                 func(pending domain.PendingTransaction)
	OnUnconfirmedTransactionsChanged func(txs []domain.MultisigPendingTransaction)
	OnCustodiansChanged              func(custodians []string)
}

// WalletSubscription polls the native wallet of one account.
type WalletSubscription struct {
	*contractSubscription

	publicKey    string
	contractType domain.ContractType
	details      domain.WalletDetails
	handlers     WalletHandlers

	lock       sync.RWMutex
	state      domain.ContractState
	custodians []string
	pending    map[string]domain.PendingTransaction

	// lt of the last transaction reported through OnTransactionsFound.
	processedLt uint64
}

// SubscribeWallet creates the subscription of the wallet derived from the
// given public key.
func SubscribeWallet(
	ctx context.Context, deps subscriptionDeps,
	workchain int8, publicKey string, contractType domain.ContractType,
	handlers WalletHandlers,
) (*WalletSubscription, error) {
	if !contractType.IsValid() {
		return nil, ErrUnknownContractType
	}
	address, err := deps.engine.ComputeWalletAddress(
		ctx, workchain, publicKey, contractType,
	)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	return newWalletSubscription(deps, address, publicKey, contractType, handlers), nil
}

// SubscribeWalletByAddress creates the subscription of a wallet whose
// address can't be derived, like the zero-state ones.
func SubscribeWalletByAddress(
	deps subscriptionDeps, address string, contractType domain.ContractType,
	handlers WalletHandlers,
) (*WalletSubscription, error) {
	if _, err := domain.ExtractAddressWorkchain(address); err != nil {
		return nil, domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}
	return newWalletSubscription(deps, address, "", contractType, handlers), nil
}

func newWalletSubscription(
	deps subscriptionDeps, address, publicKey string,
	contractType domain.ContractType, handlers WalletHandlers,
) *WalletSubscription {
	w := &WalletSubscription{
		contractSubscription: newContractSubscription(
			address, subscriptionKindWallet, deps,
		),
		publicKey:    publicKey,
		contractType: contractType,
		details:      domain.GetWalletDetails(contractType),
		handlers:     handlers,
		state:        domain.EmptyContractState(),
		pending:      make(map[string]domain.PendingTransaction),
	}
	w.poll = w.refresh
	return w
}

func (w *WalletSubscription) ContractType() domain.ContractType {
	return w.contractType
}

func (w *WalletSubscription) State() domain.ContractState {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.state
}

func (w *WalletSubscription) PendingTransactions() []domain.PendingTransaction {
	w.lock.RLock()
	defer w.lock.RUnlock()

	pending := make([]domain.PendingTransaction, 0, len(w.pending))
	for _, p := range w.pending {
		pending = append(pending, p)
	}
	return pending
}

// SendMessage broadcasts message and tracks it until its transaction is
// found or it expires.
func (w *WalletSubscription) SendMessage(
	ctx context.Context, message domain.SignedMessage,
) (*domain.PendingTransaction, error) {
	pending := domain.PendingTransaction{
		MessageHash: message.Hash,
		Src:         w.address,
		ExpireAt:    message.ExpireAt,
	}

	// pending is tracked before the poll lock is released so that the next
	// poll can't miss the transaction.
	err := w.Use(func() error {
		return w.deps.connection.Use(ctx, func(conn *InitializedConnection) error {
			if err := conn.Transport.SendMessage(ctx, w.address, message); err != nil {
				return wrapTransportError(err)
			}
			w.lock.Lock()
			w.pending[message.Hash] = pending
			w.lock.Unlock()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	w.SkipRefreshTimer()
	return &pending, nil
}

func (w *WalletSubscription) EstimateFees(
	ctx context.Context, message domain.SignedMessage,
) (string, error) {
	var fees string
	err := w.Use(func() error {
		var err error
		fees, err = w.deps.engine.EstimateFees(ctx, w.address, message)
		return wrapTransportError(err)
	})
	return fees, err
}

// GetMultisigPendingTransactions reads the unconfirmed transactions from the
// latest state of the wallet.
func (w *WalletSubscription) GetMultisigPendingTransactions(
	ctx context.Context,
) ([]domain.MultisigPendingTransaction, error) {
	if !w.details.SupportsMultipleOwners {
		return []domain.MultisigPendingTransaction{}, nil
	}
	state := w.State()
	txs, err := w.deps.engine.GetMultisigPendingTransactions(
		ctx, w.contractType, state.Boc,
	)
	return txs, wrapTransportError(err)
}

// PreloadTransactions fetches a page of history older than fromLt and
// reports it as an old batch.
func (w *WalletSubscription) PreloadTransactions(
	ctx context.Context, fromLt uint64,
) error {
	return w.Use(func() error {
		return w.deps.connection.Use(ctx, func(conn *InitializedConnection) error {
			txs, err := conn.Transport.GetTransactions(
				ctx, w.address, fromLt, transactionsPageSize,
			)
			if err != nil {
				return wrapTransportError(err)
			}
			return w.emitTransactions(ctx, txs, domain.BatchTypeOld)
		})
	})
}

func (w *WalletSubscription) refresh(ctx context.Context, first bool) error {
	return w.deps.connection.Use(ctx, func(conn *InitializedConnection) error {
		fetched, err := conn.Transport.GetFullContractState(ctx, w.address)
		if err != nil {
			return wrapTransportError(err)
		}
		state := domain.EmptyContractState()
		if fetched != nil {
			state = *fetched
		}

		w.lock.Lock()
		prev := w.state
		processedLt := w.processedLt
		w.state = state
		w.lock.Unlock()

		stateChanged := first || !prev.Equal(state)
		if stateChanged && w.handlers.OnStateChanged != nil {
			w.handlers.OnStateChanged(state)
		}

		var found []domain.Transaction
		switch {
		case first && state.LastLt() > 0:
			txs, err := conn.Transport.GetTransactions(
				ctx, w.address, state.LastLt(), transactionsPageSize,
			)
			if err != nil {
				return wrapTransportError(err)
			}
			if err := w.emitTransactions(ctx, txs, domain.BatchTypeOld); err != nil {
				return err
			}
			found = txs
		case !first && state.LastLt() > processedLt:
			txs, err := fetchNewTransactions(
				ctx, conn.Transport, w.address, state.LastLt(), processedLt,
			)
			if err != nil {
				return wrapTransportError(err)
			}
			if err := w.emitTransactions(ctx, txs, domain.BatchTypeNew); err != nil {
				return err
			}
			found = txs
		}

		w.lock.Lock()
		if state.LastLt() > w.processedLt {
			w.processedLt = state.LastLt()
		}
		w.lock.Unlock()

		w.settlePendingMessages(found)

		if w.details.SupportsMultipleOwners && state.IsDeployed &&
			(stateChanged || len(found) > 0) {
			w.refreshMultisig(ctx, state)
		}
		return nil
	})
}

func (w *WalletSubscription) emitTransactions(
	ctx context.Context, txs []domain.Transaction, batchType string,
) error {
	if len(txs) <= 0 {
		return nil
	}
	parsed, err := w.deps.engine.ParseWalletTransactions(ctx, w.contractType, txs)
	if err != nil {
		return wrapTransportError(err)
	}

	info := domain.NewBatchInfo(domain.TransactionIDs(parsed), batchType)
	w.deps.metrics.AddTransactionsFound(w.kind, batchType, len(parsed))
	if w.handlers.OnTransactionsFound != nil {
		w.handlers.OnTransactionsFound(parsed, info)
	}
	return nil
}

// settlePendingMessages reports the pending messages found in txs as sent
// and the ones past their expiration as expired.
func (w *WalletSubscription) settlePendingMessages(txs []domain.Transaction) {
	now := w.deps.clock.NowSec()

	type sentMessage struct {
		pending domain.PendingTransaction
		tx      domain.Transaction
	}
	sent := make([]sentMessage, 0)
	expired := make([]domain.PendingTransaction, 0)

	w.lock.Lock()
	for _, tx := range txs {
		if pending, ok := w.pending[tx.InMessage.Hash]; ok {
			delete(w.pending, tx.InMessage.Hash)
			sent = append(sent, sentMessage{pending, tx})
		}
	}
	for hash, pending := range w.pending {
		if pending.ExpireAt < now {
			delete(w.pending, hash)
			expired = append(expired, pending)
		}
	}
	w.lock.Unlock()

	for i := range sent {
		if w.handlers.OnMessageSent != nil {
			w.handlers.OnMessageSent(sent[i].pending, &sent[i].tx)
		}
	}
	for _, pending := range expired {
		if w.handlers.OnMessageExpired != nil {
			w.handlers.OnMessageExpired(pending)
		}
	}
}

func (w *WalletSubscription) refreshMultisig(
	ctx context.Context, state domain.ContractState,
) {
	custodians, err := w.deps.engine.GetCustodians(ctx, w.contractType, state.Boc)
	if err != nil {
		logPollError(w.address, "custodians", err)
	} else if w.setCustodians(custodians) && w.handlers.OnCustodiansChanged != nil {
		w.handlers.OnCustodiansChanged(custodians)
	}

	pending, err := w.deps.engine.GetMultisigPendingTransactions(
		ctx, w.contractType, state.Boc,
	)
	if err != nil {
		logPollError(w.address, "multisig pending transactions", err)
		return
	}
	if w.handlers.OnUnconfirmedTransactionsChanged != nil {
		w.handlers.OnUnconfirmedTransactionsChanged(pending)
	}
}

func (w *WalletSubscription) setCustodians(custodians []string) bool {
	w.lock.Lock()
	defer w.lock.Unlock()

	if equalStrings(w.custodians, custodians) {
		return false
	}
	w.custodians = append([]string{}, custodians...)
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
