package application

import (
	"context"
	"sync"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// TokenHandlers are the callbacks of a TokenWalletSubscription.
type TokenHandlers struct {
	OnBalanceChanged    func(balance string)
	OnTransactionsFound func(txs []domain.TokenWalletTransaction, info domain.BatchInfo)
}

// TokenWalletSubscription polls the token wallet of an owner for one root
// token contract.
type TokenWalletSubscription struct {
	*contractSubscription

	owner       string
	root        string
	tokenWallet string
	symbol      domain.TokenSymbol
	handlers    TokenHandlers

	lock    sync.RWMutex
	balance string
	lastLt  uint64
}

// SubscribeTokenWallet resolves the token wallet of owner and its symbol
// and creates its subscription.
func SubscribeTokenWallet(
	ctx context.Context, deps subscriptionDeps, owner, root string,
	handlers TokenHandlers,
) (*TokenWalletSubscription, error) {
	var details *domain.TokenRootDetails
	err := deps.connection.Use(ctx, func(conn *InitializedConnection) error {
		var err error
		details, err = conn.Transport.GetTokenRootDetails(ctx, root, owner)
		return err
	})
	if err != nil {
		return nil, wrapTransportError(err)
	}
	if details == nil {
		return nil, domain.NewRpcError(
			domain.ResourceUnavailable, "Token root contract %s not found", root,
		)
	}

	symbol := details.Symbol
	symbol.RootTokenContract = root

	t := &TokenWalletSubscription{
		contractSubscription: newContractSubscription(
			details.TokenWalletAddress, subscriptionKindToken, deps,
		),
		owner:       owner,
		root:        root,
		tokenWallet: details.TokenWalletAddress,
		symbol:      symbol,
		handlers:    handlers,
		balance:     "0",
	}
	t.poll = t.refresh
	return t, nil
}

func (t *TokenWalletSubscription) Owner() string {
	return t.owner
}

func (t *TokenWalletSubscription) RootTokenContract() string {
	return t.root
}

func (t *TokenWalletSubscription) TokenWallet() string {
	return t.tokenWallet
}

func (t *TokenWalletSubscription) Symbol() domain.TokenSymbol {
	return t.symbol
}

func (t *TokenWalletSubscription) Balance() string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.balance
}

// PreloadTransactions fetches a page of history older than fromLt and
// reports it as an old batch.
func (t *TokenWalletSubscription) PreloadTransactions(
	ctx context.Context, fromLt uint64,
) error {
	return t.Use(func() error {
		return t.deps.connection.Use(ctx, func(conn *InitializedConnection) error {
			txs, err := conn.Transport.GetTransactions(
				ctx, t.tokenWallet, fromLt, transactionsPageSize,
			)
			if err != nil {
				return wrapTransportError(err)
			}
			return t.emitTransactions(ctx, txs, domain.BatchTypeOld)
		})
	})
}

func (t *TokenWalletSubscription) refresh(ctx context.Context, first bool) error {
	return t.deps.connection.Use(ctx, func(conn *InitializedConnection) error {
		state, err := conn.Transport.GetFullContractState(ctx, t.tokenWallet)
		if err != nil {
			return wrapTransportError(err)
		}
		if state == nil {
			// the token wallet is deployed with the first transfer.
			if first && t.handlers.OnBalanceChanged != nil {
				t.handlers.OnBalanceChanged("0")
			}
			return nil
		}

		t.lock.RLock()
		prevLt := t.lastLt
		t.lock.RUnlock()

		if !first && state.LastLt() <= prevLt {
			return nil
		}

		balance, err := conn.Transport.GetTokenWalletBalance(ctx, t.tokenWallet)
		if err != nil {
			return wrapTransportError(err)
		}

		t.lock.Lock()
		balanceChanged := first || balance != t.balance
		t.balance = balance
		t.lock.Unlock()

		if balanceChanged && t.handlers.OnBalanceChanged != nil {
			t.handlers.OnBalanceChanged(balance)
		}

		if state.LastLt() <= 0 {
			return nil
		}

		var txs []domain.Transaction
		batchType := domain.BatchTypeNew
		if first {
			batchType = domain.BatchTypeOld
			txs, err = conn.Transport.GetTransactions(
				ctx, t.tokenWallet, state.LastLt(), transactionsPageSize,
			)
		} else {
			txs, err = fetchNewTransactions(
				ctx, conn.Transport, t.tokenWallet, state.LastLt(), prevLt,
			)
		}
		if err != nil {
			return wrapTransportError(err)
		}
		if err := t.emitTransactions(ctx, txs, batchType); err != nil {
			return err
		}

		t.lock.Lock()
		if state.LastLt() > t.lastLt {
			t.lastLt = state.LastLt()
		}
		t.lock.Unlock()
		return nil
	})
}

func (t *TokenWalletSubscription) emitTransactions(
	ctx context.Context, txs []domain.Transaction, batchType string,
) error {
	if len(txs) <= 0 {
		return nil
	}
	parsed, err := t.deps.engine.ParseTokenTransactions(ctx, t.root, txs)
	if err != nil {
		return wrapTransportError(err)
	}

	info := domain.NewBatchInfo(domain.TokenTransactionIDs(parsed), batchType)
	t.deps.metrics.AddTransactionsFound(t.kind, batchType, len(parsed))
	if t.handlers.OnTransactionsFound != nil {
		t.handlers.OnTransactionsFound(parsed, info)
	}
	return nil
}

func logPollError(address, what string, err error) {
	log.WithError(err).Debugf("failed to fetch %s of %s", what, address)
}
