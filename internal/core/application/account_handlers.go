package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	titleNewTransaction         = "New transaction found"
	titleNewMultisigTransaction = "New multisig transaction found"
	titleMultisigConfirmation   = "Multisig transaction confirmation"
	titleNewTokenTransaction    = "New token transaction found"
)

// TransactionsFound is the payload of the transactions events.
type TransactionsFound struct {
	Transactions interface{}      `json:"transactions"`
	Info         domain.BatchInfo `json:"info"`
}

func (s *accountService) walletHandlers(
	address string, contractType domain.ContractType,
) WalletHandlers {
	details := domain.GetWalletDetails(contractType)
	return WalletHandlers{
		OnStateChanged: func(state domain.ContractState) {
			s.updateWalletState(address, state)
		},
		OnTransactionsFound: func(txs []domain.Transaction, info domain.BatchInfo) {
			s.updateTransactions(address, details, txs, info)
		},
		OnMessageSent: func(pending domain.PendingTransaction, tx *domain.Transaction) {
			s.clearPendingTransaction(address, pending.MessageHash, true)
			if tx != nil && s.requests.resolve(address, pending.MessageHash, *tx) {
				s.metrics.IncSettledMessages("sent")
			}
			s.metrics.SetPendingMessages(s.requests.count())
			s.publish(Event{Type: EventMessageSent, Address: address, Payload: pending})
		},
		OnMessageExpired: func(pending domain.PendingTransaction) {
			s.clearPendingTransaction(address, pending.MessageHash, false)
			if s.requests.reject(address, pending.MessageHash, errMessageExpired()) {
				s.metrics.IncSettledMessages("expired")
			}
			s.metrics.SetPendingMessages(s.requests.count())
			s.publish(Event{Type: EventMessageExpired, Address: address, Payload: pending})
		},
		OnUnconfirmedTransactionsChanged: func(txs []domain.MultisigPendingTransaction) {
			s.updateUnconfirmedTransactions(address, txs)
		},
		OnCustodiansChanged: func(custodians []string) {
			s.stateLock.Lock()
			s.state.AccountCustodians[address] = append([]string{}, custodians...)
			s.stateLock.Unlock()
			s.publish(Event{Type: EventCustodiansChanged, Address: address, Payload: custodians})
		},
	}
}

func (s *accountService) tokenHandlers(owner, root string) TokenHandlers {
	return TokenHandlers{
		OnBalanceChanged: func(balance string) {
			s.stateLock.Lock()
			byRoot, ok := s.state.AccountTokenStates[owner]
			if !ok {
				byRoot = make(map[string]domain.TokenWalletState)
				s.state.AccountTokenStates[owner] = byRoot
			}
			byRoot[root] = domain.TokenWalletState{Balance: balance}
			s.stateLock.Unlock()

			s.publish(Event{
				Type:              EventTokenBalanceChanged,
				Address:           owner,
				RootTokenContract: root,
				Payload:           balance,
			})
		},
		OnTransactionsFound: func(txs []domain.TokenWalletTransaction, info domain.BatchInfo) {
			s.updateTokenTransactions(owner, root, txs, info)
		},
	}
}

func (s *accountService) updateWalletState(address string, state domain.ContractState) {
	s.stateLock.Lock()
	current, ok := s.state.AccountContractStates[address]
	if ok && current.Equal(state) {
		s.stateLock.Unlock()
		return
	}
	s.state.AccountContractStates[address] = state
	s.stateLock.Unlock()

	s.publish(Event{Type: EventStateChanged, Address: address, Payload: state})
}

func (s *accountService) updateTransactions(
	address string, details domain.WalletDetails,
	txs []domain.Transaction, info domain.BatchInfo,
) {
	if len(txs) <= 0 {
		return
	}

	ids := domain.TransactionIDs(txs)
	s.watermarkLock.Lock()
	watermark := s.lastTransactions[address].Lt
	found := domain.FindNewTransactions(ids, info, watermark)
	if next, ok := domain.NextWatermark(ids, found, watermark); ok {
		s.lastTransactions[address] = next
		s.persistWatermarks(context.Background())
	}
	s.watermarkLock.Unlock()

	if len(found) > 0 {
		group := s.currentGroup()
		for _, i := range found {
			s.notify(walletNotification(group, txs[i]))
		}
	}

	s.stateLock.Lock()
	s.state.AccountTransactions[address] = domain.MergeTransactions(
		s.state.AccountTransactions[address], txs,
	)
	multisigChanged := false
	if details.SupportsMultipleOwners {
		aggregates, ok := s.state.AccountMultisigTransactions[address]
		if !ok {
			aggregates = make(domain.MultisigAggregates)
		}
		if domain.AggregateMultisigTransactions(aggregates, txs) {
			s.state.AccountMultisigTransactions[address] = aggregates
			multisigChanged = true
		}
	}
	s.stateLock.Unlock()

	s.publish(Event{
		Type:    EventTransactionsFound,
		Address: address,
		Payload: TransactionsFound{txs, info},
	})
	if multisigChanged {
		s.publish(Event{Type: EventMultisigAggregations, Address: address})
	}
}

func (s *accountService) updateTokenTransactions(
	owner, root string, txs []domain.TokenWalletTransaction, info domain.BatchInfo,
) {
	if len(txs) <= 0 {
		return
	}

	ids := domain.TokenTransactionIDs(txs)
	s.watermarkLock.Lock()
	watermark := s.lastTokenTransactions[owner][root].Lt
	found := domain.FindNewTransactions(ids, info, watermark)
	if next, ok := domain.NextWatermark(ids, found, watermark); ok {
		byRoot, ok := s.lastTokenTransactions[owner]
		if !ok {
			byRoot = make(map[string]domain.TransactionID)
			s.lastTokenTransactions[owner] = byRoot
		}
		byRoot[root] = next
		s.persistWatermarks(context.Background())
	}
	s.watermarkLock.Unlock()

	s.stateLock.Lock()
	symbol, known := s.state.KnownTokens[root]
	byRoot, ok := s.state.AccountTokenTransactions[owner]
	if !ok {
		byRoot = make(map[string][]domain.TokenWalletTransaction)
		s.state.AccountTokenTransactions[owner] = byRoot
	}
	byRoot[root] = domain.MergeTokenTransactions(byRoot[root], txs)
	s.stateLock.Unlock()

	if known && len(found) > 0 {
		group := s.currentGroup()
		for _, i := range found {
			if notification, ok := tokenNotification(group, symbol, txs[i]); ok {
				s.notify(notification)
			}
		}
	}

	s.publish(Event{
		Type:              EventTokenTransactions,
		Address:           owner,
		RootTokenContract: root,
		Payload:           TransactionsFound{txs, info},
	})
}

func (s *accountService) updateUnconfirmedTransactions(
	address string, txs []domain.MultisigPendingTransaction,
) {
	entries := make(map[string]domain.MultisigPendingTransaction, len(txs))
	for _, tx := range txs {
		entries[tx.ID] = tx
	}

	s.stateLock.Lock()
	s.state.AccountUnconfirmedTransactions[address] = entries
	s.stateLock.Unlock()

	s.publish(Event{Type: EventUnconfirmedChanged, Address: address, Payload: txs})
}

// clearPendingTransaction drops the stored info of a message, moving it to
// the failed ones if it wasn't sent.
func (s *accountService) clearPendingTransaction(address, hash string, sent bool) {
	s.stateLock.Lock()
	pending := s.state.AccountPendingTransactions[address]
	info, ok := pending[hash]
	if !ok {
		s.stateLock.Unlock()
		return
	}
	delete(pending, hash)
	if !sent {
		failed, ok := s.state.AccountFailedTransactions[address]
		if !ok {
			failed = make(map[string]domain.StoredMessageInfo)
			s.state.AccountFailedTransactions[address] = failed
		}
		failed[hash] = info
	}
	s.stateLock.Unlock()

	s.publish(Event{Type: EventStateChanged, Address: address})
}

func (s *accountService) loadWatermarks(ctx context.Context) {
	lastTransactions := make(map[string]domain.TransactionID)
	if _, err := s.session.Get(
		ctx, ports.LastTransactionsKey, &lastTransactions,
	); err != nil {
		log.WithError(err).Warn("failed to load transaction watermarks")
	}
	lastTokenTransactions := make(map[string]map[string]domain.TransactionID)
	if _, err := s.session.Get(
		ctx, ports.LastTokenTransactionsKey, &lastTokenTransactions,
	); err != nil {
		log.WithError(err).Warn("failed to load token transaction watermarks")
	}
	if lastTransactions == nil {
		lastTransactions = make(map[string]domain.TransactionID)
	}
	if lastTokenTransactions == nil {
		lastTokenTransactions = make(map[string]map[string]domain.TransactionID)
	}

	s.watermarkLock.Lock()
	s.lastTransactions = lastTransactions
	s.lastTokenTransactions = lastTokenTransactions
	s.watermarkLock.Unlock()
}

// persistWatermarks must be called with watermarkLock held, that keeps the
// writes ordered. Failures are only logged.
func (s *accountService) persistWatermarks(ctx context.Context) {
	if err := s.session.Set(
		ctx, ports.LastTransactionsKey, s.lastTransactions,
	); err != nil {
		log.WithError(err).Warn("failed to persist transaction watermarks")
	}
	if err := s.session.Set(
		ctx, ports.LastTokenTransactionsKey, s.lastTokenTransactions,
	); err != nil {
		log.WithError(err).Warn("failed to persist token transaction watermarks")
	}
}

// notify delivers the notification in background.
func (s *accountService) notify(notification ports.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()

		if err := s.notifier.ShowNotification(ctx, notification); err != nil {
			s.metrics.IncNotificationFailures()
			log.WithError(err).Warn("failed to deliver notification")
		}
	}()
}

func walletNotification(group string, tx domain.Transaction) ports.Notification {
	title := titleNewTransaction
	if method, ok := tx.MultisigMethod(); ok {
		switch method.Type {
		case domain.MultisigConfirm:
			title = titleMultisigConfirmation
		case domain.MultisigSubmit:
			title = titleNewMultisigTransaction
		}
	}

	counterpart, incoming := domain.TransactionDirection(tx)
	direction := "to"
	if incoming {
		direction = "from"
	}
	body := fmt.Sprintf(
		"%s %s %s %s",
		domain.ConvertCurrency(tx.Value(), domain.NativeDecimals),
		domain.NativeCurrency, direction, domain.ConvertAddress(counterpart),
	)

	return ports.Notification{
		Title: title,
		Body:  body,
		Link:  domain.TransactionExplorerLink(group, tx.ID.Hash),
	}
}

func tokenNotification(
	group string, symbol domain.TokenSymbol, tx domain.TokenWalletTransaction,
) (ports.Notification, bool) {
	if tx.TokenInfo == nil || tx.TokenInfo.Value == "" {
		return ports.Notification{}, false
	}

	direction := "from"
	if strings.HasPrefix(tx.TokenInfo.Value, "-") {
		direction = "to"
	}
	body := fmt.Sprintf(
		"%s %s %s %s",
		domain.ConvertCurrency(tx.TokenInfo.Value, symbol.Decimals),
		symbol.Name, direction, tx.TokenInfo.Address,
	)

	return ports.Notification{
		Title: titleNewTokenTransaction,
		Body:  body,
		Link:  domain.TransactionExplorerLink(group, tx.ID.Hash),
	}, true
}
