package gql

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/evrwallet/evrwallet-daemon/pkg/stats"
)

// TokenDecoder decodes the state of token contracts. The graphql api only
// exposes raw account states, so the wallet engine does the decoding.
type TokenDecoder interface {
	DecodeTokenRootDetails(
		ctx context.Context, rootBoc, owner string,
	) (*domain.TokenRootDetails, error)
	DecodeTokenWalletBalance(ctx context.Context, walletBoc string) (string, error)
}

type transport struct {
	sender  *Sender
	decoder TokenDecoder
	closed  atomic.Bool
}

// NewTransport returns a ports.Transport talking to the graphql endpoints of
// the given params.
func NewTransport(
	client *httpclient.Client, params domain.GqlParams, decoder TokenDecoder,
	metrics *stats.Metrics,
) (ports.Transport, error) {
	if decoder == nil {
		return nil, ErrMissingDecoder
	}
	sender, err := NewSender(client, params)
	if err != nil {
		return nil, err
	}
	sender.metrics = metrics
	return &transport{sender: sender, decoder: decoder}, nil
}

func (t *transport) GetFullContractState(
	ctx context.Context, address string,
) (*domain.ContractState, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	var data accountStateData
	vars := map[string]interface{}{"address": address}
	if err := t.sender.Send(ctx, accountStateQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.toDomain()
}

func (t *transport) GetTransactions(
	ctx context.Context, address string, fromLt uint64, limit uint8,
) ([]domain.Transaction, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	vars := map[string]interface{}{
		"address": address,
		"limit":   int(limit),
	}
	if fromLt > 0 {
		vars["fromLt"] = strconv.FormatUint(fromLt, 10)
	}

	var data transactionsData
	query := transactionsQuery(fromLt > 0)
	if err := t.sender.Send(ctx, query, vars, &data); err != nil {
		return nil, err
	}

	txs := make([]domain.Transaction, 0, len(data.Transactions))
	for _, raw := range data.Transactions {
		tx, err := raw.toDomain()
		if err != nil {
			return nil, fmt.Errorf("invalid transaction %s: %w", raw.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (t *transport) SendMessage(
	ctx context.Context, _ string, message domain.SignedMessage,
) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}

	vars := map[string]interface{}{
		"requests": []postRequest{{
			ID:       message.Hash,
			Body:     message.Boc,
			ExpireAt: int64(message.ExpireAt) * 1000,
		}},
	}
	return t.sender.Send(ctx, postRequestsMutation, vars, nil)
}

func (t *transport) GetTokenRootDetails(
	ctx context.Context, rootTokenContract, owner string,
) (*domain.TokenRootDetails, error) {
	boc, err := t.deployedState(ctx, rootTokenContract)
	if err != nil {
		return nil, err
	}
	return t.decoder.DecodeTokenRootDetails(ctx, boc, owner)
}

func (t *transport) GetTokenWalletBalance(
	ctx context.Context, tokenWallet string,
) (string, error) {
	boc, err := t.deployedState(ctx, tokenWallet)
	if err != nil {
		return "", err
	}
	return t.decoder.DecodeTokenWalletBalance(ctx, boc)
}

func (t *transport) Free() {
	if t.closed.CompareAndSwap(false, true) {
		t.sender.Close()
	}
}

func (t *transport) deployedState(ctx context.Context, address string) (string, error) {
	state, err := t.GetFullContractState(ctx, address)
	if err != nil {
		return "", err
	}
	if state == nil || !state.IsDeployed {
		return "", fmt.Errorf("%s: %w", address, ErrContractNotDeployed)
	}
	return state.Boc, nil
}
