package jrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/google/uuid"
)

var (
	// ErrTransportClosed is returned after the transport has been freed.
	ErrTransportClosed = errors.New("transport is closed")
	// ErrInvalidEndpoint ...
	ErrInvalidEndpoint = errors.New("jrpc endpoint must be a valid url")
)

type transport struct {
	client   *httpclient.Client
	endpoint string
	closed   atomic.Bool
}

// NewTransport returns a ports.Transport speaking JSON-RPC 2.0 with the
// endpoint of the given params.
func NewTransport(
	client *httpclient.Client, params domain.JrpcParams,
) (ports.Transport, error) {
	if client == nil {
		return nil, fmt.Errorf("missing http client")
	}
	if _, err := url.ParseRequestURI(params.Endpoint); err != nil {
		return nil, ErrInvalidEndpoint
	}
	return &transport{client: client, endpoint: params.Endpoint}, nil
}

func (t *transport) GetFullContractState(
	ctx context.Context, address string,
) (*domain.ContractState, error) {
	var result contractStateResult
	if err := t.call(
		ctx, methodGetContractState, addressParams{address}, &result,
	); err != nil {
		return nil, err
	}
	return result.toDomain()
}

func (t *transport) GetTransactions(
	ctx context.Context, address string, fromLt uint64, limit uint8,
) ([]domain.Transaction, error) {
	params := transactionsParams{Address: address, Limit: limit}
	if fromLt > 0 {
		params.LastTransactionLt = strconv.FormatUint(fromLt, 10)
	}

	txs := make([]domain.Transaction, 0)
	if err := t.call(ctx, methodGetTransactionsList, params, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (t *transport) SendMessage(
	ctx context.Context, _ string, message domain.SignedMessage,
) error {
	return t.call(ctx, methodSendMessage, sendMessageParams{message.Boc}, nil)
}

func (t *transport) GetTokenRootDetails(
	ctx context.Context, rootTokenContract, owner string,
) (*domain.TokenRootDetails, error) {
	var details domain.TokenRootDetails
	params := tokenRootParams{rootTokenContract, owner}
	if err := t.call(ctx, methodGetTokenRootDetails, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (t *transport) GetTokenWalletBalance(
	ctx context.Context, tokenWallet string,
) (string, error) {
	var result balanceResult
	if err := t.call(
		ctx, methodGetTokenWalletBalance, addressParams{tokenWallet}, &result,
	); err != nil {
		return "", err
	}
	return result.Balance, nil
}

func (t *transport) Free() {
	t.closed.Store(true)
}

func (t *transport) call(
	ctx context.Context, method string, params, out interface{},
) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}

	req := request{
		JSONRPC: jsonrpcVersion,
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	}
	var resp response
	if err := t.client.PostJSON(ctx, t.endpoint, req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if resp.ID != req.ID {
		return fmt.Errorf("jrpc: response id %s does not match request", resp.ID)
	}
	if out == nil || len(resp.Result) <= 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("jrpc: failed to decode %s result: %w", method, err)
	}
	return nil
}
