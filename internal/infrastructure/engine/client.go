package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
)

// Client reaches the wallet engine over its HTTP/JSON api. It serves both as
// ports.WalletEngine and as ports.KeyStore.
type Client struct {
	client  *httpclient.Client
	baseURL string
}

var (
	_ ports.WalletEngine = (*Client)(nil)
	_ ports.KeyStore     = (*Client)(nil)
)

func NewClient(client *httpclient.Client, addr string) (*Client, error) {
	if client == nil {
		return nil, fmt.Errorf("missing http client")
	}
	if _, err := url.ParseRequestURI(addr); err != nil {
		return nil, fmt.Errorf("invalid engine address: %w", err)
	}
	return &Client{client, strings.TrimSuffix(addr, "/")}, nil
}

func (c *Client) ComputeWalletAddress(
	ctx context.Context, workchain int8, publicKey string,
	contractType domain.ContractType,
) (string, error) {
	req := addressRequest{workchain, publicKey, contractType}
	var resp addressResponse
	if err := c.post(ctx, "/v1/address", req, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

func (c *Client) ParseWalletTransactions(
	ctx context.Context, contractType domain.ContractType,
	transactions []domain.Transaction,
) ([]domain.Transaction, error) {
	req := parseTransactionsRequest{contractType, transactions}
	var resp parseTransactionsResponse
	if err := c.post(ctx, "/v1/transaction/parse", req, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (c *Client) ParseTokenTransactions(
	ctx context.Context, rootTokenContract string,
	transactions []domain.Transaction,
) ([]domain.TokenWalletTransaction, error) {
	req := parseTokenTransactionsRequest{rootTokenContract, transactions}
	var resp parseTokenTransactionsResponse
	if err := c.post(ctx, "/v1/token-transaction/parse", req, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (c *Client) GetCustodians(
	ctx context.Context, contractType domain.ContractType, boc string,
) ([]string, error) {
	var resp custodiansResponse
	if err := c.post(
		ctx, "/v1/custodians", contractStateRequest{contractType, boc}, &resp,
	); err != nil {
		return nil, err
	}
	return resp.Custodians, nil
}

func (c *Client) GetMultisigPendingTransactions(
	ctx context.Context, contractType domain.ContractType, boc string,
) ([]domain.MultisigPendingTransaction, error) {
	var resp pendingTransactionsResponse
	if err := c.post(
		ctx, "/v1/multisig/pending", contractStateRequest{contractType, boc}, &resp,
	); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (c *Client) EstimateFees(
	ctx context.Context, address string, message domain.SignedMessage,
) (string, error) {
	var resp feesResponse
	if err := c.post(
		ctx, "/v1/fees", feesRequest{address, message}, &resp,
	); err != nil {
		return "", err
	}
	return resp.Fees, nil
}

func (c *Client) DecodeTokenRootDetails(
	ctx context.Context, rootBoc, owner string,
) (*domain.TokenRootDetails, error) {
	var details domain.TokenRootDetails
	if err := c.post(
		ctx, "/v1/token-root/decode", tokenRootRequest{rootBoc, owner}, &details,
	); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) DecodeTokenWalletBalance(
	ctx context.Context, walletBoc string,
) (string, error) {
	var resp domain.TokenWalletState
	if err := c.post(
		ctx, "/v1/token-wallet/decode", tokenWalletRequest{walletBoc}, &resp,
	); err != nil {
		return "", err
	}
	return resp.Balance, nil
}

func (c *Client) GetKeys(ctx context.Context) ([]domain.KeyStoreEntry, error) {
	var resp keysResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/v1/keys", &resp); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if resp.Keys == nil {
		return []domain.KeyStoreEntry{}, nil
	}
	return resp.Keys, nil
}

func (c *Client) Clear(ctx context.Context) error {
	return c.post(ctx, "/v1/keys/clear", struct{}{}, nil)
}

func (c *Client) post(
	ctx context.Context, path string, in, out interface{},
) error {
	if err := c.client.PostJSON(ctx, c.baseURL+path, in, out); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
