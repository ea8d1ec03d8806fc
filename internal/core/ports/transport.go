package ports

import (
	"context"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
)

// Transport is the capability of querying and sending messages to one
// blockchain network, either over GraphQL or JRPC.
type Transport interface {
	// GetFullContractState returns the state of the contract at the given
	// address, or nil if the contract does not exist.
	GetFullContractState(
		ctx context.Context, address string,
	) (*domain.ContractState, error)
	// GetTransactions returns at most limit transactions of the given address,
	// starting from the one with logical time fromLt (included) and going
	// backwards. fromLt 0 means from the head.
	GetTransactions(
		ctx context.Context, address string, fromLt uint64, limit uint8,
	) ([]domain.Transaction, error)
	// SendMessage broadcasts an external message to the given address.
	SendMessage(
		ctx context.Context, address string, message domain.SignedMessage,
	) error
	// GetTokenRootDetails returns the details of a token root contract and the
	// address of the token wallet of owner.
	GetTokenRootDetails(
		ctx context.Context, rootTokenContract, owner string,
	) (*domain.TokenRootDetails, error)
	// GetTokenWalletBalance returns the balance of a token wallet.
	GetTokenWalletBalance(ctx context.Context, tokenWallet string) (string, error)
	// Free releases the resources held by the transport. It's called exactly
	// once when a connection is superseded.
	Free()
}

// TransportFactory builds a Transport for each kind of connection.
type TransportFactory interface {
	NewGqlTransport(params domain.GqlParams) (Transport, error)
	NewJrpcTransport(params domain.JrpcParams) (Transport, error)
}
