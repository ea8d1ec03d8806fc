package ports

import (
	"context"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
)

// WalletEngine is the cryptographic wallet engine. It knows how to derive
// addresses and decode contract data, it never leaves key material to the
// daemon.
type WalletEngine interface {
	ComputeWalletAddress(
		ctx context.Context, workchain int8, publicKey string,
		contractType domain.ContractType,
	) (string, error)
	// ParseWalletTransactions fills the Info of the given transactions of a
	// wallet contract.
	ParseWalletTransactions(
		ctx context.Context, contractType domain.ContractType,
		transactions []domain.Transaction,
	) ([]domain.Transaction, error)
	// ParseTokenTransactions decodes the transactions of a token wallet.
	ParseTokenTransactions(
		ctx context.Context, rootTokenContract string,
		transactions []domain.Transaction,
	) ([]domain.TokenWalletTransaction, error)
	GetCustodians(
		ctx context.Context, contractType domain.ContractType, boc string,
	) ([]string, error)
	GetMultisigPendingTransactions(
		ctx context.Context, contractType domain.ContractType, boc string,
	) ([]domain.MultisigPendingTransaction, error)
	EstimateFees(
		ctx context.Context, address string, message domain.SignedMessage,
	) (string, error)
	// DecodeTokenRootDetails decodes the state of a token root contract.
	DecodeTokenRootDetails(
		ctx context.Context, rootBoc, owner string,
	) (*domain.TokenRootDetails, error)
	// DecodeTokenWalletBalance decodes the state of a token wallet contract.
	DecodeTokenWalletBalance(ctx context.Context, walletBoc string) (string, error)
}

// KeyStore is the registry of keys held by the wallet engine.
type KeyStore interface {
	GetKeys(ctx context.Context) ([]domain.KeyStoreEntry, error)
	Clear(ctx context.Context) error
}
