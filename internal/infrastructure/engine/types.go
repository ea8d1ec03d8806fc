package engine

import "github.com/evrwallet/evrwallet-daemon/internal/core/domain"

type addressRequest struct {
	Workchain    int8                `json:"workchain"`
	PublicKey    string              `json:"publicKey"`
	ContractType domain.ContractType `json:"contractType"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type parseTransactionsRequest struct {
	ContractType domain.ContractType  `json:"contractType"`
	Transactions []domain.Transaction `json:"transactions"`
}

type parseTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type parseTokenTransactionsRequest struct {
	RootTokenContract string               `json:"rootTokenContract"`
	Transactions      []domain.Transaction `json:"transactions"`
}

type parseTokenTransactionsResponse struct {
	Transactions []domain.TokenWalletTransaction `json:"transactions"`
}

type contractStateRequest struct {
	ContractType domain.ContractType `json:"contractType"`
	Boc          string              `json:"boc"`
}

type custodiansResponse struct {
	Custodians []string `json:"custodians"`
}

type pendingTransactionsResponse struct {
	Transactions []domain.MultisigPendingTransaction `json:"transactions"`
}

type feesRequest struct {
	Address string               `json:"address"`
	Message domain.SignedMessage `json:"message"`
}

type feesResponse struct {
	Fees string `json:"fees"`
}

type tokenRootRequest struct {
	Boc   string `json:"boc"`
	Owner string `json:"owner"`
}

type tokenWalletRequest struct {
	Boc string `json:"boc"`
}

type keysResponse struct {
	Keys []domain.KeyStoreEntry `json:"keys"`
}
