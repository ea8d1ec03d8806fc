package httpinterface

import "github.com/evrwallet/evrwallet-daemon/internal/core/domain"

// Requests and responses of the REST api. They're exported so that clients
// like the operator CLI share them.

type ChangeNetworkRequest struct {
	ID int `json:"id"`
}

type CreateAccountsRequest struct {
	Accounts []domain.AccountToAdd `json:"accounts"`
}

type AddExternalAccountRequest struct {
	Address           string `json:"address"`
	PublicKey         string `json:"publicKey"`
	ExternalPublicKey string `json:"externalPublicKey"`
}

type RemoveAccountsRequest struct {
	Addresses []string `json:"addresses"`
}

type UpdateAccountRequest struct {
	Name    *string `json:"name,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
}

type UpdateTokenWalletsRequest struct {
	// RootTokenContracts maps every root to whether its wallet must be
	// enabled.
	RootTokenContracts map[string]bool `json:"rootTokenContracts"`
}

type EstimateFeesRequest struct {
	Message domain.SignedMessage `json:"message"`
}

type EstimateFeesResponse struct {
	Fees string `json:"fees"`
}

type SendMessageRequest struct {
	Message domain.SignedMessage      `json:"message"`
	Info    *domain.StoredMessageInfo `json:"info,omitempty"`
}

type PreloadRequest struct {
	FromLt uint64 `json:"fromLt,string"`
}

type TokenBalanceResponse struct {
	Balance string `json:"balance"`
}

type PollingRequest struct {
	Intensive bool `json:"intensive"`
}

type MasterKeyNameRequest struct {
	Name string `json:"name"`
}

type ImportStorageResponse struct {
	Imported bool `json:"imported"`
}
