package domain

// ContractType is the kind of wallet contract backing an account.
type ContractType string

const (
	SafeMultisigWallet       ContractType = "SafeMultisigWallet"
	SafeMultisigWallet24h    ContractType = "SafeMultisigWallet24h"
	SetcodeMultisigWallet    ContractType = "SetcodeMultisigWallet"
	SetcodeMultisigWallet24h ContractType = "SetcodeMultisigWallet24h"
	BridgeMultisigWallet     ContractType = "BridgeMultisigWallet"
	SurfWallet               ContractType = "SurfWallet"
	Multisig2                ContractType = "Multisig2"
	Multisig2V1              ContractType = "Multisig2_1"
	WalletV3                 ContractType = "WalletV3"
	HighloadWalletV2         ContractType = "HighloadWalletV2"
	EverWallet               ContractType = "EverWallet"
)

// WalletDetails are the static capabilities of a contract type.
type WalletDetails struct {
	RequiresSeparateDeploy   bool   `json:"requiresSeparateDeploy"`
	MinAmount                string `json:"minAmount"`
	SupportsPayload          bool   `json:"supportsPayload"`
	SupportsStateInit        bool   `json:"supportsStateInit"`
	SupportsMultipleOwners   bool   `json:"supportsMultipleOwners"`
	SupportsAddressInMessage bool   `json:"supportsAddressInMessage"`
	ExpirationTime           uint32 `json:"expirationTime"`
}

var multisigDetails = WalletDetails{
	RequiresSeparateDeploy: true,
	MinAmount:              "1000000",
	SupportsPayload:        true,
	SupportsStateInit:      true,
	SupportsMultipleOwners: true,
	ExpirationTime:         3600,
}

var walletDetails = map[ContractType]WalletDetails{
	SafeMultisigWallet:       multisigDetails,
	SafeMultisigWallet24h:    withExpiration(multisigDetails, 86400),
	SetcodeMultisigWallet:    multisigDetails,
	SetcodeMultisigWallet24h: withExpiration(multisigDetails, 86400),
	BridgeMultisigWallet:     multisigDetails,
	SurfWallet:               multisigDetails,
	Multisig2:                multisigDetails,
	Multisig2V1:              multisigDetails,
	WalletV3: {
		MinAmount:         "1",
		SupportsPayload:   true,
		SupportsStateInit: true,
	},
	HighloadWalletV2: {
		MinAmount:         "1",
		SupportsPayload:   true,
		SupportsStateInit: true,
	},
	EverWallet: {
		MinAmount:                "1",
		SupportsPayload:          true,
		SupportsStateInit:        true,
		SupportsAddressInMessage: true,
	},
}

func withExpiration(details WalletDetails, expiration uint32) WalletDetails {
	details.ExpirationTime = expiration
	return details
}

// GetWalletDetails returns the details of a contract type. Unknown types are
// treated as single owner wallets.
func GetWalletDetails(contractType ContractType) WalletDetails {
	if details, ok := walletDetails[contractType]; ok {
		return details
	}
	return WalletDetails{MinAmount: "1"}
}

func (c ContractType) IsValid() bool {
	_, ok := walletDetails[c]
	return ok
}

// GenTimings are the timings of the block the state was read from.
type GenTimings struct {
	GenLt    uint64 `json:"genLt,string"`
	GenUtime uint32 `json:"genUtime"`
}

// ContractState is the observable state of an account contract.
type ContractState struct {
	Balance           string         `json:"balance"`
	GenTimings        GenTimings     `json:"genTimings"`
	LastTransactionID *TransactionID `json:"lastTransactionId,omitempty"`
	IsDeployed        bool           `json:"isDeployed"`
	Boc               string         `json:"boc,omitempty"`
}

// EmptyContractState is the state of an address that was never seen on
// chain.
func EmptyContractState() ContractState {
	return ContractState{Balance: "0"}
}

// LastLt returns the lt of the last transaction, 0 if none.
func (s ContractState) LastLt() uint64 {
	if s.LastTransactionID == nil {
		return 0
	}
	return s.LastTransactionID.Lt
}

// Equal reports whether the fields surfaced to the UI match.
func (s ContractState) Equal(other ContractState) bool {
	return s.Balance == other.Balance &&
		s.IsDeployed == other.IsDeployed &&
		s.LastLt() == other.LastLt()
}

// TokenSymbol is the metadata of a token root contract.
type TokenSymbol struct {
	Name              string `json:"name"`
	FullName          string `json:"fullName"`
	Decimals          uint8  `json:"decimals"`
	RootTokenContract string `json:"rootTokenContract"`
}

// TokenRootDetails are returned by the transport when resolving the token
// wallet of an owner.
type TokenRootDetails struct {
	Symbol             TokenSymbol `json:"symbol"`
	TokenWalletAddress string      `json:"tokenWallet"`
	TotalSupply        string      `json:"totalSupply"`
	RootOwnerAddress   string      `json:"rootOwnerAddress"`
}

// TokenWalletState ...
type TokenWalletState struct {
	Balance string `json:"balance"`
}
