package domain

import (
	"sort"
	"strconv"
	"strings"
)

const (
	// MaxRecentMasterKeys is the size of the recently used master keys list.
	MaxRecentMasterKeys = 5
)

// TonWallet is the native wallet of an account.
type TonWallet struct {
	Address      string       `json:"address"`
	PublicKey    string       `json:"publicKey"`
	ContractType ContractType `json:"contractType"`
}

// TokenWalletAsset is an enabled token wallet of an account.
type TokenWalletAsset struct {
	RootTokenContract string `json:"rootTokenContract"`
}

// AdditionalAssets are the assets of an account on one network group.
type AdditionalAssets struct {
	TokenWallets []TokenWalletAsset `json:"tokenWallets"`
}

// AssetsList is an account together with its per-network token wallets.
type AssetsList struct {
	Name             string                      `json:"name"`
	TonWallet        TonWallet                   `json:"tonWallet"`
	AdditionalAssets map[string]AdditionalAssets `json:"additionalAssets"`
}

// SortAccounts orders accounts by address.
func SortAccounts(accounts []AssetsList) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Address() < accounts[j].Address()
	})
}

// Address is the key of the account.
func (a AssetsList) Address() string {
	return a.TonWallet.Address
}

// TokenWallets returns the root contracts enabled on the given group.
func (a AssetsList) TokenWallets(group string) []string {
	assets, ok := a.AdditionalAssets[group]
	if !ok {
		return nil
	}
	roots := make([]string, 0, len(assets.TokenWallets))
	for _, w := range assets.TokenWallets {
		roots = append(roots, w.RootTokenContract)
	}
	return roots
}

// AddTokenWallet enables a root contract on the given group. It returns false
// if it was already enabled.
func (a *AssetsList) AddTokenWallet(group, rootTokenContract string) bool {
	if a.AdditionalAssets == nil {
		a.AdditionalAssets = make(map[string]AdditionalAssets)
	}
	assets := a.AdditionalAssets[group]
	for _, w := range assets.TokenWallets {
		if w.RootTokenContract == rootTokenContract {
			return false
		}
	}
	assets.TokenWallets = append(
		assets.TokenWallets, TokenWalletAsset{rootTokenContract},
	)
	a.AdditionalAssets[group] = assets
	return true
}

// RemoveTokenWallet disables a root contract on the given group.
func (a *AssetsList) RemoveTokenWallet(group, rootTokenContract string) bool {
	assets, ok := a.AdditionalAssets[group]
	if !ok {
		return false
	}
	for i, w := range assets.TokenWallets {
		if w.RootTokenContract == rootTokenContract {
			assets.TokenWallets = append(
				assets.TokenWallets[:i], assets.TokenWallets[i+1:]...,
			)
			a.AdditionalAssets[group] = assets
			return true
		}
	}
	return false
}

// AccountToAdd are the params to create a new account.
type AccountToAdd struct {
	Name         string       `json:"name"`
	PublicKey    string       `json:"publicKey"`
	ContractType ContractType `json:"contractType"`
	Workchain    int8         `json:"workchain"`
}

func (a AccountToAdd) Validate() error {
	if a.PublicKey == "" {
		return NewRpcError(InvalidRequest, "missing public key")
	}
	if !a.ContractType.IsValid() {
		return NewRpcError(InvalidRequest, "unknown contract type %s", a.ContractType)
	}
	return nil
}

// ExternalAccount is an account not derived from a local key, but in which
// some local keys are custodians.
type ExternalAccount struct {
	Address    string   `json:"address"`
	PublicKey  string   `json:"publicKey"`
	ExternalIn []string `json:"externalIn"`
}

// KeyStoreEntry is the bookkeeping of a key stored by the wallet engine.
type KeyStoreEntry struct {
	Name       string `json:"name"`
	PublicKey  string `json:"publicKey"`
	MasterKey  string `json:"masterKey"`
	AccountID  uint16 `json:"accountId"`
	SignerName string `json:"signerName"`
}

// UpdateRecentMasterKeys moves entry to the front of the recently used list,
// removing duplicates by master key and trimming to MaxRecentMasterKeys.
func UpdateRecentMasterKeys(
	recent []KeyStoreEntry, entry KeyStoreEntry,
) []KeyStoreEntry {
	updated := make([]KeyStoreEntry, 0, MaxRecentMasterKeys)
	updated = append(updated, entry)
	for _, key := range recent {
		if key.MasterKey == entry.MasterKey {
			continue
		}
		updated = append(updated, key)
	}
	if len(updated) > MaxRecentMasterKeys {
		updated = updated[:MaxRecentMasterKeys]
	}
	return updated
}

// AddExternalAccount inserts or moves to the front the external account with
// the given address, adding externalPublicKey to its custodians.
func AddExternalAccount(
	accounts []ExternalAccount, address, publicKey, externalPublicKey string,
) []ExternalAccount {
	entry := ExternalAccount{address, publicKey, []string{externalPublicKey}}
	updated := make([]ExternalAccount, 0, len(accounts)+1)
	for _, account := range accounts {
		if account.Address != address {
			updated = append(updated, account)
			continue
		}
		entry = account
		found := false
		for _, key := range entry.ExternalIn {
			if key == externalPublicKey {
				found = true
				break
			}
		}
		if !found {
			entry.ExternalIn = append(entry.ExternalIn, externalPublicKey)
		}
	}
	return append([]ExternalAccount{entry}, updated...)
}

// ExtractAddressWorkchain parses the workchain prefix of a raw address.
func ExtractAddressWorkchain(address string) (int8, error) {
	parts := strings.SplitN(address, ":", 2)
	if len(parts) != 2 || len(parts[1]) != 64 {
		return 0, ErrInvalidAddress
	}
	workchain, err := strconv.ParseInt(parts[0], 10, 8)
	if err != nil {
		return 0, ErrInvalidAddress
	}
	return int8(workchain), nil
}
