package application

import "github.com/evrwallet/evrwallet-daemon/internal/core/domain"

// AccountState is the observable state of the account service. Maps are
// keyed by account address, token maps by root token contract too.
type AccountState struct {
	AccountEntries                 map[string]domain.AssetsList                            `json:"accountEntries"`
	AccountsVisibility             map[string]bool                                         `json:"accountsVisibility"`
	AccountContractStates          map[string]domain.ContractState                         `json:"accountContractStates"`
	AccountTokenStates             map[string]map[string]domain.TokenWalletState           `json:"accountTokenStates"`
	AccountTransactions            map[string][]domain.Transaction                         `json:"accountTransactions"`
	AccountTokenTransactions       map[string]map[string][]domain.TokenWalletTransaction   `json:"accountTokenTransactions"`
	AccountMultisigTransactions    map[string]domain.MultisigAggregates                    `json:"accountMultisigTransactions"`
	AccountUnconfirmedTransactions map[string]map[string]domain.MultisigPendingTransaction `json:"accountUnconfirmedTransactions"`
	AccountCustodians              map[string][]string                                     `json:"accountCustodians"`
	AccountPendingTransactions     map[string]map[string]domain.StoredMessageInfo          `json:"accountPendingTransactions"`
	AccountFailedTransactions      map[string]map[string]domain.StoredMessageInfo          `json:"accountFailedTransactions"`
	ExternalAccounts               []domain.ExternalAccount                                `json:"externalAccounts"`
	KnownTokens                    map[string]domain.TokenSymbol                           `json:"knownTokens"`
	MasterKeysNames                map[string]string                                       `json:"masterKeysNames"`
	RecentMasterKeys               []domain.KeyStoreEntry                                  `json:"recentMasterKeys"`
	SelectedAccountAddress         string                                                  `json:"selectedAccountAddress,omitempty"`
	SelectedMasterKey              string                                                  `json:"selectedMasterKey,omitempty"`
	StoredKeys                     map[string]domain.KeyStoreEntry                         `json:"storedKeys"`
}

func defaultAccountState() AccountState {
	return AccountState{
		AccountEntries:                 make(map[string]domain.AssetsList),
		AccountsVisibility:             make(map[string]bool),
		AccountContractStates:          make(map[string]domain.ContractState),
		AccountTokenStates:             make(map[string]map[string]domain.TokenWalletState),
		AccountTransactions:            make(map[string][]domain.Transaction),
		AccountTokenTransactions:       make(map[string]map[string][]domain.TokenWalletTransaction),
		AccountMultisigTransactions:    make(map[string]domain.MultisigAggregates),
		AccountUnconfirmedTransactions: make(map[string]map[string]domain.MultisigPendingTransaction),
		AccountCustodians:              make(map[string][]string),
		AccountPendingTransactions:     make(map[string]map[string]domain.StoredMessageInfo),
		AccountFailedTransactions:      make(map[string]map[string]domain.StoredMessageInfo),
		ExternalAccounts:               make([]domain.ExternalAccount, 0),
		KnownTokens:                    make(map[string]domain.TokenSymbol),
		MasterKeysNames:                make(map[string]string),
		RecentMasterKeys:               make([]domain.KeyStoreEntry, 0),
		StoredKeys:                     make(map[string]domain.KeyStoreEntry),
	}
}

// resetSubscriptionCaches drops what the subscriptions have reported.
func (s *AccountState) resetSubscriptionCaches() {
	s.AccountContractStates = make(map[string]domain.ContractState)
	s.AccountTokenStates = make(map[string]map[string]domain.TokenWalletState)
	s.AccountTransactions = make(map[string][]domain.Transaction)
	s.AccountTokenTransactions = make(map[string]map[string][]domain.TokenWalletTransaction)
	s.AccountMultisigTransactions = make(map[string]domain.MultisigAggregates)
	s.AccountUnconfirmedTransactions = make(map[string]map[string]domain.MultisigPendingTransaction)
	s.AccountPendingTransactions = make(map[string]map[string]domain.StoredMessageInfo)
	s.AccountFailedTransactions = make(map[string]map[string]domain.StoredMessageInfo)
}

// purgeAccount drops every per-address cache of address.
func (s *AccountState) purgeAccount(address string) {
	delete(s.AccountEntries, address)
	delete(s.AccountContractStates, address)
	delete(s.AccountTokenStates, address)
	delete(s.AccountTransactions, address)
	delete(s.AccountTokenTransactions, address)
	delete(s.AccountMultisigTransactions, address)
	delete(s.AccountUnconfirmedTransactions, address)
	delete(s.AccountCustodians, address)
	delete(s.AccountPendingTransactions, address)
	delete(s.AccountFailedTransactions, address)
}

func (s AccountState) clone() AccountState {
	multisig := make(map[string]domain.MultisigAggregates, len(s.AccountMultisigTransactions))
	for address, aggregates := range s.AccountMultisigTransactions {
		cloned := make(domain.MultisigAggregates, len(aggregates))
		for id, aggregate := range aggregates {
			a := *aggregate
			a.Confirmations = append([]string{}, aggregate.Confirmations...)
			cloned[id] = &a
		}
		multisig[address] = cloned
	}

	entries := make(map[string]domain.AssetsList, len(s.AccountEntries))
	for address, entry := range s.AccountEntries {
		entries[address] = cloneAssetsList(entry)
	}

	return AccountState{
		AccountEntries:                 entries,
		AccountsVisibility:             cloneMap(s.AccountsVisibility),
		AccountContractStates:          cloneMap(s.AccountContractStates),
		AccountTokenStates:             cloneNestedMap(s.AccountTokenStates),
		AccountTransactions:            cloneSliceMap(s.AccountTransactions),
		AccountTokenTransactions:       cloneNestedSliceMap(s.AccountTokenTransactions),
		AccountMultisigTransactions:    multisig,
		AccountUnconfirmedTransactions: cloneNestedMap(s.AccountUnconfirmedTransactions),
		AccountCustodians:              cloneSliceMap(s.AccountCustodians),
		AccountPendingTransactions:     cloneNestedMap(s.AccountPendingTransactions),
		AccountFailedTransactions:      cloneNestedMap(s.AccountFailedTransactions),
		ExternalAccounts:               cloneExternalAccounts(s.ExternalAccounts),
		KnownTokens:                    cloneMap(s.KnownTokens),
		MasterKeysNames:                cloneMap(s.MasterKeysNames),
		RecentMasterKeys:               append([]domain.KeyStoreEntry{}, s.RecentMasterKeys...),
		SelectedAccountAddress:         s.SelectedAccountAddress,
		SelectedMasterKey:              s.SelectedMasterKey,
		StoredKeys:                     cloneMap(s.StoredKeys),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	cloned := make(map[K]V, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

func cloneNestedMap[K1, K2 comparable, V any](m map[K1]map[K2]V) map[K1]map[K2]V {
	cloned := make(map[K1]map[K2]V, len(m))
	for k, v := range m {
		cloned[k] = cloneMap(v)
	}
	return cloned
}

func cloneSliceMap[K comparable, V any](m map[K][]V) map[K][]V {
	cloned := make(map[K][]V, len(m))
	for k, v := range m {
		cloned[k] = append([]V{}, v...)
	}
	return cloned
}

func cloneNestedSliceMap[K1, K2 comparable, V any](m map[K1]map[K2][]V) map[K1]map[K2][]V {
	cloned := make(map[K1]map[K2][]V, len(m))
	for k, v := range m {
		cloned[k] = cloneSliceMap(v)
	}
	return cloned
}

func cloneAssetsList(a domain.AssetsList) domain.AssetsList {
	assets := make(map[string]domain.AdditionalAssets, len(a.AdditionalAssets))
	for group, additional := range a.AdditionalAssets {
		assets[group] = domain.AdditionalAssets{
			TokenWallets: append(
				[]domain.TokenWalletAsset{}, additional.TokenWallets...,
			),
		}
	}
	a.AdditionalAssets = assets
	return a
}

func cloneExternalAccounts(accounts []domain.ExternalAccount) []domain.ExternalAccount {
	cloned := make([]domain.ExternalAccount, 0, len(accounts))
	for _, account := range accounts {
		account.ExternalIn = append([]string{}, account.ExternalIn...)
		cloned = append(cloned, account)
	}
	return cloned
}
