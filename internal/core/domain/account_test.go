package domain_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestUpdateRecentMasterKeys(t *testing.T) {
	t.Parallel()

	entry := func(i int) domain.KeyStoreEntry {
		return domain.KeyStoreEntry{
			MasterKey: fmt.Sprintf("master%d", i),
			PublicKey: fmt.Sprintf("pub%d", i),
		}
	}

	var recent []domain.KeyStoreEntry
	for i := 0; i < 7; i++ {
		recent = domain.UpdateRecentMasterKeys(recent, entry(i))
	}
	require.Len(t, recent, domain.MaxRecentMasterKeys)
	require.Equal(t, "master6", recent[0].MasterKey)
	require.Equal(t, "master2", recent[4].MasterKey)

	recent = domain.UpdateRecentMasterKeys(recent, entry(4))
	require.Len(t, recent, domain.MaxRecentMasterKeys)
	require.Equal(t, "master4", recent[0].MasterKey)
	require.Equal(t, "master6", recent[1].MasterKey)

	seen := map[string]bool{}
	for _, key := range recent {
		require.False(t, seen[key.MasterKey])
		seen[key.MasterKey] = true
	}
}

func TestAddExternalAccount(t *testing.T) {
	t.Parallel()

	accounts := domain.AddExternalAccount(nil, "0:a", "pubA", "ext1")
	accounts = domain.AddExternalAccount(accounts, "0:b", "pubB", "ext1")
	require.Len(t, accounts, 2)
	require.Equal(t, "0:b", accounts[0].Address)

	accounts = domain.AddExternalAccount(accounts, "0:a", "pubA", "ext2")
	require.Len(t, accounts, 2)
	require.Equal(t, "0:a", accounts[0].Address)
	require.Equal(t, []string{"ext1", "ext2"}, accounts[0].ExternalIn)

	accounts = domain.AddExternalAccount(accounts, "0:a", "pubA", "ext2")
	require.Equal(t, []string{"ext1", "ext2"}, accounts[0].ExternalIn)
}

func TestAssetsListTokenWallets(t *testing.T) {
	t.Parallel()

	account := domain.AssetsList{
		Name:      "Account 1",
		TonWallet: domain.TonWallet{Address: "0:a"},
	}
	require.Nil(t, account.TokenWallets("mainnet"))

	require.True(t, account.AddTokenWallet("mainnet", "0:root1"))
	require.False(t, account.AddTokenWallet("mainnet", "0:root1"))
	require.True(t, account.AddTokenWallet("mainnet", "0:root2"))
	require.True(t, account.AddTokenWallet("testnet", "0:root1"))
	require.Equal(t, []string{"0:root1", "0:root2"}, account.TokenWallets("mainnet"))

	require.True(t, account.RemoveTokenWallet("mainnet", "0:root1"))
	require.False(t, account.RemoveTokenWallet("mainnet", "0:root1"))
	require.False(t, account.RemoveTokenWallet("fld", "0:root1"))
	require.Equal(t, []string{"0:root2"}, account.TokenWallets("mainnet"))
	require.Equal(t, []string{"0:root1"}, account.TokenWallets("testnet"))
}

func TestExtractAddressWorkchain(t *testing.T) {
	t.Parallel()

	workchain, err := domain.ExtractAddressWorkchain("-1:" + strings.Repeat("7", 64))
	require.NoError(t, err)
	require.Equal(t, int8(-1), workchain)

	workchain, err = domain.ExtractAddressWorkchain("0:" + strings.Repeat("a", 64))
	require.NoError(t, err)
	require.Zero(t, workchain)

	_, err = domain.ExtractAddressWorkchain("0:abc")
	require.ErrorIs(t, err, domain.ErrInvalidAddress)
	_, err = domain.ExtractAddressWorkchain("x:" + strings.Repeat("a", 64))
	require.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestAccountToAddValidate(t *testing.T) {
	t.Parallel()

	err := domain.AccountToAdd{PublicKey: "pub", ContractType: domain.EverWallet}.Validate()
	require.NoError(t, err)

	err = domain.AccountToAdd{ContractType: domain.EverWallet}.Validate()
	require.True(t, domain.IsRpcError(err, domain.InvalidRequest))

	err = domain.AccountToAdd{PublicKey: "pub", ContractType: "Unknown"}.Validate()
	require.True(t, domain.IsRpcError(err, domain.InvalidRequest))
}
