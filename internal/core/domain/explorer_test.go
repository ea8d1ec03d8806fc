package domain_test

import (
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestTransactionExplorerLink(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://everscan.io/transactions/abc",
		domain.TransactionExplorerLink("mainnet", "abc"))
	require.Equal(t, "https://testnet.everscan.io/transactions/abc",
		domain.TransactionExplorerLink("testnet", "abc"))
	require.Equal(t, "https://fld.ever.live/transactions/transactionDetails?id=abc",
		domain.TransactionExplorerLink("fld", "abc"))
	require.Equal(t, "https://everscan.io/transactions/abc",
		domain.TransactionExplorerLink("custom", "abc"))
}

func TestConvertCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   string
		decimals uint8
		expected string
	}{
		{"1500000000", 9, "1.5"},
		{"1", 9, "0.000000001"},
		{"-2000000000", 9, "-2"},
		{"123", 0, "123"},
		{"oops", 9, "oops"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, domain.ConvertCurrency(tt.amount, tt.decimals))
	}
}

func TestTransactionValueAndDirection(t *testing.T) {
	t.Parallel()

	incoming := domain.Transaction{
		InMessage: domain.Message{Src: "0:sender", Value: "3000000000"},
	}
	require.Equal(t, "3000000000", incoming.Value())
	address, isIncoming := domain.TransactionDirection(incoming)
	require.Equal(t, "0:sender", address)
	require.True(t, isIncoming)

	outgoing := domain.Transaction{
		InMessage: domain.Message{Value: ""},
		OutMessages: []domain.Message{
			{Dst: "0:recipient", Value: "1000000000"},
		},
	}
	require.Equal(t, "-1000000000", outgoing.Value())
	address, isIncoming = domain.TransactionDirection(outgoing)
	require.Equal(t, "0:recipient", address)
	require.False(t, isIncoming)
}
