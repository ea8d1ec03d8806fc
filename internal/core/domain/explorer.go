package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// NativeCurrency is the ticker of the native coin.
	NativeCurrency = "EVER"
	// NativeDecimals is the number of decimals of the native coin.
	NativeDecimals = 9
)

var explorerBaseURLs = map[string]string{
	"mainnet":  "https://everscan.io",
	"testnet":  "https://testnet.everscan.io",
	"fld":      "https://fld.ever.live",
	"localnet": "http://localhost",
}

// TransactionExplorerLink returns the explorer page of a transaction on the
// given network group.
func TransactionExplorerLink(group, hash string) string {
	baseURL, ok := explorerBaseURLs[group]
	if !ok {
		baseURL = explorerBaseURLs["mainnet"]
	}
	if group == "fld" || group == "localnet" {
		return fmt.Sprintf("%s/transactions/transactionDetails?id=%s", baseURL, hash)
	}
	return fmt.Sprintf("%s/transactions/%s", baseURL, hash)
}

// ConvertCurrency shifts an amount of nano units to display units, e.g.
// ConvertCurrency("1500000000", 9) == "1.5".
func ConvertCurrency(amount string, decimals uint8) string {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return value.Shift(-int32(decimals)).String()
}

// ConvertAddress shortens an address for notifications.
func ConvertAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func transactionValue(tx Transaction) string {
	value, err := decimal.NewFromString(valueOrZero(tx.InMessage.Value))
	if err != nil {
		value = decimal.Zero
	}
	for _, msg := range tx.OutMessages {
		out, err := decimal.NewFromString(valueOrZero(msg.Value))
		if err != nil {
			continue
		}
		value = value.Sub(out)
	}
	return value.String()
}

// TransactionDirection returns the counterpart of a transaction and whether
// the value was incoming.
func TransactionDirection(tx Transaction) (address string, incoming bool) {
	if tx.Info != nil && tx.Info.WalletInteraction != nil &&
		tx.Info.WalletInteraction.Recipient != "" {
		return tx.Info.WalletInteraction.Recipient, false
	}
	if tx.InMessage.Src != "" {
		return tx.InMessage.Src, true
	}
	for _, msg := range tx.OutMessages {
		if msg.Dst != "" {
			return msg.Dst, false
		}
	}
	return "", true
}

func valueOrZero(value string) string {
	if strings.TrimSpace(value) == "" {
		return "0"
	}
	return value
}
