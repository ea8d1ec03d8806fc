package main

import (
	"fmt"
	"net/http"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	httpinterface "github.com/evrwallet/evrwallet-daemon/internal/interfaces/http"
	"github.com/urfave/cli/v2"
)

var (
	enableFlag = cli.StringSliceFlag{
		Name:  "enable",
		Usage: "root token contract whose wallet must be enabled, can be repeated",
	}
	disableFlag = cli.StringSliceFlag{
		Name:  "disable",
		Usage: "root token contract whose wallet must be disabled, can be repeated",
	}
)

var tokens = cli.Command{
	Name:      "tokens",
	Usage:     "show the token wallets of an account, or enable and disable them",
	ArgsUsage: "<address>",
	Action:    tokensAction,
	Flags: []cli.Flag{
		&enableFlag,
		&disableFlag,
	},
}

type tokenWalletReply struct {
	RootTokenContract string `json:"rootTokenContract"`
	Symbol            string `json:"symbol,omitempty"`
	Balance           string `json:"balance,omitempty"`
}

func tokensAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return &invalidUsageError{ctx, "tokens"}
	}
	address := ctx.Args().First()

	client, err := getDaemonClient()
	if err != nil {
		return err
	}

	roots := make(map[string]bool)
	for _, root := range ctx.StringSlice(enableFlag.Name) {
		roots[root] = true
	}
	for _, root := range ctx.StringSlice(disableFlag.Name) {
		roots[root] = false
	}
	if len(roots) > 0 {
		if err := client.do(
			http.MethodPut, fmt.Sprintf("/accounts/%s/tokens", address),
			httpinterface.UpdateTokenWalletsRequest{RootTokenContracts: roots}, nil,
		); err != nil {
			return err
		}
	}

	var state application.WalletState
	if err := client.do(http.MethodGet, "/state", nil, &state); err != nil {
		return err
	}
	account, ok := state.Accounts.AccountEntries[address]
	if !ok {
		return fmt.Errorf("account %s not found", address)
	}

	group := state.Connection.SelectedConnection.Group
	balances := state.Accounts.AccountTokenStates[address]
	reply := make([]tokenWalletReply, 0)
	for _, root := range account.TokenWallets(group) {
		item := tokenWalletReply{RootTokenContract: root}
		symbol, known := state.Accounts.KnownTokens[root]
		if known {
			item.Symbol = symbol.Name
		}
		if balance, ok := balances[root]; ok {
			item.Balance = balance.Balance
			if known {
				item.Balance = domain.ConvertCurrency(balance.Balance, symbol.Decimals)
			}
		}
		reply = append(reply, item)
	}
	printRespJSON(reply)
	return nil
}
