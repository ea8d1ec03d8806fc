package main

import (
	"fmt"
	"net/http"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	httpinterface "github.com/evrwallet/evrwallet-daemon/internal/interfaces/http"
	"github.com/urfave/cli/v2"
)

var accounts = cli.Command{
	Name:   "accounts",
	Usage:  "list the accounts of the wallet",
	Action: listAccountsAction,
}

var removeaccount = cli.Command{
	Name:      "removeaccount",
	Usage:     "remove an account and stop its subscriptions",
	ArgsUsage: "<address>",
	Action:    removeAccountAction,
}

var renameaccount = cli.Command{
	Name:      "renameaccount",
	Usage:     "rename an account",
	ArgsUsage: "<address> <name>",
	Action:    renameAccountAction,
}

func listAccountsAction(ctx *cli.Context) error {
	client, err := getDaemonClient()
	if err != nil {
		return err
	}

	var list []domain.AssetsList
	if err := client.do(http.MethodGet, "/accounts", nil, &list); err != nil {
		return err
	}
	printRespJSON(list)
	return nil
}

func removeAccountAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return &invalidUsageError{ctx, "removeaccount"}
	}
	address := ctx.Args().First()

	client, err := getDaemonClient()
	if err != nil {
		return err
	}
	if err := client.do(http.MethodDelete, "/accounts/"+address, nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(out, "account %s removed\n", address)
	return nil
}

func renameAccountAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return &invalidUsageError{ctx, "renameaccount"}
	}
	address, name := ctx.Args().Get(0), ctx.Args().Get(1)

	client, err := getDaemonClient()
	if err != nil {
		return err
	}
	if err := client.do(
		http.MethodPut, "/accounts/"+address,
		httpinterface.UpdateAccountRequest{Name: &name}, nil,
	); err != nil {
		return err
	}
	fmt.Fprintf(out, "account %s renamed to %s\n", address, name)
	return nil
}
