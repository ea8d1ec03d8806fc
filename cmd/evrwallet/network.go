package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	httpinterface "github.com/evrwallet/evrwallet-daemon/internal/interfaces/http"
	"github.com/urfave/cli/v2"
)

var (
	networkNameFlag = cli.StringFlag{
		Name:     "name",
		Usage:    "the name of the custom network",
		Required: true,
	}
	networkGroupFlag = cli.StringFlag{
		Name:  "group",
		Usage: "the group of the custom network, like mainnet or testnet",
		Value: "mainnet",
	}
	gqlEndpointsFlag = cli.StringSliceFlag{
		Name:  "gql",
		Usage: "graphql endpoint of the custom network, can be repeated",
	}
	jrpcEndpointFlag = cli.StringFlag{
		Name:  "jrpc",
		Usage: "jrpc endpoint of the custom network",
	}
	localFlag = cli.BoolFlag{
		Name:  "local",
		Usage: "whether the graphql endpoints are a local node",
	}
)

var networks = cli.Command{
	Name:   "networks",
	Usage:  "list the available networks",
	Action: listNetworksAction,
	Subcommands: []*cli.Command{
		{
			Name:   "add",
			Usage:  "add a custom network",
			Action: addNetworkAction,
			Flags: []cli.Flag{
				&networkNameFlag,
				&networkGroupFlag,
				&gqlEndpointsFlag,
				&jrpcEndpointFlag,
				&localFlag,
			},
		},
		{
			Name:      "delete",
			Usage:     "delete a custom network",
			ArgsUsage: "<id>",
			Action:    deleteNetworkAction,
		},
		{
			Name:   "reset",
			Usage:  "delete every custom network",
			Action: resetNetworksAction,
		},
	},
}

var network = cli.Command{
	Name:      "network",
	Usage:     "show the selected network or switch to the one with the given id",
	ArgsUsage: "[id]",
	Action:    networkAction,
}

func listNetworksAction(ctx *cli.Context) error {
	client, err := getDaemonClient()
	if err != nil {
		return err
	}

	var list []domain.ConnectionDataItem
	if err := client.do(http.MethodGet, "/networks", nil, &list); err != nil {
		return err
	}
	printRespJSON(list)
	return nil
}

func addNetworkAction(ctx *cli.Context) error {
	gql := ctx.StringSlice(gqlEndpointsFlag.Name)
	jrpc := ctx.String(jrpcEndpointFlag.Name)
	if (len(gql) > 0) == (jrpc != "") {
		return fmt.Errorf("exactly one of --gql or --jrpc must be given")
	}

	item := domain.ConnectionDataItem{
		Name:  ctx.String(networkNameFlag.Name),
		Group: ctx.String(networkGroupFlag.Name),
	}
	if len(gql) > 0 {
		item.Type = domain.ConnectionTypeGraphQL
		item.Gql = &domain.GqlParams{
			Endpoints: gql,
			Local:     ctx.Bool(localFlag.Name),
		}
	} else {
		item.Type = domain.ConnectionTypeJrpc
		item.Jrpc = &domain.JrpcParams{Endpoint: jrpc}
	}

	client, err := getDaemonClient()
	if err != nil {
		return err
	}
	var added domain.ConnectionDataItem
	if err := client.do(http.MethodPost, "/networks", item, &added); err != nil {
		return err
	}
	printRespJSON(added)
	return nil
}

func deleteNetworkAction(ctx *cli.Context) error {
	id, err := networkIDArg(ctx, "delete")
	if err != nil {
		return err
	}

	client, err := getDaemonClient()
	if err != nil {
		return err
	}
	if err := client.do(
		http.MethodDelete, fmt.Sprintf("/networks/%d", id), nil, nil,
	); err != nil {
		return err
	}
	fmt.Fprintf(out, "network %d deleted\n", id)
	return nil
}

func resetNetworksAction(ctx *cli.Context) error {
	client, err := getDaemonClient()
	if err != nil {
		return err
	}
	if err := client.do(http.MethodDelete, "/networks", nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "custom networks deleted")
	return nil
}

func networkAction(ctx *cli.Context) error {
	client, err := getDaemonClient()
	if err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		var state application.WalletState
		if err := client.do(http.MethodGet, "/state", nil, &state); err != nil {
			return err
		}
		printRespJSON(state.Connection)
		return nil
	}

	id, err := networkIDArg(ctx, "network")
	if err != nil {
		return err
	}
	var state application.ConnectionState
	if err := client.do(
		http.MethodPut, "/network", httpinterface.ChangeNetworkRequest{ID: id}, &state,
	); err != nil {
		return err
	}
	printRespJSON(state)
	return nil
}

func networkIDArg(ctx *cli.Context, command string) (int, error) {
	if ctx.NArg() != 1 {
		return 0, &invalidUsageError{ctx, command}
	}
	id, err := strconv.Atoi(ctx.Args().First())
	if err != nil {
		return 0, fmt.Errorf("network id must be a number")
	}
	return id, nil
}
