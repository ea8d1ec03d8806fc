package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"
)

var (
	rpcFlag = cli.StringFlag{
		Name:  rpcServerKey,
		Usage: "evrwalletd daemon address host:port",
		Value: "localhost:7070",
	}
)

var config = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the evrwallet CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:      "set",
			Usage:     "set a <key> <value> in the local state",
			ArgsUsage: "<key> <value>",
			Action:    configSetAction,
		},
		{
			Name:   "init",
			Usage:  "initialize the local state with flags",
			Action: configInitAction,
			Flags: []cli.Flag{
				&rpcFlag,
			},
		},
	},
}

func configAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintln(out, key+": "+state[key])
	}
	return nil
}

func configSetAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return &invalidUsageError{ctx, "set"}
	}
	key, value := ctx.Args().Get(0), ctx.Args().Get(1)
	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Fprintln(out, key+" "+value+" has been set")
	return nil
}

func configInitAction(ctx *cli.Context) error {
	return setState(map[string]string{
		rpcServerKey: ctx.String(rpcServerKey),
	})
}
