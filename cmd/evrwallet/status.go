package main

import (
	"net/http"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var status = cli.Command{
	Name:   "status",
	Usage:  "returns info about the status of the daemon",
	Action: statusAction,
}

type statusReply struct {
	Network           domain.ConnectionDataItem `json:"network"`
	Initialized       bool                      `json:"initialized"`
	Failed            bool                      `json:"failed"`
	ClockOffset       int64                     `json:"clockOffset"`
	Accounts          int                       `json:"accounts"`
	SelectedAccount   string                    `json:"selectedAccount,omitempty"`
	ActiveConnections int                       `json:"activeConnections"`
}

func statusAction(ctx *cli.Context) error {
	client, err := getDaemonClient()
	if err != nil {
		return err
	}

	var state application.WalletState
	if err := client.do(http.MethodGet, "/state", nil, &state); err != nil {
		return err
	}

	printRespJSON(statusReply{
		Network:           state.Connection.SelectedConnection,
		Initialized:       state.Connection.Initialized,
		Failed:            state.Connection.Failed,
		ClockOffset:       state.Connection.ClockOffset,
		Accounts:          len(state.Accounts.AccountEntries),
		SelectedAccount:   state.Accounts.SelectedAccountAddress,
		ActiveConnections: state.ActiveConnections,
	})
	return nil
}
