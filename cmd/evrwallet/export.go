package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	httpinterface "github.com/evrwallet/evrwallet-daemon/internal/interfaces/http"
	"github.com/urfave/cli/v2"
)

var (
	fileFlag = cli.StringFlag{
		Name:  "file",
		Usage: "the file where to write the backup, stdout if not given",
	}
	importFlag = cli.StringFlag{
		Name:  "import",
		Usage: "restore the backup from the given file instead of exporting",
	}
)

var export = cli.Command{
	Name:   "export",
	Usage:  "export the wallet storage as JSON, or import a previous backup",
	Action: exportAction,
	Flags: []cli.Flag{
		&fileFlag,
		&importFlag,
	},
}

func exportAction(ctx *cli.Context) error {
	client, err := getDaemonClient()
	if err != nil {
		return err
	}

	if path := ctx.String(importFlag.Name); path != "" {
		return importStorage(client, path)
	}

	status, body, err := client.client.Get(
		context.Background(), client.baseURL+"/storage", nil,
	)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &httpclient.StatusError{Code: status, Body: string(body)}
	}

	path := ctx.String(fileFlag.Name)
	if path == "" {
		fmt.Fprintln(out, string(body))
		return nil
	}
	if err := os.WriteFile(path, body, 0600); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}
	fmt.Fprintf(out, "storage exported to %s\n", path)
	return nil
}

func importStorage(client *daemonClient, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	status, body, err := client.client.Post(
		context.Background(), client.baseURL+"/storage", data,
		map[string]string{"Content-Type": "application/json"},
	)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &httpclient.StatusError{Code: status, Body: string(body)}
	}

	var reply httpinterface.ImportStorageResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return err
	}
	if !reply.Imported {
		return fmt.Errorf("%s is not a valid backup", path)
	}
	fmt.Fprintln(out, "storage imported")
	return nil
}
