package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/urfave/cli/v2"
)

const rpcServerKey = "rpcserver"

var (
	evrwalletDataDir = btcutil.AppDataDir("evrwallet", false)
	statePath        = filepath.Join(evrwalletDataDir, "state.json")

	out io.Writer = os.Stdout
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "evrwallet"
	app.Usage = "Command line interface for evrwalletd operators"
	app.Commands = append(
		app.Commands,
		&config,
		&status,
		&networks,
		&network,
		&accounts,
		&removeaccount,
		&renameaccount,
		&tokens,
		&export,
	)
	return app
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(statePath), os.ModeDir|0755); err != nil {
		return err
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

// daemonClient talks to the REST api of evrwalletd.
type daemonClient struct {
	client  *httpclient.Client
	baseURL string
}

func getDaemonClient() (*daemonClient, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	address, ok := state[rpcServerKey]
	if !ok {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}

	return &daemonClient{
		client:  httpclient.New(httpclient.Options{}),
		baseURL: strings.TrimSuffix(address, "/") + "/v1",
	}, nil
}

func (c *daemonClient) do(method, path string, in, out interface{}) error {
	return c.client.DoJSON(context.Background(), method, c.baseURL+path, in, out)
}

func printRespJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Fprintln(out, "unable to decode response: ", err)
		return
	}
	fmt.Fprintln(out, string(buf))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[evrwallet] %v\n", err)
	}
	os.Exit(1)
}
