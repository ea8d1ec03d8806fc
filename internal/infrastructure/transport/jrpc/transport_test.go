package jrpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/transport/jrpc"
	"github.com/stretchr/testify/require"
)

const walletAddress = "0:1111111111111111111111111111111111111111111111111111111111111111"

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcServer struct {
	*httptest.Server
	lock     sync.Mutex
	requests []rpcRequest
	results  map[string]string
}

func newRPCServer(t *testing.T, results map[string]string) *rpcServer {
	s := &rpcServer{results: results}
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req rpcRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			s.lock.Lock()
			s.requests = append(s.requests, req)
			s.lock.Unlock()

			result, ok := s.results[req.Method]
			if !ok {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  json.RawMessage(result),
			})
		},
	))
	t.Cleanup(s.Close)
	return s
}

func (s *rpcServer) lastRequest() rpcRequest {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requests[len(s.requests)-1]
}

func TestTransport(t *testing.T) {
	server := newRPCServer(t, map[string]string{
		"getContractState":      `{"type":"exists","balance":"1500000000","account":"te6cc","isDeployed":true,"timings":{"genLt":"2000","genUtime":1700000000},"lastTransactionId":{"isExact":true,"lt":"2000","hash":"txhash"}}`,
		"getTransactionsList":   `[{"id":{"lt":"2000","hash":"tx2"},"prevTransactionId":{"lt":"1000","hash":"tx1"},"createdAt":1700000000,"aborted":false,"origStatus":"active","endStatus":"active","totalFees":"1000","inMessage":{"hash":"msg","value":"10","bounce":false},"outMessages":[]}]`,
		"sendMessage":           `null`,
		"getTokenRootDetails":   `{"symbol":{"name":"USDT","fullName":"Tether","decimals":6,"rootTokenContract":"0:22"},"tokenWallet":"0:33","totalSupply":"100","rootOwnerAddress":"0:44"}`,
		"getTokenWalletBalance": `{"balance":"42"}`,
	})

	transport, err := jrpc.NewTransport(
		httpclient.New(httpclient.Options{}),
		domain.JrpcParams{Endpoint: server.URL + "/rpc"},
	)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("GetFullContractState", func(t *testing.T) {
		state, err := transport.GetFullContractState(ctx, walletAddress)
		require.NoError(t, err)
		require.Equal(t, "1500000000", state.Balance)
		require.Equal(t, "te6cc", state.Boc)
		require.Equal(t, &domain.TransactionID{Lt: 2000, Hash: "txhash"}, state.LastTransactionID)

		req := server.lastRequest()
		require.Equal(t, "2.0", req.JSONRPC)
		require.NotEmpty(t, req.ID)
		require.JSONEq(t, `{"address":"`+walletAddress+`"}`, string(req.Params))
	})

	t.Run("GetTransactions", func(t *testing.T) {
		txs, err := transport.GetTransactions(ctx, walletAddress, 0, 16)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		require.Equal(t, uint64(2000), txs[0].ID.Lt)
		require.JSONEq(t, `{"address":"`+walletAddress+`","limit":16}`, string(server.lastRequest().Params))

		_, err = transport.GetTransactions(ctx, walletAddress, 1000, 4)
		require.NoError(t, err)
		require.JSONEq(t,
			`{"address":"`+walletAddress+`","lastTransactionLt":"1000","limit":4}`,
			string(server.lastRequest().Params),
		)
	})

	t.Run("SendMessage", func(t *testing.T) {
		msg := domain.SignedMessage{Hash: "hash", ExpireAt: 1, Boc: "boc"}
		require.NoError(t, transport.SendMessage(ctx, walletAddress, msg))
		require.JSONEq(t, `{"message":"boc"}`, string(server.lastRequest().Params))
	})

	t.Run("Tokens", func(t *testing.T) {
		details, err := transport.GetTokenRootDetails(ctx, "0:22", walletAddress)
		require.NoError(t, err)
		require.Equal(t, "0:33", details.TokenWalletAddress)
		require.Equal(t, uint8(6), details.Symbol.Decimals)

		balance, err := transport.GetTokenWalletBalance(ctx, "0:33")
		require.NoError(t, err)
		require.Equal(t, "42", balance)
	})

	t.Run("Free", func(t *testing.T) {
		transport.Free()
		_, err := transport.GetFullContractState(ctx, walletAddress)
		require.ErrorIs(t, err, jrpc.ErrTransportClosed)
	})
}

func TestTransportErrors(t *testing.T) {
	_, err := jrpc.NewTransport(httpclient.New(httpclient.Options{}), domain.JrpcParams{})
	require.ErrorIs(t, err, jrpc.ErrInvalidEndpoint)

	server := newRPCServer(t, map[string]string{
		"getContractState": `{"type":"notExists"}`,
	})
	transport, err := jrpc.NewTransport(
		httpclient.New(httpclient.Options{}), domain.JrpcParams{Endpoint: server.URL},
	)
	require.NoError(t, err)
	ctx := context.Background()

	state, err := transport.GetFullContractState(ctx, walletAddress)
	require.NoError(t, err)
	require.Nil(t, state)

	_, err = transport.GetTokenWalletBalance(ctx, "0:33")
	require.EqualError(t, err, "jrpc error -32601: method not found")
}
