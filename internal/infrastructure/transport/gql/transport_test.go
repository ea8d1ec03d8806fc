package gql_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/transport/gql"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	walletAddress = "0:1111111111111111111111111111111111111111111111111111111111111111"
	rootAddress   = "0:2222222222222222222222222222222222222222222222222222222222222222"
)

type mockDecoder struct {
	mock.Mock
}

func (m *mockDecoder) DecodeTokenRootDetails(
	ctx context.Context, rootBoc, owner string,
) (*domain.TokenRootDetails, error) {
	args := m.Called(ctx, rootBoc, owner)
	var res *domain.TokenRootDetails
	if a := args.Get(0); a != nil {
		res = a.(*domain.TokenRootDetails)
	}
	return res, args.Error(1)
}

func (m *mockDecoder) DecodeTokenWalletBalance(
	ctx context.Context, walletBoc string,
) (string, error) {
	args := m.Called(ctx, walletBoc)
	return args.String(0), args.Error(1)
}

type graphqlServer struct {
	*httptest.Server
	lock     sync.Mutex
	requests []map[string]interface{}
}

func newGraphqlServer(t *testing.T) *graphqlServer {
	s := &graphqlServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *graphqlServer) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.lock.Lock()
	s.requests = append(s.requests, req.Variables)
	s.lock.Unlock()

	switch {
	case strings.Contains(req.Query, "postRequests"):
		w.Write([]byte(`{"data":{"postRequests":["hash"]}}`))
	case strings.Contains(req.Query, "accounts("):
		address := req.Variables["address"]
		if address == rootAddress {
			w.Write([]byte(`{"data":{"accounts":[{"acc_type":1,"balance":"100","boc":"rootboc","last_trans_lt":"5"}],"transactions":[]}}`))
			return
		}
		if address != walletAddress {
			w.Write([]byte(`{"data":{"accounts":[],"transactions":[]}}`))
			return
		}
		w.Write([]byte(`{"data":{"accounts":[{"acc_type":1,"balance":"1500000000","boc":"te6cc","last_trans_lt":"2000","last_paid":1700000000}],"transactions":[{"id":"txhash","lt":"2000"}]}}`))
	case strings.Contains(req.Query, "transactions("):
		if _, ok := req.Variables["fromLt"]; ok && !strings.Contains(req.Query, "$fromLt") {
			w.Write([]byte(`{"errors":[{"message":"unknown variable"}]}`))
			return
		}
		w.Write([]byte(`{"data":{"transactions":[
			{"id":"tx2","lt":"2000","prev_trans_hash":"tx1","prev_trans_lt":"1000","now":1700000000,"orig_status_name":"Active","end_status_name":"Active","total_fees":"1000","in_message":{"id":"msg2","src":"0:aa","dst":"0:11","value":"1500000000"},"out_messages":[]},
			{"id":"tx1","lt":"1000","now":1600000000,"orig_status_name":"Uninit","end_status_name":"Active","in_message":{"id":"msg1","value":"10"},"out_messages":[{"id":"out1","dst":"0:bb","value":"5"}]}
		]}}`))
	default:
		w.Write([]byte(`{"errors":[{"message":"unsupported query"}]}`))
	}
}

func (s *graphqlServer) lastVariables() map[string]interface{} {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requests[len(s.requests)-1]
}

func TestTransport(t *testing.T) {
	server := newGraphqlServer(t)
	decoder := &mockDecoder{}
	decoder.On("DecodeTokenRootDetails", mock.Anything, "rootboc", walletAddress).
		Return(&domain.TokenRootDetails{
			Symbol:             domain.TokenSymbol{Name: "USDT", Decimals: 6},
			TokenWalletAddress: "0:33",
		}, nil)

	transport, err := gql.NewTransport(
		httpclient.New(httpclient.Options{}),
		domain.GqlParams{Endpoints: []string{server.URL}},
		decoder, nil,
	)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("GetFullContractState", func(t *testing.T) {
		state, err := transport.GetFullContractState(ctx, walletAddress)
		require.NoError(t, err)
		require.NotNil(t, state)
		require.Equal(t, "1500000000", state.Balance)
		require.True(t, state.IsDeployed)
		require.Equal(t, uint64(2000), state.GenTimings.GenLt)
		require.Equal(t, &domain.TransactionID{Lt: 2000, Hash: "txhash"}, state.LastTransactionID)

		state, err = transport.GetFullContractState(ctx, domain.ZeroAddress)
		require.NoError(t, err)
		require.Nil(t, state)
	})

	t.Run("GetTransactions", func(t *testing.T) {
		txs, err := transport.GetTransactions(ctx, walletAddress, 0, 16)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		require.NotContains(t, server.lastVariables(), "fromLt")

		require.Equal(t, domain.TransactionID{Lt: 2000, Hash: "tx2"}, txs[0].ID)
		require.Equal(t, &domain.TransactionID{Lt: 1000, Hash: "tx1"}, txs[0].PrevTransactionID)
		require.Equal(t, "0:aa", txs[0].InMessage.Src)
		require.Equal(t, "active", txs[0].EndStatus)
		require.Nil(t, txs[1].PrevTransactionID)
		require.Equal(t, "0", txs[1].TotalFees)
		require.Len(t, txs[1].OutMessages, 1)

		_, err = transport.GetTransactions(ctx, walletAddress, 2000, 16)
		require.NoError(t, err)
		require.Equal(t, "2000", server.lastVariables()["fromLt"])
	})

	t.Run("SendMessage", func(t *testing.T) {
		msg := domain.SignedMessage{Hash: "hash", ExpireAt: 1700000060, Boc: "boc"}
		require.NoError(t, transport.SendMessage(ctx, walletAddress, msg))

		requests := server.lastVariables()["requests"].([]interface{})
		require.Len(t, requests, 1)
		req := requests[0].(map[string]interface{})
		require.Equal(t, "hash", req["id"])
		require.Equal(t, "boc", req["body"])
		require.Equal(t, float64(1700000060000), req["expireAt"])
	})

	t.Run("Tokens", func(t *testing.T) {
		details, err := transport.GetTokenRootDetails(ctx, rootAddress, walletAddress)
		require.NoError(t, err)
		require.Equal(t, "USDT", details.Symbol.Name)

		_, err = transport.GetTokenWalletBalance(ctx, "0:44")
		require.ErrorIs(t, err, gql.ErrContractNotDeployed)
		decoder.AssertExpectations(t)
	})

	t.Run("Free", func(t *testing.T) {
		transport.Free()
		transport.Free()
		_, err := transport.GetFullContractState(ctx, walletAddress)
		require.ErrorIs(t, err, gql.ErrTransportClosed)
	})
}

func TestTransportErrors(t *testing.T) {
	_, err := gql.NewTransport(
		httpclient.New(httpclient.Options{}), domain.GqlParams{}, &mockDecoder{}, nil,
	)
	require.ErrorIs(t, err, domain.ErrMissingEndpoints)

	_, err = gql.NewTransport(
		httpclient.New(httpclient.Options{}),
		domain.GqlParams{Endpoints: []string{"localhost"}},
		nil, nil,
	)
	require.ErrorIs(t, err, gql.ErrMissingDecoder)

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors":[{"message":"boom"},{"message":"bang"}]}`))
		},
	))
	t.Cleanup(server.Close)

	transport, err := gql.NewTransport(
		httpclient.New(httpclient.Options{}),
		domain.GqlParams{Endpoints: []string{server.URL}},
		&mockDecoder{}, nil,
	)
	require.NoError(t, err)
	_, err = transport.GetFullContractState(context.Background(), walletAddress)
	require.EqualError(t, err, "graphql: boom; bang")
}
