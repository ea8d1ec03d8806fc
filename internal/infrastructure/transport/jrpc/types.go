package jrpc

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
)

const (
	jsonrpcVersion = "2.0"

	methodGetContractState      = "getContractState"
	methodGetTransactionsList   = "getTransactionsList"
	methodSendMessage           = "sendMessage"
	methodGetTokenRootDetails   = "getTokenRootDetails"
	methodGetTokenWalletBalance = "getTokenWalletBalance"

	stateExists = "exists"
)

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("jrpc error %d: %s", e.Code, e.Message)
}

type addressParams struct {
	Address string `json:"address"`
}

type transactionsParams struct {
	Address           string `json:"address"`
	LastTransactionLt string `json:"lastTransactionLt,omitempty"`
	Limit             uint8  `json:"limit"`
}

type sendMessageParams struct {
	Message string `json:"message"`
}

type tokenRootParams struct {
	RootTokenContract string `json:"rootTokenContract"`
	Owner             string `json:"owner"`
}

type lastTransactionID struct {
	IsExact bool   `json:"isExact"`
	Lt      string `json:"lt"`
	Hash    string `json:"hash"`
}

type contractStateResult struct {
	Type              string             `json:"type"`
	Balance           string             `json:"balance"`
	Account           string             `json:"account"`
	IsDeployed        bool               `json:"isDeployed"`
	Timings           timings            `json:"timings"`
	LastTransactionID *lastTransactionID `json:"lastTransactionId"`
}

type timings struct {
	GenLt    string `json:"genLt"`
	GenUtime uint32 `json:"genUtime"`
}

func (r contractStateResult) toDomain() (*domain.ContractState, error) {
	if r.Type != stateExists {
		return nil, nil
	}
	genLt, err := parseLt(r.Timings.GenLt)
	if err != nil {
		return nil, err
	}
	state := &domain.ContractState{
		Balance:    r.Balance,
		GenTimings: domain.GenTimings{GenLt: genLt, GenUtime: r.Timings.GenUtime},
		IsDeployed: r.IsDeployed,
		Boc:        r.Account,
	}
	if state.Balance == "" {
		state.Balance = "0"
	}
	if id := r.LastTransactionID; id != nil {
		lt, err := parseLt(id.Lt)
		if err != nil {
			return nil, err
		}
		state.LastTransactionID = &domain.TransactionID{Lt: lt, Hash: id.Hash}
	}
	return state, nil
}

type balanceResult struct {
	Balance string `json:"balance"`
}

func parseLt(lt string) (uint64, error) {
	if lt == "" {
		return 0, nil
	}
	return strconv.ParseUint(lt, 10, 64)
}
