package gql

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
)

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors graphqlErrors   `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlErrors []graphqlError

func (e graphqlErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// account types of the accounts collection.
const (
	accTypeUninit = iota
	accTypeActive
	accTypeFrozen
	accTypeNonExist
)

type accountData struct {
	AccType     int    `json:"acc_type"`
	Balance     string `json:"balance"`
	Boc         string `json:"boc"`
	LastTransLt string `json:"last_trans_lt"`
	LastPaid    uint32 `json:"last_paid"`
}

type transactionRef struct {
	ID string `json:"id"`
	Lt string `json:"lt"`
}

type accountStateData struct {
	Accounts     []accountData    `json:"accounts"`
	Transactions []transactionRef `json:"transactions"`
}

func (d accountStateData) toDomain() (*domain.ContractState, error) {
	if len(d.Accounts) <= 0 || d.Accounts[0].AccType == accTypeNonExist {
		return nil, nil
	}
	account := d.Accounts[0]

	genLt, err := parseLt(account.LastTransLt)
	if err != nil {
		return nil, err
	}
	state := &domain.ContractState{
		Balance: valueOrZero(account.Balance),
		GenTimings: domain.GenTimings{
			GenLt:    genLt,
			GenUtime: account.LastPaid,
		},
		IsDeployed: account.AccType == accTypeActive,
		Boc:        account.Boc,
	}
	if len(d.Transactions) > 0 {
		lt, err := parseLt(d.Transactions[0].Lt)
		if err != nil {
			return nil, err
		}
		state.LastTransactionID = &domain.TransactionID{
			Lt: lt, Hash: d.Transactions[0].ID,
		}
	}
	return state, nil
}

type messageData struct {
	ID     string `json:"id"`
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Value  string `json:"value"`
	Bounce bool   `json:"bounce"`
	Body   string `json:"body"`
}

func (m messageData) toDomain() domain.Message {
	return domain.Message{
		Hash:   m.ID,
		Src:    m.Src,
		Dst:    m.Dst,
		Value:  valueOrZero(m.Value),
		Bounce: m.Bounce,
		Body:   m.Body,
	}
}

type transactionData struct {
	ID            string        `json:"id"`
	Lt            string        `json:"lt"`
	PrevTransHash string        `json:"prev_trans_hash"`
	PrevTransLt   string        `json:"prev_trans_lt"`
	Now           uint32        `json:"now"`
	Aborted       bool          `json:"aborted"`
	OrigStatus    string        `json:"orig_status_name"`
	EndStatus     string        `json:"end_status_name"`
	TotalFees     string        `json:"total_fees"`
	InMessage     *messageData  `json:"in_message"`
	OutMessages   []messageData `json:"out_messages"`
}

func (t transactionData) toDomain() (domain.Transaction, error) {
	lt, err := parseLt(t.Lt)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx := domain.Transaction{
		ID:          domain.TransactionID{Lt: lt, Hash: t.ID},
		CreatedAt:   t.Now,
		Aborted:     t.Aborted,
		OrigStatus:  strings.ToLower(t.OrigStatus),
		EndStatus:   strings.ToLower(t.EndStatus),
		TotalFees:   valueOrZero(t.TotalFees),
		OutMessages: make([]domain.Message, 0, len(t.OutMessages)),
	}
	if t.PrevTransHash != "" {
		prevLt, err := parseLt(t.PrevTransLt)
		if err != nil {
			return domain.Transaction{}, err
		}
		tx.PrevTransactionID = &domain.TransactionID{
			Lt: prevLt, Hash: t.PrevTransHash,
		}
	}
	if t.InMessage != nil {
		tx.InMessage = t.InMessage.toDomain()
	}
	for _, msg := range t.OutMessages {
		tx.OutMessages = append(tx.OutMessages, msg.toDomain())
	}
	return tx, nil
}

type transactionsData struct {
	Transactions []transactionData `json:"transactions"`
}

type postRequest struct {
	ID       string `json:"id"`
	Body     string `json:"body"`
	ExpireAt int64  `json:"expireAt"`
}

func parseLt(lt string) (uint64, error) {
	if lt == "" {
		return 0, nil
	}
	return strconv.ParseUint(lt, 10, 64)
}

func valueOrZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}
