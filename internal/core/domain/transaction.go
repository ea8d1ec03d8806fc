package domain

const (
	// BatchTypeNew marks a batch of transactions found at the head of the
	// chain.
	BatchTypeNew = "new"
	// BatchTypeOld marks a historical page of transactions.
	BatchTypeOld = "old"

	// TransactionInfoWalletInteraction ...
	TransactionInfoWalletInteraction = "wallet_interaction"
	// WalletMethodMultisig ...
	WalletMethodMultisig = "multisig"
	// WalletMethodTransfer ...
	WalletMethodTransfer = "transfer"

	// MultisigSubmit ...
	MultisigSubmit = "submit"
	// MultisigConfirm ...
	MultisigConfirm = "confirm"
	// MultisigSend ...
	MultisigSend = "send"
	// MultisigDeploy ...
	MultisigDeploy = "deploy"
)

// TransactionID identifies a transaction by logical time and hash.
type TransactionID struct {
	Lt   uint64 `json:"lt,string"`
	Hash string `json:"hash"`
}

// Message is an inbound or outbound message of a transaction.
type Message struct {
	Hash   string `json:"hash"`
	Src    string `json:"src,omitempty"`
	Dst    string `json:"dst,omitempty"`
	Value  string `json:"value"`
	Bounce bool   `json:"bounce"`
	Body   string `json:"body,omitempty"`
}

// MultisigSubmitData is the payload of a multisig submitTransaction call.
type MultisigSubmitData struct {
	Custodian     string `json:"custodian"`
	Dest          string `json:"dest"`
	Value         string `json:"value"`
	TransactionID string `json:"transId"`
}

// MultisigConfirmData is the payload of a multisig confirmTransaction call.
type MultisigConfirmData struct {
	Custodian     string `json:"custodian"`
	TransactionID string `json:"transactionId"`
}

// MultisigMethod is one of submit, confirm, send or deploy. Only the field
// matching Type is set.
type MultisigMethod struct {
	Type    string               `json:"type"`
	Submit  *MultisigSubmitData  `json:"submit,omitempty"`
	Confirm *MultisigConfirmData `json:"confirm,omitempty"`
}

// WalletMethod is the decoded wallet method of a wallet interaction.
type WalletMethod struct {
	Type     string          `json:"type"`
	Multisig *MultisigMethod `json:"multisig,omitempty"`
}

// WalletInteraction describes an outgoing call made through a wallet.
type WalletInteraction struct {
	Recipient string       `json:"recipient,omitempty"`
	Method    WalletMethod `json:"method"`
}

// TransactionInfo is the decoded description of a native wallet transaction,
// as produced by the wallet engine.
type TransactionInfo struct {
	Type              string             `json:"type"`
	WalletInteraction *WalletInteraction `json:"walletInteraction,omitempty"`
}

// Transaction is a native wallet transaction.
type Transaction struct {
	ID                TransactionID    `json:"id"`
	PrevTransactionID *TransactionID   `json:"prevTransactionId,omitempty"`
	CreatedAt         uint32           `json:"createdAt"`
	Aborted           bool             `json:"aborted"`
	OrigStatus        string           `json:"origStatus"`
	EndStatus         string           `json:"endStatus"`
	TotalFees         string           `json:"totalFees"`
	InMessage         Message          `json:"inMessage"`
	OutMessages       []Message        `json:"outMessages"`
	Info              *TransactionInfo `json:"info,omitempty"`
}

// MultisigMethod returns the multisig method of a wallet interaction, if any.
func (t Transaction) MultisigMethod() (*MultisigMethod, bool) {
	if t.Info == nil || t.Info.Type != TransactionInfoWalletInteraction ||
		t.Info.WalletInteraction == nil {
		return nil, false
	}
	method := t.Info.WalletInteraction.Method
	if method.Type != WalletMethodMultisig || method.Multisig == nil {
		return nil, false
	}
	return method.Multisig, true
}

// Value returns the signed value of the transaction in nano units, incoming
// minus outgoing.
func (t Transaction) Value() string {
	return transactionValue(t)
}

// TokenTransactionInfo is the decoded description of a token transfer.
type TokenTransactionInfo struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	Address string `json:"address,omitempty"`
}

// TokenWalletTransaction is a transaction of a token wallet.
type TokenWalletTransaction struct {
	Transaction
	TokenInfo *TokenTransactionInfo `json:"tokenInfo,omitempty"`
}

// BatchInfo describes a page of transactions.
type BatchInfo struct {
	MinLt     uint64 `json:"minLt,string"`
	MaxLt     uint64 `json:"maxLt,string"`
	BatchType string `json:"batchType"`
}

func (b BatchInfo) IsNew() bool {
	return b.BatchType == BatchTypeNew
}

// NewBatchInfo computes min and max lt of a page.
func NewBatchInfo(ids []TransactionID, batchType string) BatchInfo {
	info := BatchInfo{BatchType: batchType}
	for i, id := range ids {
		if i == 0 || id.Lt < info.MinLt {
			info.MinLt = id.Lt
		}
		if id.Lt > info.MaxLt {
			info.MaxLt = id.Lt
		}
	}
	return info
}

// PendingTransaction is a message sent but not yet found on chain.
type PendingTransaction struct {
	MessageHash string `json:"messageHash"`
	Src         string `json:"src,omitempty"`
	ExpireAt    uint32 `json:"expireAt"`
}

// SignedMessage is an external message signed by the wallet engine.
type SignedMessage struct {
	Hash     string `json:"hash"`
	ExpireAt uint32 `json:"expireAt"`
	Boc      string `json:"boc"`
}

// StoredMessageInfo is what is kept about a message waiting for its
// transaction or moved to the failed bucket.
type StoredMessageInfo struct {
	MessageHash string `json:"messageHash"`
	CreatedAt   uint32 `json:"createdAt"`
	Amount      string `json:"amount,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
}

// MultisigPendingTransaction is an unconfirmed multisig transaction as
// reported by the wallet contract.
type MultisigPendingTransaction struct {
	ID            string   `json:"id"`
	Confirmations []string `json:"confirmations"`
	SignsRequired uint8    `json:"signsRequired"`
	SignsReceived uint8    `json:"signsReceived"`
	Creator       string   `json:"creator"`
	Index         uint8    `json:"index"`
	Dest          string   `json:"dest"`
	Value         string   `json:"value"`
	SendFlags     uint16   `json:"sendFlags"`
	Payload       string   `json:"payload"`
	Bounce        bool     `json:"bounce"`
}
