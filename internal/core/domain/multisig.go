package domain

import "strconv"

// MultisigTransactionAggregate accumulates the on-chain submit and confirm
// events of one pending multisig transaction.
type MultisigTransactionAggregate struct {
	Confirmations        []string `json:"confirmations"`
	CreatedAt            uint32   `json:"createdAt"`
	FinalTransactionHash string   `json:"finalTransactionHash,omitempty"`
}

// MultisigAggregates maps a multisig transaction id to its aggregate.
type MultisigAggregates map[string]*MultisigTransactionAggregate

// AggregateMultisigTransactions folds the wallet interactions of a batch into
// aggregates and returns whether they changed.
//
// A non wallet-interaction is skipped, while a wallet interaction that is not
// a multisig call ends the pass. A submit with the sentinel id "0", or whose
// transaction sent a message with a destination, was already executed in the
// same block and ends the pass too.
func AggregateMultisigTransactions(
	aggregates MultisigAggregates, transactions []Transaction,
) bool {
	changed := false

outer:
	for _, tx := range transactions {
		if tx.Info == nil || tx.Info.Type != TransactionInfoWalletInteraction {
			continue
		}

		method, ok := tx.MultisigMethod()
		if !ok {
			break
		}

		switch method.Type {
		case MultisigSubmit:
			if method.Submit == nil {
				continue
			}
			id := method.Submit.TransactionID
			if id == "0" || hasOutgoingMessageWithDst(tx) {
				break outer
			}

			changed = true
			aggregate, ok := aggregates[id]
			if !ok {
				aggregates[id] = &MultisigTransactionAggregate{
					Confirmations: []string{method.Submit.Custodian},
					CreatedAt:     tx.CreatedAt,
				}
				continue
			}
			aggregate.CreatedAt = tx.CreatedAt
			aggregate.Confirmations = append(
				aggregate.Confirmations, method.Submit.Custodian,
			)

		case MultisigConfirm:
			if method.Confirm == nil {
				continue
			}
			id := method.Confirm.TransactionID
			changed = true

			var finalTransactionHash string
			if len(tx.OutMessages) > 0 {
				finalTransactionHash = tx.ID.Hash
			}

			aggregate, ok := aggregates[id]
			if !ok {
				aggregates[id] = &MultisigTransactionAggregate{
					Confirmations:        []string{method.Confirm.Custodian},
					CreatedAt:            ExtractMultisigTransactionTime(id),
					FinalTransactionHash: finalTransactionHash,
				}
				continue
			}
			if finalTransactionHash != "" {
				aggregate.FinalTransactionHash = finalTransactionHash
			}
			aggregate.Confirmations = append(
				aggregate.Confirmations, method.Confirm.Custodian,
			)
		}
	}

	return changed
}

// ExtractMultisigTransactionTime returns the unix time embedded in the upper
// 32 bits of a multisig transaction id.
func ExtractMultisigTransactionTime(transactionID string) uint32 {
	id, err := strconv.ParseUint(transactionID, 10, 64)
	if err != nil {
		return 0
	}
	return uint32(id >> 32)
}

func hasOutgoingMessageWithDst(tx Transaction) bool {
	for _, msg := range tx.OutMessages {
		if msg.Dst != "" {
			return true
		}
	}
	return false
}
