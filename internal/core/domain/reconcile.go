package domain

// FindNewTransactions classifies the transactions of a batch against the
// persisted watermark of the address. A head batch is entirely new. An old
// batch contributes nothing when its max lt is not above the watermark or
// when the address was never observed (watermark 0). Otherwise only the
// transactions above the watermark are new.
func FindNewTransactions(
	ids []TransactionID, info BatchInfo, watermark uint64,
) []int {
	indexes := make([]int, 0, len(ids))
	if info.IsNew() {
		for i := range ids {
			indexes = append(indexes, i)
		}
		return indexes
	}
	if info.MaxLt <= watermark || watermark == 0 {
		return indexes
	}
	for i, id := range ids {
		if id.Lt > watermark {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// NextWatermark returns the watermark after a batch was classified. It moves
// to the highest lt among the new transactions, or among the whole batch if
// none was new, and never goes backwards.
func NextWatermark(
	ids []TransactionID, newIndexes []int, watermark uint64,
) (TransactionID, bool) {
	candidates := ids
	if len(newIndexes) > 0 {
		candidates = make([]TransactionID, 0, len(newIndexes))
		for _, i := range newIndexes {
			candidates = append(candidates, ids[i])
		}
	}
	if len(candidates) <= 0 {
		return TransactionID{}, false
	}

	next := candidates[0]
	for _, id := range candidates[1:] {
		if id.Lt > next.Lt {
			next = id
		}
	}
	if next.Lt <= watermark {
		return TransactionID{}, false
	}
	return next, true
}

// MergeTransactions merges a batch into the known transactions, kept sorted
// by descending lt. Transactions already known by hash are skipped, whatever
// the kind of the batch.
func MergeTransactions(known, batch []Transaction) []Transaction {
	return mergeByID(known, batch, func(t Transaction) TransactionID { return t.ID })
}

// MergeTokenTransactions is MergeTransactions for token wallets.
func MergeTokenTransactions(
	known, batch []TokenWalletTransaction,
) []TokenWalletTransaction {
	return mergeByID(known, batch, func(t TokenWalletTransaction) TransactionID {
		return t.ID
	})
}

func mergeByID[T any](known, batch []T, idOf func(T) TransactionID) []T {
	seen := make(map[string]struct{}, len(known))
	merged := make([]T, 0, len(known)+len(batch))
	for _, tx := range known {
		seen[idOf(tx).Hash] = struct{}{}
		merged = append(merged, tx)
	}

	for _, tx := range batch {
		if _, ok := seen[idOf(tx).Hash]; ok {
			continue
		}
		seen[idOf(tx).Hash] = struct{}{}

		// insertion keeps the descending lt order of known
		pos := len(merged)
		for i, m := range merged {
			if idOf(tx).Lt > idOf(m).Lt {
				pos = i
				break
			}
		}
		merged = append(merged, tx)
		copy(merged[pos+1:], merged[pos:])
		merged[pos] = tx
	}
	return merged
}

// TransactionIDs extracts the ids of a page.
func TransactionIDs(transactions []Transaction) []TransactionID {
	ids := make([]TransactionID, 0, len(transactions))
	for _, tx := range transactions {
		ids = append(ids, tx.ID)
	}
	return ids
}

// TokenTransactionIDs extracts the ids of a token page.
func TokenTransactionIDs(transactions []TokenWalletTransaction) []TransactionID {
	ids := make([]TransactionID, 0, len(transactions))
	for _, tx := range transactions {
		ids = append(ids, tx.ID)
	}
	return ids
}
