package domain_test

import (
	"fmt"
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func ids(lts ...uint64) []domain.TransactionID {
	list := make([]domain.TransactionID, 0, len(lts))
	for _, lt := range lts {
		list = append(list, domain.TransactionID{Lt: lt, Hash: hashOf(lt)})
	}
	return list
}

func hashOf(lt uint64) string {
	return fmt.Sprintf("hash%d", lt)
}

func TestFindNewTransactions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		ids           []domain.TransactionID
		info          domain.BatchInfo
		watermark     uint64
		expected      []int
		nextWatermark uint64
		advanced      bool
	}{
		{
			name:          "fresh_subscription_old_batch",
			ids:           ids(100, 500),
			info:          domain.BatchInfo{MinLt: 100, MaxLt: 500, BatchType: domain.BatchTypeOld},
			watermark:     0,
			expected:      []int{},
			nextWatermark: 500,
			advanced:      true,
		},
		{
			name:          "head_batch_below_watermark",
			ids:           ids(100, 310),
			info:          domain.BatchInfo{MinLt: 100, MaxLt: 310, BatchType: domain.BatchTypeNew},
			watermark:     300,
			expected:      []int{0, 1},
			nextWatermark: 310,
			advanced:      true,
		},
		{
			name:      "old_batch_already_seen",
			ids:       ids(200, 250),
			info:      domain.BatchInfo{MinLt: 200, MaxLt: 250, BatchType: domain.BatchTypeOld},
			watermark: 300,
			expected:  []int{},
			advanced:  false,
		},
		{
			name:          "old_batch_partially_new",
			ids:           ids(400, 350, 300, 250),
			info:          domain.BatchInfo{MinLt: 250, MaxLt: 400, BatchType: domain.BatchTypeOld},
			watermark:     300,
			expected:      []int{0, 1},
			nextWatermark: 400,
			advanced:      true,
		},
		{
			name:      "head_batch_never_regresses",
			ids:       ids(10, 20),
			info:      domain.BatchInfo{MinLt: 10, MaxLt: 20, BatchType: domain.BatchTypeNew},
			watermark: 300,
			expected:  []int{0, 1},
			advanced:  false,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			found := domain.FindNewTransactions(tt.ids, tt.info, tt.watermark)
			require.Equal(t, tt.expected, found)

			next, ok := domain.NextWatermark(tt.ids, found, tt.watermark)
			require.Equal(t, tt.advanced, ok)
			if ok {
				require.Equal(t, tt.nextWatermark, next.Lt)
			}
		})
	}
}

func TestWatermarkMonotonicity(t *testing.T) {
	t.Parallel()

	batches := []struct {
		ids  []domain.TransactionID
		kind string
	}{
		{ids(100, 90), domain.BatchTypeOld},
		{ids(150, 120), domain.BatchTypeNew},
		{ids(80, 70), domain.BatchTypeOld},
		{ids(130), domain.BatchTypeNew},
		{ids(400, 300, 200), domain.BatchTypeOld},
		{ids(110), domain.BatchTypeNew},
	}

	watermark := uint64(0)
	for _, batch := range batches {
		info := domain.NewBatchInfo(batch.ids, batch.kind)
		found := domain.FindNewTransactions(batch.ids, info, watermark)
		if !info.IsNew() && info.MaxLt <= watermark {
			require.Empty(t, found)
		}

		if next, ok := domain.NextWatermark(batch.ids, found, watermark); ok {
			require.Greater(t, next.Lt, watermark)
			watermark = next.Lt
		}
	}
	require.Equal(t, uint64(400), watermark)
}

func TestMergeTransactions(t *testing.T) {
	t.Parallel()

	txs := func(lts ...uint64) []domain.Transaction {
		list := make([]domain.Transaction, 0, len(lts))
		for _, id := range ids(lts...) {
			list = append(list, domain.Transaction{ID: id})
		}
		return list
	}
	lts := func(list []domain.Transaction) []uint64 {
		out := make([]uint64, 0, len(list))
		for _, tx := range list {
			out = append(out, tx.ID.Lt)
		}
		return out
	}

	merged := domain.MergeTransactions(nil, txs(300, 200))
	require.Equal(t, []uint64{300, 200}, lts(merged))

	merged = domain.MergeTransactions(merged, txs(500, 400, 300))
	require.Equal(t, []uint64{500, 400, 300, 200}, lts(merged))

	merged = domain.MergeTransactions(merged, txs(200, 100))
	require.Equal(t, []uint64{500, 400, 300, 200, 100}, lts(merged))
}
