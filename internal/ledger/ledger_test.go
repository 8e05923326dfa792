package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyBuyWeightedAverage(t *testing.T) {
	l := New()

	assert.NoError(t, l.ApplyBuy("BTC", 100, 10))
	pos, ok := l.Get("BTC")
	assert.True(t, ok)
	assert.Equal(t, 100.0, pos.CostBasis)
	assert.Equal(t, 10.0, pos.TotalQuantity)

	// 追加买入：(100*10 + 200*10) / 20 = 150
	assert.NoError(t, l.ApplyBuy("BTC", 200, 10))
	pos, _ = l.Get("BTC")
	assert.Equal(t, 150.0, pos.CostBasis)
	assert.Equal(t, 20.0, pos.TotalQuantity)
}

func TestApplyBuyInvalidQuantity(t *testing.T) {
	l := New()
	err := l.ApplyBuy("BTC", 100, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	err = l.ApplyBuy("BTC", 100, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, ok := l.Get("BTC")
	assert.False(t, ok)
}

func TestApplySellRealizedPnLAndReset(t *testing.T) {
	l := New()
	assert.NoError(t, l.ApplyBuy("BTC", 100, 10))
	assert.NoError(t, l.ApplyBuy("BTC", 200, 10))

	// 成本 150，以 180 清仓：盈亏 +20%
	realized, err := l.ApplySell("BTC", 180, 20)
	assert.NoError(t, err)
	assert.InDelta(t, 20.0, realized, 1e-9)

	pos, ok := l.Get("BTC")
	assert.True(t, ok, "清仓后记录保留为历史")
	assert.Equal(t, 0.0, pos.TotalQuantity)
	assert.Equal(t, 0.0, pos.CostBasis, "清仓后成本重置")
}

func TestApplySellPartial(t *testing.T) {
	l := New()
	assert.NoError(t, l.ApplyBuy("ETH", 100, 10))

	realized, err := l.ApplySell("ETH", 90, 4)
	assert.NoError(t, err)
	assert.InDelta(t, -10.0, realized, 1e-9)

	pos, _ := l.Get("ETH")
	assert.Equal(t, 6.0, pos.TotalQuantity)
	assert.Equal(t, 100.0, pos.CostBasis, "部分卖出不改变均价")
}

func TestApplySellClampsAtZero(t *testing.T) {
	l := New()
	assert.NoError(t, l.ApplyBuy("ETH", 100, 5))

	_, err := l.ApplySell("ETH", 110, 8)
	assert.NoError(t, err)
	pos, _ := l.Get("ETH")
	assert.Equal(t, 0.0, pos.TotalQuantity)
}

func TestApplySellNoPosition(t *testing.T) {
	l := New()
	_, err := l.ApplySell("DOGE", 1, 1)
	assert.ErrorIs(t, err, ErrNoOpenPosition)
}

func TestRecordPnLSnapshotAppends(t *testing.T) {
	l := New()
	assert.NoError(t, l.ApplyBuy("BTC", 100, 1))

	now := time.Now()
	l.RecordPnLSnapshot("BTC", now, 5)
	l.RecordPnLSnapshot("BTC", now.Add(time.Hour), -3)
	// 无持仓记录的标的直接忽略
	l.RecordPnLSnapshot("ETH", now, 1)

	pos, _ := l.Get("BTC")
	assert.Len(t, pos.PnLEntries, 2)
	assert.Equal(t, 5.0, pos.PnLEntries[0].Value)
	assert.Equal(t, -3.0, pos.PnLEntries[1].Value)
}

func TestCloneIsolation(t *testing.T) {
	l := New()
	assert.NoError(t, l.ApplyBuy("BTC", 100, 10))

	clone := l.Clone()
	assert.NoError(t, clone.ApplyBuy("BTC", 300, 10))
	_, err := clone.ApplySell("BTC", 50, 5)
	assert.NoError(t, err)
	clone.RecordPnLSnapshot("BTC", time.Now(), 1)

	pos, _ := l.Get("BTC")
	assert.Equal(t, 100.0, pos.CostBasis, "副本写入不得影响原账本")
	assert.Equal(t, 10.0, pos.TotalQuantity)
	assert.Empty(t, pos.PnLEntries)
}

func TestRestore(t *testing.T) {
	l := New()
	assert.NoError(t, l.ApplyBuy("BTC", 100, 2))
	l.RecordPnLSnapshot("BTC", time.Now(), 1)

	restored := Restore(l.Positions())
	pos, ok := restored.Get("BTC")
	assert.True(t, ok)
	assert.Equal(t, 100.0, pos.CostBasis)
	assert.Equal(t, 2.0, pos.TotalQuantity)
	assert.Len(t, pos.PnLEntries, 1)
}
