package shadowlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sable/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "shadow.db"))
	if err != nil {
		t.Fatalf("初始化 shadowlog 失败: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRecord(symbol string, ts int64, diverged bool) types.ShadowRecord {
	rec := types.ShadowRecord{
		TraceID:      fmt.Sprintf("trace-%d", ts),
		Symbol:       symbol,
		Timestamp:    time.UnixMilli(ts).UTC(),
		Price:        100,
		ProdCall:     types.CallBuy,
		ProdAction:   "BUY 2.0000",
		ShadowCall:   types.CallBuy,
		ShadowAction: "BUY 2.0000",
		Diverged:     diverged,
		EvaluatorTag: "evaluator/v1",
		StrategyTag:  "strategy/v2",
		ProdRec:      types.Recommendation{Call: types.CallBuy, Direction: types.TrendBullish, Strength: types.StrengthHigh, Summary: "上涨动能"},
		ShadowRec:    types.Recommendation{Call: types.CallBuy, Direction: types.TrendBullish, Strength: types.StrengthHigh, Summary: "上涨动能"},
	}
	if diverged {
		rec.ShadowCall = types.CallNeutral
		rec.ShadowAction = "NONE"
		rec.ShadowRec = types.Neutral("观望")
	}
	return rec
}

func TestAppendAndListRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	want := sampleRecord("btc", 1700000000000, true)
	assert.NoError(t, st.AppendShadowRecord(ctx, want))

	got, err := st.ListShadowRecords(ctx, Query{})
	assert.NoError(t, err)
	assert.Len(t, got, 1)

	// 写入时 symbol 规范化为大写
	want.Symbol = "BTC"
	assert.Equal(t, want, got[0])
}

func TestListOrderedNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		assert.NoError(t, st.AppendShadowRecord(ctx, sampleRecord("BTC", 1700000000000+i*1000, false)))
	}

	got, err := st.ListShadowRecords(ctx, Query{})
	assert.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "trace-1700000002000", got[0].TraceID)
	assert.Equal(t, "trace-1700000000000", got[2].TraceID)
}

func TestListFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, st.AppendShadowRecord(ctx, sampleRecord("BTC", 1000, false)))
	assert.NoError(t, st.AppendShadowRecord(ctx, sampleRecord("ETH", 2000, true)))
	assert.NoError(t, st.AppendShadowRecord(ctx, sampleRecord("BTC", 3000, true)))

	bySymbol, err := st.ListShadowRecords(ctx, Query{Symbol: "btc"})
	assert.NoError(t, err)
	assert.Len(t, bySymbol, 2)

	diverged, err := st.ListShadowRecords(ctx, Query{OnlyDiverged: true})
	assert.NoError(t, err)
	assert.Len(t, diverged, 2)

	both, err := st.ListShadowRecords(ctx, Query{Symbol: "BTC", OnlyDiverged: true})
	assert.NoError(t, err)
	assert.Len(t, both, 1)
	assert.Equal(t, "trace-3000", both[0].TraceID)
}

func TestListLimitAndOffset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		assert.NoError(t, st.AppendShadowRecord(ctx, sampleRecord("BTC", 1000+i, false)))
	}

	page, err := st.ListShadowRecords(ctx, Query{Limit: 2, Offset: 2})
	assert.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, "trace-1002", page[0].TraceID)
	assert.Equal(t, "trace-1001", page[1].TraceID)
}

func TestCountDiverged(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, st.AppendShadowRecord(ctx, sampleRecord("BTC", 1000, false)))
	assert.NoError(t, st.AppendShadowRecord(ctx, sampleRecord("BTC", 2000, true)))

	total, err := st.CountDiverged(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.Close())
	assert.Error(t, st.AppendShadowRecord(context.Background(), sampleRecord("BTC", 1000, false)))
}
