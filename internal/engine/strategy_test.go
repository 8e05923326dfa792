package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"sable/internal/config"
	"sable/internal/journal"
	"sable/internal/ledger"
	"sable/internal/oracle"
	"sable/internal/types"
)

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Evaluate(ctx context.Context, contextText, instructions string) (string, error) {
	args := m.Called(ctx, contextText, instructions)
	return args.String(0), args.Error(1)
}

func testTrade() config.TradeConfig {
	return config.TradeConfig{
		StopLossPct:     10,
		TakeProfitPct:   20,
		OrderAmount:     100,
		CycleInterval:   "1h",
		HistoryLookback: 50,
	}
}

func testDeps(t *testing.T, orc oracle.Oracle) StrategyDeps {
	t.Helper()
	parser, err := oracle.NewParser()
	assert.NoError(t, err)
	seq := 0
	return StrategyDeps{
		Oracle:       orc,
		Parser:       parser,
		Instructions: "respond with json",
		Trade:        testTrade(),
		Now:          func() time.Time { return time.Unix(1700000000, 0) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("order-%d", seq)
		},
	}
}

func freshBooks() Books {
	return Books{Ledger: ledger.New(), Journal: journal.New()}
}

func TestStrategyV1BuysOnBuyCall(t *testing.T) {
	orc := new(MockOracle)
	orc.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"call": "BUY", "direction": "Bullish", "strength": "Medium"}`, nil)

	s := NewStrategyV1(testDeps(t, orc))
	books := freshBooks()
	asset := types.Asset{Symbol: "BTC", CoinID: "bitcoin"}

	outcome, err := s.EvaluateBuy(context.Background(), books, asset, 50, nil)
	assert.NoError(t, err)
	assert.Equal(t, "BUY", outcome.Action)
	assert.Len(t, outcome.Orders, 1)
	assert.InDelta(t, 2.0, outcome.Orders[0].Quantity, 1e-9, "名义金额 100 / 价格 50")

	pos, ok := books.Ledger.Get("BTC")
	assert.True(t, ok)
	assert.Equal(t, 50.0, pos.CostBasis)
	assert.Len(t, books.Journal.ListOpenBuys("BTC"), 1)
}

func TestStrategyV1NoBuyOnNeutral(t *testing.T) {
	orc := new(MockOracle)
	orc.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"call": "NEUTRAL"}`, nil)

	s := NewStrategyV1(testDeps(t, orc))
	books := freshBooks()

	outcome, err := s.EvaluateBuy(context.Background(), books, types.Asset{Symbol: "BTC"}, 50, nil)
	assert.NoError(t, err)
	assert.Equal(t, "NONE", outcome.Action)
	assert.Empty(t, outcome.Orders)
	_, ok := books.Ledger.Get("BTC")
	assert.False(t, ok)
}

func TestStrategyV1OracleFailureDegradesToNeutral(t *testing.T) {
	orc := new(MockOracle)
	orc.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return("", oracle.ErrOracleUnavailable)

	s := NewStrategyV1(testDeps(t, orc))
	books := freshBooks()

	outcome, err := s.EvaluateBuy(context.Background(), books, types.Asset{Symbol: "BTC"}, 50, nil)
	assert.NoError(t, err, "Oracle 失败是软失败")
	assert.Equal(t, types.CallNeutral, outcome.Recommendation.Call)
	assert.Equal(t, "NONE", outcome.Action)
}

func TestStrategyV1SellStopLossPerOrder(t *testing.T) {
	orc := new(MockOracle)
	s := NewStrategyV1(testDeps(t, orc))
	books := freshBooks()

	// 两笔未平仓 BUY：100 和 200。现价 89 同时击穿两笔的止损线（90 和 180），
	// 两笔都应平掉，且各自的 SELL 指向对应的 BUY。
	assert.NoError(t, books.Ledger.ApplyBuy("BTC", 100, 1))
	assert.NoError(t, books.Journal.Record(types.Order{ID: "b1", Timestamp: time.Now(), Price: 100, Quantity: 1, Symbol: "BTC", Direction: types.DirectionBuy}))
	assert.NoError(t, books.Ledger.ApplyBuy("BTC", 200, 1))
	assert.NoError(t, books.Journal.Record(types.Order{ID: "b2", Timestamp: time.Now(), Price: 200, Quantity: 1, Symbol: "BTC", Direction: types.DirectionBuy}))

	outcome, err := s.EvaluateSell(context.Background(), books, types.Asset{Symbol: "BTC"}, 89)
	assert.NoError(t, err)
	assert.Equal(t, "SELL", outcome.Action)
	assert.Len(t, outcome.Orders, 2)
	assert.Equal(t, "b1", outcome.Orders[0].ClosesID)
	assert.Equal(t, "b2", outcome.Orders[1].ClosesID)

	assert.Empty(t, books.Journal.ListOpenBuys("BTC"), "平掉的 BUY 不再出现在未平仓清单")
	pos, _ := books.Ledger.Get("BTC")
	assert.Equal(t, 0.0, pos.TotalQuantity)
}

func TestStrategyV1SellTakeProfitOnlyTriggered(t *testing.T) {
	orc := new(MockOracle)
	s := NewStrategyV1(testDeps(t, orc))
	books := freshBooks()

	assert.NoError(t, books.Ledger.ApplyBuy("BTC", 100, 1))
	assert.NoError(t, books.Journal.Record(types.Order{ID: "b1", Timestamp: time.Now(), Price: 100, Quantity: 1, Symbol: "BTC", Direction: types.DirectionBuy}))
	assert.NoError(t, books.Ledger.ApplyBuy("BTC", 130, 1))
	assert.NoError(t, books.Journal.Record(types.Order{ID: "b2", Timestamp: time.Now(), Price: 130, Quantity: 1, Symbol: "BTC", Direction: types.DirectionBuy}))

	// 现价 125：第一笔 +25% 触发止盈，第二笔 -3.8% 持有
	outcome, err := s.EvaluateSell(context.Background(), books, types.Asset{Symbol: "BTC"}, 125)
	assert.NoError(t, err)
	assert.Len(t, outcome.Orders, 1)
	assert.Equal(t, "b1", outcome.Orders[0].ClosesID)
	assert.InDelta(t, 25.0, outcome.RealizedPnL, 1e-9)

	open := books.Journal.ListOpenBuys("BTC")
	assert.Len(t, open, 1)
	assert.Equal(t, "b2", open[0].ID)
}

func TestStrategyV1SellNoOpenBuys(t *testing.T) {
	orc := new(MockOracle)
	s := NewStrategyV1(testDeps(t, orc))
	books := freshBooks()

	outcome, err := s.EvaluateSell(context.Background(), books, types.Asset{Symbol: "BTC"}, 100)
	assert.NoError(t, err)
	assert.Equal(t, "NONE", outcome.Action)
}

func TestStrategyV2RequiresHighStrength(t *testing.T) {
	orc := new(MockOracle)
	orc.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"call": "BUY", "strength": "Medium"}`, nil)

	s := NewStrategyV2(testDeps(t, orc))
	books := freshBooks()

	outcome, err := s.EvaluateBuy(context.Background(), books, types.Asset{Symbol: "BTC"}, 50, nil)
	assert.NoError(t, err)
	assert.Equal(t, "NONE", outcome.Action, "v2 只接受 HIGH 强度的 BUY")
	_, ok := books.Ledger.Get("BTC")
	assert.False(t, ok)
}

func TestStrategyV2BuysOnStrongBuy(t *testing.T) {
	orc := new(MockOracle)
	orc.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"call": "BUY", "strength": "High"}`, nil)

	s := NewStrategyV2(testDeps(t, orc))
	books := freshBooks()

	outcome, err := s.EvaluateBuy(context.Background(), books, types.Asset{Symbol: "BTC"}, 50, nil)
	assert.NoError(t, err)
	assert.Equal(t, "BUY", outcome.Action)
	assert.Len(t, books.Journal.ListOpenBuys("BTC"), 1)
}
