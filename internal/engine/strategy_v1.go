package engine

import (
	"context"
	"errors"
	"fmt"

	"sable/internal/logger"
	"sable/internal/market"
	"sable/internal/risk"
	"sable/internal/types"

	"github.com/shopspring/decimal"
)

// StrategyV1 基础策略：Oracle 给出 BUY 即按固定名义金额买入；
// 卖出分支与推荐无关，逐笔检查未平仓 BUY 的止损/止盈。
type StrategyV1 struct {
	deps StrategyDeps
}

func NewStrategyV1(deps StrategyDeps) *StrategyV1 {
	return &StrategyV1{deps: deps}
}

func (s *StrategyV1) Name() string { return "strategy/v1" }

func (s *StrategyV1) EvaluateBuy(ctx context.Context, books Books, asset types.Asset, price float64, pools []market.Pool) (Outcome, error) {
	outcome := Outcome{Symbol: asset.Symbol, Action: "NONE"}
	rec := s.recommend(ctx, asset, price, pools)
	outcome.Recommendation = rec
	if rec.Call != types.CallBuy {
		logger.Infof("[engine] %s 推荐=%s（%s/%s），不买入", asset.Symbol, rec.Call, rec.Direction, rec.Strength)
		return outcome, nil
	}
	return s.executeBuy(books, asset, price, outcome)
}

// recommend GET_RECOMMENDATION 阶段：Oracle 错误或解析失败都降级为 NEUTRAL。
func (s *StrategyV1) recommend(ctx context.Context, asset types.Asset, price float64, pools []market.Pool) types.Recommendation {
	contextText := BuildContext(asset, price, s.deps.Trade.HistoryLookback, pools)
	raw, err := s.deps.Oracle.Evaluate(ctx, contextText, s.deps.Instructions)
	if err != nil {
		logger.Warnf("[engine] %s Oracle 调用失败，按 NEUTRAL 处理: %v", asset.Symbol, err)
		return types.Neutral("oracle unavailable")
	}
	rec, perr := s.deps.Parser.Parse(asset.Symbol, raw)
	if perr != nil {
		// Parser 已记录细节并返回 NEUTRAL 降级结果
		return rec
	}
	return rec
}

// executeBuy 固定名义金额换算数量后记账。除法走 decimal 避免精度漂移。
func (s *StrategyV1) executeBuy(books Books, asset types.Asset, price float64, outcome Outcome) (Outcome, error) {
	if price <= 0 {
		return outcome, fmt.Errorf("%w: %s price=%v", market.ErrPriceUnavailable, asset.Symbol, price)
	}
	qty, _ := decimal.NewFromFloat(s.deps.Trade.OrderAmount).
		Div(decimal.NewFromFloat(price)).Float64()
	if err := books.Ledger.ApplyBuy(asset.Symbol, price, qty); err != nil {
		return outcome, err
	}
	order := types.Order{
		ID:        s.deps.newID(),
		Timestamp: s.deps.now(),
		Price:     price,
		Quantity:  qty,
		Symbol:    asset.Symbol,
		Direction: types.DirectionBuy,
	}
	if err := books.Journal.Record(order); err != nil {
		return outcome, err
	}
	outcome.addAction("BUY")
	outcome.Orders = append(outcome.Orders, order)
	logger.Infof("[engine] 买入 %s：price=%.6f qty=%.8f notional=%.2f", asset.Symbol, price, qty, s.deps.Trade.OrderAmount)
	return outcome, nil
}

func (s *StrategyV1) EvaluateSell(ctx context.Context, books Books, asset types.Asset, price float64) (Outcome, error) {
	return evaluateSell(&s.deps, books, asset, price)
}

// evaluateSell 卖出分支由 v1/v2 共用：规则不随策略版本变化。
func evaluateSell(deps *StrategyDeps, books Books, asset types.Asset, price float64) (Outcome, error) {
	outcome := Outcome{Symbol: asset.Symbol, Action: "NONE"}
	openBuys := books.Journal.ListOpenBuys(asset.Symbol)
	if len(openBuys) == 0 {
		return outcome, nil
	}
	var errs []error
	for _, buy := range openBuys {
		signal := risk.ShouldExit(buy.Price, price, deps.Trade.StopLossPct, deps.Trade.TakeProfitPct)
		if signal == risk.Hold {
			continue
		}
		_, err := books.Ledger.ApplySell(asset.Symbol, price, buy.Quantity)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sell := types.Order{
			ID:        deps.newID(),
			Timestamp: deps.now(),
			Price:     price,
			Quantity:  buy.Quantity,
			Symbol:    asset.Symbol,
			Direction: types.DirectionSell,
			ClosesID:  buy.ID,
		}
		if err := books.Journal.Record(sell); err != nil {
			errs = append(errs, err)
			continue
		}
		pnl := risk.UnrealizedPnLPct(buy.Price, price)
		outcome.addAction("SELL")
		outcome.Orders = append(outcome.Orders, sell)
		outcome.RealizedPnL += pnl
		logger.Infof("[engine] %s 触发：卖出 %s qty=%.8f entry=%.6f now=%.6f pnl=%.2f%%",
			signal, asset.Symbol, buy.Quantity, buy.Price, price, pnl)
	}
	return outcome, errors.Join(errs...)
}
