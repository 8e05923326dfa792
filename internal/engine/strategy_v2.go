package engine

import (
	"context"

	"sable/internal/logger"
	"sable/internal/market"
	"sable/internal/types"
)

// StrategyV2 收紧买入条件：除 call=BUY 外还要求 strength=High。
// 卖出规则与 v1 相同。
type StrategyV2 struct {
	v1 *StrategyV1
}

func NewStrategyV2(deps StrategyDeps) *StrategyV2 {
	return &StrategyV2{v1: NewStrategyV1(deps)}
}

func (s *StrategyV2) Name() string { return "strategy/v2" }

func (s *StrategyV2) EvaluateBuy(ctx context.Context, books Books, asset types.Asset, price float64, pools []market.Pool) (Outcome, error) {
	outcome := Outcome{Symbol: asset.Symbol, Action: "NONE"}
	rec := s.v1.recommend(ctx, asset, price, pools)
	outcome.Recommendation = rec
	if rec.Call != types.CallBuy || rec.Strength != types.StrengthHigh {
		logger.Infof("[engine] %s 推荐=%s strength=%s，v2 只接受高强度 BUY，不买入",
			asset.Symbol, rec.Call, rec.Strength)
		return outcome, nil
	}
	return s.v1.executeBuy(books, asset, price, outcome)
}

func (s *StrategyV2) EvaluateSell(ctx context.Context, books Books, asset types.Asset, price float64) (Outcome, error) {
	return evaluateSell(&s.v1.deps, books, asset, price)
}
