package engine

import (
	"context"

	"sable/internal/config"
	"sable/internal/logger"
	"sable/internal/market"
	"sable/internal/types"
)

// EvaluatorV1 基础候选评估：按 24h 涨跌幅阈值粗筛，再做流动性池安全检查。
type EvaluatorV1 struct {
	filter *market.PoolFilter
	trade  config.TradeConfig
}

func NewEvaluatorV1(filter *market.PoolFilter, trade config.TradeConfig) *EvaluatorV1 {
	return &EvaluatorV1{filter: filter, trade: trade}
}

func (e *EvaluatorV1) Name() string { return "evaluator/v1" }

// IsCandidate 涨跌幅低于阈值的标的直接跳过，不进入决策流程。
func (e *EvaluatorV1) IsCandidate(asset types.Asset) bool {
	if asset.PriceChange < e.trade.PriceChangeThreshold {
		logger.Debugf("[engine] 跳过 %s：涨跌幅 %.2f < 阈值 %.2f",
			asset.Symbol, asset.PriceChange, e.trade.PriceChangeThreshold)
		return false
	}
	return true
}

func (e *EvaluatorV1) SafePools(ctx context.Context, symbol string) []market.Pool {
	if e.filter == nil {
		return nil
	}
	return e.filter.SafePools(ctx, symbol)
}
