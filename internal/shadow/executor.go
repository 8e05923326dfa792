package shadow

import (
	"context"
	"fmt"

	"sable/internal/engine"
	"sable/internal/logger"
	"sable/internal/types"
)

// 中文说明：
// 影子执行器：生产管线跑完某个标的后，用独立解析的 Evaluator/Strategy
// 对相同输入快照在账本副本上重跑一遍买/卖分支，落一条对照记录。
// 影子路径的任何错误（包括 panic）都就地消化，绝不影响生产路径，
// 也绝不写权威账本，记录只进 Sink。

// Sink 对照记录的落点（只追加）。
type Sink interface {
	AppendShadowRecord(ctx context.Context, record types.ShadowRecord) error
}

type Executor struct {
	evaluator    engine.Evaluator
	strategy     engine.Strategy
	sink         Sink
	evaluatorTag string
	strategyTag  string
}

type ExecutorParams struct {
	Evaluator    engine.Evaluator
	Strategy     engine.Strategy
	Sink         Sink
	EvaluatorTag string
	StrategyTag  string
}

func NewExecutor(p ExecutorParams) (*Executor, error) {
	if p.Evaluator == nil || p.Strategy == nil {
		return nil, fmt.Errorf("shadow: evaluator/strategy not resolved")
	}
	return &Executor{
		evaluator:    p.Evaluator,
		strategy:     p.Strategy,
		sink:         p.Sink,
		evaluatorTag: p.EvaluatorTag,
		strategyTag:  p.StrategyTag,
	}, nil
}

// RunSymbol 实现 engine.ShadowRunner。
func (e *Executor) RunSymbol(ctx context.Context, input engine.ShadowInput, prod engine.Outcome) {
	if e == nil {
		return
	}
	record := types.ShadowRecord{
		TraceID:      input.TraceID,
		Symbol:       input.Asset.Symbol,
		Timestamp:    input.Time,
		Price:        input.Price,
		ProdCall:     prod.Recommendation.Call,
		ProdAction:   prod.Action,
		ProdRec:      prod.Recommendation,
		EvaluatorTag: e.evaluatorTag,
		StrategyTag:  e.strategyTag,
	}

	outcome, err := e.runIsolated(ctx, input)
	if err != nil {
		record.ShadowError = err.Error()
		logger.Warnf("[shadow] symbol=%s 影子路径失败（已隔离）: %v", input.Asset.Symbol, err)
	} else {
		record.ShadowCall = outcome.Recommendation.Call
		record.ShadowAction = outcome.Action
		record.ShadowPnL = outcome.RealizedPnL
		record.ShadowRec = outcome.Recommendation
	}
	record.Diverged = record.ShadowError != "" ||
		record.ProdCall != record.ShadowCall ||
		record.ProdAction != record.ShadowAction
	if record.Diverged {
		logger.Infof("[shadow] symbol=%s 分歧 prod=%s/%s shadow=%s/%s",
			input.Asset.Symbol, record.ProdCall, record.ProdAction, record.ShadowCall, record.ShadowAction)
	}

	if e.sink == nil {
		return
	}
	if serr := e.sink.AppendShadowRecord(ctx, record); serr != nil {
		logger.Warnf("[shadow] 对照记录写入失败: %v", serr)
	}
}

// runIsolated 在账本副本上执行影子买/卖分支，panic 一并捕获。
func (e *Executor) runIsolated(ctx context.Context, input engine.ShadowInput) (outcome engine.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("shadow panic: %v", r)
		}
	}()
	outcome = engine.Outcome{Symbol: input.Asset.Symbol, Action: "NONE"}
	if !e.evaluator.IsCandidate(input.Asset) {
		outcome.Recommendation = types.Neutral("not a candidate")
		return outcome, nil
	}
	buy, berr := e.strategy.EvaluateBuy(ctx, input.Books, input.Asset, input.Price, input.Pools)
	if berr != nil {
		return outcome, berr
	}
	outcome = buy
	sell, serr := e.strategy.EvaluateSell(ctx, input.Books, input.Asset, input.Price)
	if serr != nil {
		return outcome, serr
	}
	if sell.Action != "" && sell.Action != "NONE" {
		outcome.RealizedPnL += sell.RealizedPnL
		outcome.Orders = append(outcome.Orders, sell.Orders...)
		if outcome.Action == "" || outcome.Action == "NONE" {
			outcome.Action = sell.Action
		} else {
			outcome.Action = outcome.Action + "+" + sell.Action
		}
	}
	return outcome, nil
}
