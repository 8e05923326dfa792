package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sable/internal/config"
	"sable/internal/journal"
	"sable/internal/ledger"
	"sable/internal/logger"
	"sable/internal/market"
	"sable/internal/risk"
	"sable/internal/scheduler"
	"sable/internal/types"

	"github.com/google/uuid"
)

// 中文说明：
// 决策引擎：每个周期对全部跟踪标的顺序执行
// FETCH_CONTEXT → GET_RECOMMENDATION → BUY/SELL 分支 → RECORD。
// 单标的的外部失败（行情/Oracle）与账本契约违例都只中止该标的，周期继续。
// 影子路径在生产路径之后、以隔离副本运行，永不写权威账本。

// Persister 周期结束后的全量替换式持久化。
type Persister interface {
	SaveAssets(ctx context.Context, assets []types.Asset) error
	SavePositions(ctx context.Context, positions []types.Position) error
	SaveOrders(ctx context.Context, orders []types.Order) error
}

// ShadowInput 影子路径的一次输入快照（对影子侧不可变）。
type ShadowInput struct {
	TraceID string
	Asset   types.Asset
	Price   float64
	Time    time.Time
	Pools   []market.Pool
	Books   Books // 已隔离的账本副本
}

// ShadowRunner 影子执行器。错误在实现内部消化，绝不影响生产路径。
type ShadowRunner interface {
	RunSymbol(ctx context.Context, input ShadowInput, prod Outcome)
}

type Engine struct {
	cfg    *config.Config
	source market.Source
	store  Persister
	shadow ShadowRunner

	books  Books
	assets []types.Asset

	mu        sync.Mutex
	evaluator Evaluator
	strategy  Strategy

	now   func() time.Time
	newID func() string
}

type Params struct {
	Config    *config.Config
	Source    market.Source
	Store     Persister
	Shadow    ShadowRunner
	Ledger    *ledger.Ledger
	Journal   *journal.Journal
	Assets    []types.Asset
	Evaluator Evaluator
	Strategy  Strategy
}

func New(p Params) (*Engine, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("engine: nil config")
	}
	if p.Source == nil {
		return nil, fmt.Errorf("engine: nil market source")
	}
	if p.Evaluator == nil || p.Strategy == nil {
		return nil, fmt.Errorf("engine: evaluator/strategy not resolved")
	}
	led := p.Ledger
	if led == nil {
		led = ledger.New()
	}
	jnl := p.Journal
	if jnl == nil {
		jnl = journal.New()
	}
	return &Engine{
		cfg:       p.Config,
		source:    p.Source,
		store:     p.Store,
		shadow:    p.Shadow,
		books:     Books{Ledger: led, Journal: jnl},
		assets:    p.Assets,
		evaluator: p.Evaluator,
		strategy:  p.Strategy,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// SetComponents 热替换组件绑定（registry watch 触发）。下一周期生效。
func (e *Engine) SetComponents(evaluator Evaluator, strategy Strategy) {
	if e == nil || evaluator == nil || strategy == nil {
		return
	}
	e.mu.Lock()
	e.evaluator = evaluator
	e.strategy = strategy
	e.mu.Unlock()
	logger.Infof("[engine] 组件已更新 evaluator=%s strategy=%s", evaluator.Name(), strategy.Name())
}

func (e *Engine) components() (Evaluator, Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluator, e.strategy
}

// Books 暴露账本句柄（HTTP 只读查询用）。
func (e *Engine) Books() Books { return e.books }

// Run 周期循环：一个周期完整结束后等待固定间隔，再开始下一个周期。
// 周期之间响应 ctx 取消；周期内部不中断。
func (e *Engine) Run(ctx context.Context) error {
	interval, ok := scheduler.ParseIntervalDuration(e.cfg.Trade.CycleInterval)
	if !ok {
		return fmt.Errorf("engine: invalid trade.cycle_interval: %q", e.cfg.Trade.CycleInterval)
	}
	sched := scheduler.NewIntervalScheduler(ctx, interval)
	sched.RunImmediately = true
	sched.RunOnce = e.cfg.App.RunOnce
	sched.Start(func() {
		e.RunCycle(ctx)
	})
	return ctx.Err()
}

// RunCycle 执行一个完整周期。单标的失败不会中止其余标的。
func (e *Engine) RunCycle(ctx context.Context) {
	traceID := e.newID()
	started := e.now()
	logger.Infof("[engine] 周期开始 trace=%s assets=%d", traceID, len(e.assets))

	if err := e.refreshAssets(ctx); err != nil {
		logger.Warnf("[engine] 标的刷新失败（沿用上次数据）: %v", err)
	}
	if len(e.assets) == 0 {
		logger.Warnf("[engine] 无跟踪标的，跳过本周期")
		return
	}

	processed := 0
	for i := range e.assets {
		if err := e.tickSymbol(ctx, traceID, &e.assets[i]); err != nil {
			logger.Errorf("[engine] symbol=%s 处理失败，跳过: %v", e.assets[i].Symbol, err)
			continue
		}
		processed++
	}
	e.persist(ctx)
	logger.Infof("[engine] 周期结束 trace=%s processed=%d/%d elapsed=%s",
		traceID, processed, len(e.assets), e.now().Sub(started).Truncate(time.Millisecond))
}

// refreshAssets 合并行情源的最新标的清单：新标的入列，已有标的更新涨跌幅。
func (e *Engine) refreshAssets(ctx context.Context) error {
	latest, err := e.source.ListAssets(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]int, len(e.assets))
	for i, a := range e.assets {
		known[a.Symbol] = i
	}
	added := 0
	for _, a := range latest {
		if idx, ok := known[a.Symbol]; ok {
			e.assets[idx].PriceChange = a.PriceChange
			continue
		}
		e.assets = append(e.assets, a)
		added++
	}
	if added > 0 {
		logger.Infof("[engine] 新增跟踪标的 %d 个", added)
	}
	return nil
}

// tickSymbol 单标的的一次完整管线。
func (e *Engine) tickSymbol(ctx context.Context, traceID string, asset *types.Asset) error {
	evaluator, strategy := e.components()

	if !evaluator.IsCandidate(*asset) {
		return nil
	}

	price, err := e.source.CurrentPrice(ctx, asset.CoinID)
	if err != nil {
		logger.Warnf("[engine] symbol=%s 取价失败，跳过: %v", asset.Symbol, err)
		return nil
	}
	if history, herr := e.source.PriceHistory(ctx, asset.CoinID, e.cfg.Trade.HistoryLookback); herr != nil {
		logger.Warnf("[engine] symbol=%s 历史拉取失败（继续，用旧历史）: %v", asset.Symbol, herr)
	} else {
		asset.AppendCandles(history)
	}

	pools := evaluator.SafePools(ctx, asset.Symbol)

	prod := Outcome{Symbol: asset.Symbol, Action: "NONE"}
	if e.cfg.Pool.Enabled && len(pools) == 0 {
		logger.Debugf("[engine] symbol=%s 无安全池，买入分支停用", asset.Symbol)
		prod.Recommendation = types.Neutral("no safe pools")
	} else {
		buy, berr := strategy.EvaluateBuy(ctx, e.books, *asset, price, pools)
		if berr != nil {
			return fmt.Errorf("buy branch: %w", berr)
		}
		prod = buy
	}

	sell, serr := strategy.EvaluateSell(ctx, e.books, *asset, price)
	if serr != nil {
		return fmt.Errorf("sell branch: %w", serr)
	}
	mergeOutcome(&prod, sell)
	asset.RealizedPnL += sell.RealizedPnL

	// RECORD：有持仓就补一条未实现盈亏快照（用最近收盘价，取不到则用当前价）
	snapshotPrice := price
	if close, ok := asset.LastClose(); ok {
		snapshotPrice = close
	}
	if pos, ok := e.books.Ledger.Get(asset.Symbol); ok && pos.CostBasis > 0 {
		e.books.Ledger.RecordPnLSnapshot(asset.Symbol, e.now(), risk.UnrealizedPnLPct(pos.CostBasis, snapshotPrice))
	}

	if e.shadow != nil {
		e.shadow.RunSymbol(ctx, ShadowInput{
			TraceID: traceID,
			Asset:   *asset,
			Price:   price,
			Time:    e.now(),
			Pools:   pools,
			Books:   e.books.Clone(),
		}, prod)
	}
	return nil
}

func mergeOutcome(dst *Outcome, src Outcome) {
	if src.Action != "" && src.Action != "NONE" {
		dst.addAction(src.Action)
	}
	dst.Orders = append(dst.Orders, src.Orders...)
	dst.RealizedPnL += src.RealizedPnL
}

// persist 全量替换式写出。失败只记日志：内存状态仍是权威，下周期重试。
func (e *Engine) persist(ctx context.Context) {
	if e.store == nil {
		return
	}
	var errs []error
	if err := e.store.SaveAssets(ctx, e.assets); err != nil {
		errs = append(errs, err)
	}
	if err := e.store.SavePositions(ctx, e.books.Ledger.Positions()); err != nil {
		errs = append(errs, err)
	}
	if err := e.store.SaveOrders(ctx, e.books.Journal.All()); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		logger.Errorf("[engine] 持久化失败: %v", err)
	}
}
