package engine

import (
	"context"
	"time"

	"sable/internal/config"
	"sable/internal/journal"
	"sable/internal/ledger"
	"sable/internal/market"
	"sable/internal/oracle"
	"sable/internal/types"

	"github.com/google/uuid"
)

// 中文说明：
// Evaluator/Strategy 是可版本化的逻辑组件，由 registry 按配置解析。
// 两条执行路径（生产/影子）共用同一套接口，差别只在注入的 Books 是否隔离。

// Books 一组账本句柄。生产路径持有权威账本，影子路径持有 Clone 出的副本。
type Books struct {
	Ledger  *ledger.Ledger
	Journal *journal.Journal
}

// Clone 返回隔离副本，供影子路径推演。
func (b Books) Clone() Books {
	return Books{Ledger: b.Ledger.Clone(), Journal: b.Journal.Clone()}
}

// Evaluator 判断标的是否值得进入决策流程，并提供流动性安全评估。
type Evaluator interface {
	Name() string
	IsCandidate(asset types.Asset) bool
	SafePools(ctx context.Context, symbol string) []market.Pool
}

// Outcome 单个 (cycle, symbol) 的决策结果。
type Outcome struct {
	Symbol         string
	Recommendation types.Recommendation
	Action         string // "BUY" / "SELL" / "BUY+SELL" / "NONE"
	Orders         []types.Order
	RealizedPnL    float64 // 本周期卖出累计的已实现盈亏（百分比之和）
}

func (o *Outcome) addAction(action string) {
	switch {
	case o.Action == "" || o.Action == "NONE":
		o.Action = action
	case o.Action == action:
	default:
		o.Action = o.Action + "+" + action
	}
}

// Strategy 在给定账本上执行买/卖两个分支。
// 实现只操作传入的 Books，不持有账本引用，保证影子隔离由调用方控制。
type Strategy interface {
	Name() string
	// EvaluateBuy 请求推荐并在 call=BUY（及版本自身的附加条件）时按固定名义金额买入。
	EvaluateBuy(ctx context.Context, books Books, asset types.Asset, price float64, pools []market.Pool) (Outcome, error)
	// EvaluateSell 对每笔未平仓 BUY 订单做止损/止盈判定，触发则以当前价平掉该笔。
	EvaluateSell(ctx context.Context, books Books, asset types.Asset, price float64) (Outcome, error)
}

// StrategyDeps 策略实现的公共依赖。
type StrategyDeps struct {
	Oracle       oracle.Oracle
	Parser       *oracle.Parser
	Instructions string
	Trade        config.TradeConfig
	Now          func() time.Time
	NewID        func() string
}

func (d *StrategyDeps) now() time.Time {
	if d != nil && d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *StrategyDeps) newID() string {
	if d != nil && d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}
