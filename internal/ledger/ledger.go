package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sable/internal/types"
)

// 中文说明：
// 持仓账本：按 symbol 维护加权平均成本、数量与盈亏快照序列。纯簿记，无 I/O。
// 生产路径与影子路径各持有独立实例，影子侧通过 Clone 取得隔离副本。

var (
	// ErrInvalidQuantity 买入数量 <= 0，契约违例。
	ErrInvalidQuantity = errors.New("ledger: invalid quantity")
	// ErrNoOpenPosition 对不存在的持仓执行卖出，契约违例。
	ErrNoOpenPosition = errors.New("ledger: no open position")
)

type Ledger struct {
	mu        sync.Mutex
	positions map[string]*types.Position
}

func New() *Ledger {
	return &Ledger{positions: make(map[string]*types.Position)}
}

// Restore 用持久化状态重建账本（启动时调用一次）。
func Restore(positions []types.Position) *Ledger {
	l := New()
	for _, p := range positions {
		cp := p.Clone()
		l.positions[p.Symbol] = &cp
	}
	return l
}

// ApplyBuy 买入：首次建仓以成交价为成本；追加买入重算加权平均成本。
func (l *Ledger) ApplyBuy(symbol string, price, quantity float64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: buy %s qty=%v", ErrInvalidQuantity, symbol, quantity)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		l.positions[symbol] = &types.Position{
			Symbol:        symbol,
			CostBasis:     price,
			TotalQuantity: quantity,
		}
		return nil
	}
	newQty := pos.TotalQuantity + quantity
	pos.CostBasis = (pos.CostBasis*pos.TotalQuantity + price*quantity) / newQty
	pos.TotalQuantity = newQty
	return nil
}

// ApplySell 卖出：数量减至 0 则视为清仓并重置成本（无持仓时均价无意义）。
// 返回相对卖出前成本的已实现盈亏百分比。
func (l *Ledger) ApplySell(symbol string, price, quantity float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: sell %s", ErrNoOpenPosition, symbol)
	}
	costBefore := pos.CostBasis
	remaining := pos.TotalQuantity - quantity
	if remaining < 0 {
		remaining = 0
	}
	pos.TotalQuantity = remaining
	if remaining == 0 {
		pos.CostBasis = 0
	}
	if costBefore == 0 {
		return 0, nil
	}
	return (price - costBefore) / costBefore * 100, nil
}

// RecordPnLSnapshot 追加一条盈亏快照。重复调用会追加多条，幂等由调用方保证。
func (l *Ledger) RecordPnLSnapshot(symbol string, date time.Time, value float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return
	}
	pos.PnLEntries = append(pos.PnLEntries, types.PnLEntry{Date: date, Value: value})
}

// Get 返回当前持仓快照，不存在时 ok=false。无副作用。
func (l *Ledger) Get(symbol string) (types.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return types.Position{}, false
	}
	return pos.Clone(), true
}

// Positions 返回全部持仓的快照副本，供持久化与展示使用。
func (l *Ledger) Positions() []types.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos.Clone())
	}
	return out
}

// Clone 深拷贝整个账本，供影子路径在隔离状态上推演。
func (l *Ledger) Clone() *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := New()
	for sym, pos := range l.positions {
		cp := pos.Clone()
		out.positions[sym] = &cp
	}
	return out
}
