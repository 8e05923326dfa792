package journal

import (
	"errors"
	"fmt"
	"sync"

	"sable/internal/types"
)

// 中文说明：
// 订单账本：只追加的已执行模拟订单记录。没有更新/删除操作，
// 修正以新的补偿订单表达。SELL 订单通过 ClosesID 指向其平掉的 BUY，
// ListOpenBuys 据此过滤掉已平仓的 BUY，避免同一笔买单被重复触发离场。

// ErrInvalidOrder 数量 <= 0 或方向非法，契约违例。
var ErrInvalidOrder = errors.New("journal: invalid order")

type Journal struct {
	mu     sync.Mutex
	orders []types.Order
}

func New() *Journal {
	return &Journal{}
}

// Restore 用持久化状态重建订单账本。
func Restore(orders []types.Order) *Journal {
	j := New()
	j.orders = append(j.orders, orders...)
	return j
}

// Record 追加一笔订单。追加后不可变更。
func (j *Journal) Record(order types.Order) error {
	if order.Quantity <= 0 {
		return fmt.Errorf("%w: %s qty=%v", ErrInvalidOrder, order.Symbol, order.Quantity)
	}
	if !order.Direction.Valid() {
		return fmt.Errorf("%w: %s direction=%q", ErrInvalidOrder, order.Symbol, order.Direction)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.orders = append(j.orders, order)
	return nil
}

// ListOpenBuys 返回 symbol 下尚未被补偿 SELL 指向的 BUY 订单，按记录顺序。
func (j *Journal) ListOpenBuys(symbol string) []types.Order {
	j.mu.Lock()
	defer j.mu.Unlock()
	closed := make(map[string]struct{})
	for _, o := range j.orders {
		if o.Direction == types.DirectionSell && o.ClosesID != "" {
			closed[o.ClosesID] = struct{}{}
		}
	}
	var out []types.Order
	for _, o := range j.orders {
		if o.Direction != types.DirectionBuy || o.Symbol != symbol {
			continue
		}
		if _, ok := closed[o.ID]; ok {
			continue
		}
		out = append(out, o)
	}
	return out
}

// All 返回全部订单的副本，按记录顺序。
func (j *Journal) All() []types.Order {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]types.Order, len(j.orders))
	copy(out, j.orders)
	return out
}

// Len 当前订单条数。
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.orders)
}

// Clone 深拷贝，供影子路径使用。
func (j *Journal) Clone() *Journal {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := New()
	out.orders = make([]types.Order, len(j.orders))
	copy(out.orders, j.orders)
	return out
}
