package types

import "time"

// 中文说明：
// 本文件定义资产与行情相关的通用数据结构，供引擎、行情源与存储层使用。

// Candle 单根 OHLC K 线。时间戳毫秒，按 OpenTime 非递减排序。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume,omitempty"`
}

// Asset 一个被跟踪的交易标的。
// PriceHistory 只追加，由行情刷新写入；RealizedPnL 由决策引擎在卖出后累加。
type Asset struct {
	Symbol       string   `json:"symbol"`
	CoinID       string   `json:"coin_id"`
	RealizedPnL  float64  `json:"realized_pnl"`
	PriceChange  float64  `json:"price_change"`
	PriceHistory []Candle `json:"price_history,omitempty"`
}

// AppendCandles 将新样本追加到历史序列，丢弃时间戳早于末尾的样本以保持有序。
func (a *Asset) AppendCandles(candles []Candle) {
	if a == nil || len(candles) == 0 {
		return
	}
	last := int64(-1)
	if n := len(a.PriceHistory); n > 0 {
		last = a.PriceHistory[n-1].OpenTime
	}
	for _, c := range candles {
		if c.OpenTime < last {
			continue
		}
		if c.OpenTime == last && len(a.PriceHistory) > 0 {
			// 同一根 K 线的更新：替换末尾样本
			a.PriceHistory[len(a.PriceHistory)-1] = c
			continue
		}
		a.PriceHistory = append(a.PriceHistory, c)
		last = c.OpenTime
	}
}

// LastClose 返回最近一根 K 线的收盘价，历史为空时返回 (0, false)。
func (a *Asset) LastClose() (float64, bool) {
	if a == nil || len(a.PriceHistory) == 0 {
		return 0, false
	}
	return a.PriceHistory[len(a.PriceHistory)-1].Close, true
}

// RecentHistory 返回最近 n 根 K 线（不复制底层数组之外的数据）。
func (a *Asset) RecentHistory(n int) []Candle {
	if a == nil || n <= 0 || len(a.PriceHistory) == 0 {
		return nil
	}
	if n >= len(a.PriceHistory) {
		n = len(a.PriceHistory)
	}
	out := make([]Candle, n)
	copy(out, a.PriceHistory[len(a.PriceHistory)-n:])
	return out
}

// PnLEntry 持仓盈亏快照，按写入顺序追加。
type PnLEntry struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Position 某一标的的聚合持仓。
// 不变量：TotalQuantity == 0 时 CostBasis == 0。清仓后记录保留为历史，不删除。
type Position struct {
	Symbol        string     `json:"symbol"`
	CostBasis     float64    `json:"cost_basis"`
	TotalQuantity float64    `json:"total_quantity"`
	PnLEntries    []PnLEntry `json:"pnl_entries,omitempty"`
}

// Clone 深拷贝，供影子路径使用。
func (p Position) Clone() Position {
	out := p
	if len(p.PnLEntries) > 0 {
		out.PnLEntries = make([]PnLEntry, len(p.PnLEntries))
		copy(out.PnLEntries, p.PnLEntries)
	}
	return out
}
