package risk

// 中文说明：
// 纯函数风控规则：止损/止盈阈值与未实现盈亏。无状态，无 I/O。

// ExitSignal 离场判定结果。
type ExitSignal int

const (
	Hold ExitSignal = iota
	ExitStopLoss
	ExitTakeProfit
)

func (s ExitSignal) String() string {
	switch s {
	case ExitStopLoss:
		return "STOP_LOSS"
	case ExitTakeProfit:
		return "TAKE_PROFIT"
	default:
		return "HOLD"
	}
}

// StopLossPrice 入场价下方 stopLossPct% 的强平价。
func StopLossPrice(entryPrice, stopLossPct float64) float64 {
	return entryPrice * (1 - stopLossPct/100)
}

// TakeProfitPrice 入场价上方 takeProfitPct% 的止盈价。
func TakeProfitPrice(entryPrice, takeProfitPct float64) float64 {
	return entryPrice * (1 + takeProfitPct/100)
}

// UnrealizedPnLPct 以入场价为基准的未实现盈亏百分比。
func UnrealizedPnLPct(entryPrice, currentPrice float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	return (currentPrice - entryPrice) / entryPrice * 100
}

// ShouldExit 对当前价做三态离场判定。
// 止损先于止盈：两条线同时被击穿（退化区间）时以保本为先。
func ShouldExit(entryPrice, currentPrice, stopLossPct, takeProfitPct float64) ExitSignal {
	if decimalLTE(currentPrice, StopLossPrice(entryPrice, stopLossPct)) {
		return ExitStopLoss
	}
	if decimalGTE(currentPrice, TakeProfitPrice(entryPrice, takeProfitPct)) {
		return ExitTakeProfit
	}
	return Hold
}
