package market

import (
	"context"
	"errors"

	"sable/internal/types"
)

// 中文说明：
// 行情源抽象：当前价、历史 OHLC、标的清单与流动性池检索。
// 所有错误均视为瞬态，调用方按软失败处理（跳过当前标的，周期继续）。

// ErrPriceUnavailable 瞬态行情失败。
var ErrPriceUnavailable = errors.New("market: price unavailable")

// Pool 单个流动性池的安全评估维度。
type Pool struct {
	Name       string  `json:"name"`
	ReserveUSD float64 `json:"reserve_in_usd"`
	VolumeUSD  float64 `json:"volume_in_usd"`
	Buys24h    float64 `json:"buys_24h"`
}

// Source 行情数据源。
type Source interface {
	// ListAssets 返回可跟踪标的清单（用于首次引导与周期刷新）。
	ListAssets(ctx context.Context) ([]types.Asset, error)
	// CurrentPrice 返回标的当前价。
	CurrentPrice(ctx context.Context, coinID string) (float64, error)
	// PriceHistory 返回最近 lookback 根 OHLC。
	PriceHistory(ctx context.Context, coinID string, lookback int) ([]types.Candle, error)
	// SearchPools 检索 symbol 相关的流动性池。
	SearchPools(ctx context.Context, symbol string) ([]Pool, error)
}
