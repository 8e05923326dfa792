package engine

import (
	"encoding/json"

	"sable/internal/market"
	"sable/internal/types"
)

// AssetContext 送入 Oracle 的市场上下文。纯数据组装，无副作用。
type AssetContext struct {
	Symbol       string         `json:"symbol"`
	CoinID       string         `json:"coin_id"`
	CurrentPrice float64        `json:"current_price"`
	PriceChange  float64        `json:"price_change"`
	RealizedPnL  float64        `json:"realized_pnl"`
	History      []types.Candle `json:"price_history,omitempty"`
	Pools        []market.Pool  `json:"pools,omitempty"`
}

// BuildContext 组装上下文并序列化为 JSON 文本。
func BuildContext(asset types.Asset, price float64, historyLimit int, pools []market.Pool) string {
	ctx := AssetContext{
		Symbol:       asset.Symbol,
		CoinID:       asset.CoinID,
		CurrentPrice: price,
		PriceChange:  asset.PriceChange,
		RealizedPnL:  asset.RealizedPnL,
		History:      asset.RecentHistory(historyLimit),
		Pools:        pools,
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		return "{}"
	}
	return string(data)
}
