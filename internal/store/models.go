package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"sable/internal/types"
)

// gorm 模型。时间统一存毫秒时间戳，嵌套序列（K 线、盈亏快照）存 JSON 列。

type assetModel struct {
	ID           int64          `gorm:"column:id;primaryKey"`
	Symbol       string         `gorm:"column:symbol;uniqueIndex"`
	CoinID       string         `gorm:"column:coin_id"`
	RealizedPnL  float64        `gorm:"column:realized_pnl"`
	PriceChange  float64        `gorm:"column:price_change"`
	PriceHistory datatypes.JSON `gorm:"column:price_history"`
	UpdatedAt    int64          `gorm:"column:updated_at"`
}

func (assetModel) TableName() string { return "assets" }

type positionModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Symbol        string         `gorm:"column:symbol;uniqueIndex"`
	CostBasis     float64        `gorm:"column:cost_basis"`
	TotalQuantity float64        `gorm:"column:total_quantity"`
	PnLEntries    datatypes.JSON `gorm:"column:pnl_entries"`
	UpdatedAt     int64          `gorm:"column:updated_at"`
}

func (positionModel) TableName() string { return "positions" }

type orderModel struct {
	ID        int64   `gorm:"column:id;primaryKey"`
	OrderUUID string  `gorm:"column:order_uuid;uniqueIndex"`
	Timestamp int64   `gorm:"column:ts;index"`
	Price     float64 `gorm:"column:price"`
	Quantity  float64 `gorm:"column:quantity"`
	Symbol    string  `gorm:"column:symbol;index"`
	Direction string  `gorm:"column:direction"`
	ClosesID  string  `gorm:"column:closes_id"`
}

func (orderModel) TableName() string { return "orders" }

func newAssetModel(a types.Asset, now time.Time) assetModel {
	history, _ := json.Marshal(a.PriceHistory)
	return assetModel{
		Symbol:       a.Symbol,
		CoinID:       a.CoinID,
		RealizedPnL:  a.RealizedPnL,
		PriceChange:  a.PriceChange,
		PriceHistory: datatypes.JSON(history),
		UpdatedAt:    now.UnixMilli(),
	}
}

func assetModelToType(m assetModel) types.Asset {
	a := types.Asset{
		Symbol:      m.Symbol,
		CoinID:      m.CoinID,
		RealizedPnL: m.RealizedPnL,
		PriceChange: m.PriceChange,
	}
	if len(m.PriceHistory) > 0 {
		_ = json.Unmarshal(m.PriceHistory, &a.PriceHistory)
	}
	return a
}

func newPositionModel(p types.Position, now time.Time) positionModel {
	entries, _ := json.Marshal(p.PnLEntries)
	return positionModel{
		Symbol:        p.Symbol,
		CostBasis:     p.CostBasis,
		TotalQuantity: p.TotalQuantity,
		PnLEntries:    datatypes.JSON(entries),
		UpdatedAt:     now.UnixMilli(),
	}
}

func positionModelToType(m positionModel) types.Position {
	p := types.Position{
		Symbol:        m.Symbol,
		CostBasis:     m.CostBasis,
		TotalQuantity: m.TotalQuantity,
	}
	if len(m.PnLEntries) > 0 {
		_ = json.Unmarshal(m.PnLEntries, &p.PnLEntries)
	}
	return p
}

func newOrderModel(o types.Order) orderModel {
	return orderModel{
		OrderUUID: o.ID,
		Timestamp: o.Timestamp.UnixMilli(),
		Price:     o.Price,
		Quantity:  o.Quantity,
		Symbol:    o.Symbol,
		Direction: string(o.Direction),
		ClosesID:  o.ClosesID,
	}
}

func orderModelToType(m orderModel) types.Order {
	return types.Order{
		ID:        m.OrderUUID,
		Timestamp: time.UnixMilli(m.Timestamp).UTC(),
		Price:     m.Price,
		Quantity:  m.Quantity,
		Symbol:    m.Symbol,
		Direction: types.Direction(m.Direction),
		ClosesID:  m.ClosesID,
	}
}
