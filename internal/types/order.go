package types

import (
	"strings"
	"time"
)

// Direction 订单方向。
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Valid 仅接受 BUY/SELL。
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// ParseDirection 规范化方向字符串，未知输入返回 ("", false)。
func ParseDirection(raw string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY":
		return DirectionBuy, true
	case "SELL":
		return DirectionSell, true
	default:
		return "", false
	}
}

// Order 一笔已执行的模拟订单。写入账本后不可变更。
// SELL 订单通过 ClosesID 指向其平掉的 BUY 订单；BUY 订单该字段为空。
type Order struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	ClosesID  string    `json:"closes_id,omitempty"`
}
