package types

import "time"

// ShadowRecord 单个 (cycle, symbol) 的双路执行对照记录。
// 只写不读回：用于离线比较，绝不反馈到生产状态。
type ShadowRecord struct {
	TraceID      string         `json:"trace_id"`
	Symbol       string         `json:"symbol"`
	Timestamp    time.Time      `json:"timestamp"`
	Price        float64        `json:"price"`
	ProdCall     Call           `json:"prod_call"`
	ProdAction   string         `json:"prod_action"`
	ShadowCall   Call           `json:"shadow_call"`
	ShadowAction string         `json:"shadow_action"`
	ShadowPnL    float64        `json:"shadow_pnl"`
	Diverged     bool           `json:"diverged"`
	ShadowError  string         `json:"shadow_error,omitempty"`
	EvaluatorTag string         `json:"evaluator_tag,omitempty"`
	StrategyTag  string         `json:"strategy_tag,omitempty"`
	ProdRec      Recommendation `json:"prod_rec"`
	ShadowRec    Recommendation `json:"shadow_rec"`
}
