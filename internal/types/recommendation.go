package types

import "strings"

// 中文说明：
// Recommendation 是推荐 Oracle 的结构化输出。严格解析由 internal/oracle 负责，
// 解析失败时统一降级为 NEUTRAL（不动作）。

// Call 推荐动作。
type Call string

const (
	CallBuy     Call = "BUY"
	CallSell    Call = "SELL"
	CallNeutral Call = "NEUTRAL"
)

// Trend 市场方向判断。
type Trend string

const (
	TrendBullish  Trend = "Bullish"
	TrendBearish  Trend = "Bearish"
	TrendSideways Trend = "Sideways"
)

// Strength 信号强度。
type Strength string

const (
	StrengthLow    Strength = "Low"
	StrengthMedium Strength = "Medium"
	StrengthHigh   Strength = "High"
)

// Recommendation Oracle 的一次推荐。除日志外不作为一等实体持久化。
type Recommendation struct {
	Call      Call     `json:"call"`
	Direction Trend    `json:"direction"`
	Strength  Strength `json:"strength"`
	Summary   string   `json:"summary,omitempty"`
	Pools     []string `json:"pools,omitempty"`
}

// Neutral 返回安全的"不动作"推荐，作为各类失败的降级结果。
func Neutral(summary string) Recommendation {
	return Recommendation{
		Call:      CallNeutral,
		Direction: TrendSideways,
		Strength:  StrengthLow,
		Summary:   summary,
	}
}

// ParseCall 规范化 call 字段，未知输入返回 ("", false)。
func ParseCall(raw string) (Call, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY":
		return CallBuy, true
	case "SELL":
		return CallSell, true
	case "NEUTRAL", "HOLD":
		return CallNeutral, true
	default:
		return "", false
	}
}

// ParseTrend 规范化 direction 字段。
func ParseTrend(raw string) (Trend, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bullish":
		return TrendBullish, true
	case "bearish":
		return TrendBearish, true
	case "sideways", "neutral":
		return TrendSideways, true
	default:
		return "", false
	}
}

// ParseStrength 规范化 strength 字段。
func ParseStrength(raw string) (Strength, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return StrengthLow, true
	case "medium", "mid":
		return StrengthMedium, true
	case "high", "strong":
		return StrengthHigh, true
	default:
		return "", false
	}
}
