package oracle

import (
	"os"
	"strings"

	"sable/internal/logger"
)

// DefaultInstructions 固定指令模板：要求 Oracle 输出可严格解析的 JSON 推荐。
const DefaultInstructions = `You are a crypto trading analyst. Given the market context JSON,
reply with a single JSON object and nothing else:

{
  "call": "BUY" | "SELL" | "NEUTRAL",
  "direction": "Bullish" | "Bearish" | "Sideways",
  "strength": "Low" | "Medium" | "High",
  "summary": "<one-sentence justification>",
  "pools": ["<notable liquidity pools, optional>"]
}

Be conservative: when uncertain, answer NEUTRAL.`

// LoadInstructions 从文件加载指令模板；路径为空或读取失败时回退到内置模板。
func LoadInstructions(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultInstructions
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("[oracle] 读取指令模板失败（%s），使用内置模板: %v", path, err)
		return DefaultInstructions
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return DefaultInstructions
	}
	return text
}
