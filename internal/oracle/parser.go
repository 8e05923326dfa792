package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"sable/internal/logger"
	"sable/internal/pkg/jsonutil"
	"sable/internal/types"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// 中文说明：
// 严格解析 Oracle 输出：提取 JSON 块 → schema 校验 → 字段规范化。
// 任何缺失/歧义都降级为 NEUTRAL 并记录解析失败原因，不做子串嗅探。

const recommendationSchema = `{
  "type": "object",
  "required": ["call"],
  "properties": {
    "call": {"type": "string"},
    "direction": {"type": "string"},
    "strength": {"type": "string"},
    "summary": {"type": "string"},
    "pools": {"type": "array", "items": {"type": "string"}}
  }
}`

type Parser struct {
	schema *jsonschema.Schema
}

func NewParser() (*Parser, error) {
	schema, err := jsonschema.CompileString("recommendation.json", recommendationSchema)
	if err != nil {
		return nil, fmt.Errorf("compile recommendation schema failed: %w", err)
	}
	return &Parser{schema: schema}, nil
}

// Parse 将 Oracle 的自由文本输出映射为 Recommendation。
// 返回的 error 仅用于记录；调用方拿到的第一返回值始终可用（失败时为 NEUTRAL）。
func (p *Parser) Parse(symbol, raw string) (types.Recommendation, error) {
	block, ok := jsonutil.ExtractJSON(raw)
	if !ok {
		return neutralWithLog(symbol, "未找到 JSON 推荐块")
	}
	if !gjson.Valid(block) {
		return neutralWithLog(symbol, "JSON 格式无效")
	}
	var doc any
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		return neutralWithLog(symbol, fmt.Sprintf("JSON 解码失败: %v", err))
	}
	if err := p.schema.Validate(doc); err != nil {
		return neutralWithLog(symbol, fmt.Sprintf("schema 校验失败: %v", err))
	}

	parsed := gjson.Parse(block)
	call, ok := types.ParseCall(parsed.Get("call").String())
	if !ok {
		return neutralWithLog(symbol, fmt.Sprintf("call 字段无法识别: %q", parsed.Get("call").String()))
	}
	rec := types.Recommendation{
		Call:    call,
		Summary: strings.TrimSpace(parsed.Get("summary").String()),
	}
	if trend, ok := types.ParseTrend(parsed.Get("direction").String()); ok {
		rec.Direction = trend
	} else {
		rec.Direction = types.TrendSideways
	}
	if strength, ok := types.ParseStrength(parsed.Get("strength").String()); ok {
		rec.Strength = strength
	} else {
		rec.Strength = types.StrengthLow
	}
	parsed.Get("pools").ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			rec.Pools = append(rec.Pools, s)
		}
		return true
	})
	return rec, nil
}

func neutralWithLog(symbol, reason string) (types.Recommendation, error) {
	logger.Warnf("[oracle] symbol=%s 推荐解析失败，按 NEUTRAL 处理: %s", symbol, reason)
	return types.Neutral("parse failure: " + reason), fmt.Errorf("oracle parse: %s", reason)
}
