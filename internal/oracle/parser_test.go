package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sable/internal/types"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser()
	assert.NoError(t, err)
	return p
}

func TestParseWellFormed(t *testing.T) {
	p := newTestParser(t)
	raw := `{"call": "BUY", "direction": "Bullish", "strength": "High", "summary": "breakout", "pools": ["BTC/USDT"]}`

	rec, err := p.Parse("BTC", raw)
	assert.NoError(t, err)
	assert.Equal(t, types.CallBuy, rec.Call)
	assert.Equal(t, types.TrendBullish, rec.Direction)
	assert.Equal(t, types.StrengthHigh, rec.Strength)
	assert.Equal(t, "breakout", rec.Summary)
	assert.Equal(t, []string{"BTC/USDT"}, rec.Pools)
}

func TestParseFencedJSON(t *testing.T) {
	p := newTestParser(t)
	raw := "Here is my recommendation:\n```json\n{\"call\": \"sell\", \"direction\": \"bearish\"}\n```\nGood luck."

	rec, err := p.Parse("ETH", raw)
	assert.NoError(t, err)
	assert.Equal(t, types.CallSell, rec.Call)
	assert.Equal(t, types.TrendBearish, rec.Direction)
	assert.Equal(t, types.StrengthLow, rec.Strength, "缺失 strength 归一化为 Low")
}

func TestParseEmbeddedObject(t *testing.T) {
	p := newTestParser(t)
	raw := `Based on the data, {"call": "HOLD", "summary": "wait"} is my view.`

	rec, err := p.Parse("BTC", raw)
	assert.NoError(t, err)
	assert.Equal(t, types.CallNeutral, rec.Call, "HOLD 归一化为 NEUTRAL")
}

func TestParseNoJSONFallsBackToNeutral(t *testing.T) {
	p := newTestParser(t)

	rec, err := p.Parse("BTC", "I think you should definitely BUY this coin!")
	assert.Error(t, err, "纯文本不做子串嗅探")
	assert.Equal(t, types.CallNeutral, rec.Call)
}

func TestParseMissingCallFallsBackToNeutral(t *testing.T) {
	p := newTestParser(t)

	rec, err := p.Parse("BTC", `{"direction": "Bullish", "strength": "High"}`)
	assert.Error(t, err, "schema 要求 call 字段")
	assert.Equal(t, types.CallNeutral, rec.Call)
}

func TestParseUnknownCallFallsBackToNeutral(t *testing.T) {
	p := newTestParser(t)

	rec, err := p.Parse("BTC", `{"call": "MOON"}`)
	assert.Error(t, err)
	assert.Equal(t, types.CallNeutral, rec.Call)
}

func TestParseInvalidJSONFallsBackToNeutral(t *testing.T) {
	p := newTestParser(t)

	rec, err := p.Parse("BTC", `{"call": "BUY"`)
	assert.Error(t, err)
	assert.Equal(t, types.CallNeutral, rec.Call)
}
