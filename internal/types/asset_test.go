package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func candle(openTime int64, close float64) Candle {
	return Candle{
		OpenTime:  openTime,
		CloseTime: openTime + 3600_000,
		Open:      close - 1,
		High:      close + 1,
		Low:       close - 2,
		Close:     close,
	}
}

func TestAppendCandlesKeepsOrder(t *testing.T) {
	a := &Asset{Symbol: "BTC"}
	a.AppendCandles([]Candle{candle(1000, 10), candle(2000, 11)})
	a.AppendCandles([]Candle{candle(3000, 12)})

	assert.Len(t, a.PriceHistory, 3)
	assert.Equal(t, int64(1000), a.PriceHistory[0].OpenTime)
	assert.Equal(t, int64(3000), a.PriceHistory[2].OpenTime)
}

func TestAppendCandlesDropsStaleSamples(t *testing.T) {
	a := &Asset{Symbol: "BTC"}
	a.AppendCandles([]Candle{candle(2000, 11)})
	// 早于末尾时间戳的样本被丢弃
	a.AppendCandles([]Candle{candle(1000, 10), candle(3000, 12)})

	assert.Len(t, a.PriceHistory, 2)
	assert.Equal(t, int64(2000), a.PriceHistory[0].OpenTime)
	assert.Equal(t, int64(3000), a.PriceHistory[1].OpenTime)
}

func TestAppendCandlesReplacesSameBar(t *testing.T) {
	a := &Asset{Symbol: "BTC"}
	a.AppendCandles([]Candle{candle(1000, 10)})
	a.AppendCandles([]Candle{candle(1000, 10.5)})

	assert.Len(t, a.PriceHistory, 1)
	assert.Equal(t, 10.5, a.PriceHistory[0].Close)
}

func TestLastClose(t *testing.T) {
	a := &Asset{Symbol: "BTC"}
	_, ok := a.LastClose()
	assert.False(t, ok)

	a.AppendCandles([]Candle{candle(1000, 10), candle(2000, 11)})
	close, ok := a.LastClose()
	assert.True(t, ok)
	assert.Equal(t, 11.0, close)
}

func TestRecentHistory(t *testing.T) {
	a := &Asset{Symbol: "BTC"}
	a.AppendCandles([]Candle{candle(1000, 10), candle(2000, 11), candle(3000, 12)})

	recent := a.RecentHistory(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, int64(2000), recent[0].OpenTime)

	assert.Len(t, a.RecentHistory(10), 3)
	assert.Nil(t, a.RecentHistory(0))

	// 返回的是副本，修改不影响原序列
	recent[0].Close = 999
	assert.Equal(t, 11.0, a.PriceHistory[1].Close)
}

func TestPositionClone(t *testing.T) {
	p := Position{
		Symbol:        "BTC",
		CostBasis:     100,
		TotalQuantity: 2,
		PnLEntries:    []PnLEntry{{Date: time.Unix(1700000000, 0), Value: 5}},
	}
	c := p.Clone()
	c.PnLEntries[0].Value = -5

	assert.Equal(t, 5.0, p.PnLEntries[0].Value)
}
