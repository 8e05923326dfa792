package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sable/internal/config"
	"sable/internal/types"
)

func sampleBooks() ([]types.Asset, []types.Position, []types.Order) {
	assets := []types.Asset{
		{
			Symbol:      "BTC",
			CoinID:      "bitcoin",
			RealizedPnL: 12.5,
			PriceChange: 3.2,
			PriceHistory: []types.Candle{
				{OpenTime: 1000, CloseTime: 2000, Open: 9, High: 11, Low: 8, Close: 10},
				{OpenTime: 2000, CloseTime: 3000, Open: 10, High: 12, Low: 9, Close: 11},
			},
		},
		{Symbol: "ETH", CoinID: "ethereum"},
	}
	positions := []types.Position{
		{
			Symbol:        "BTC",
			CostBasis:     100,
			TotalQuantity: 2,
			PnLEntries:    []types.PnLEntry{{Date: time.UnixMilli(1700000000000).UTC(), Value: 10}},
		},
	}
	orders := []types.Order{
		{
			ID:        "o-1",
			Timestamp: time.UnixMilli(1700000000000).UTC(),
			Price:     50,
			Quantity:  2,
			Symbol:    "BTC",
			Direction: types.DirectionBuy,
		},
		{
			ID:        "o-2",
			Timestamp: time.UnixMilli(1700003600000).UTC(),
			Price:     60,
			Quantity:  2,
			Symbol:    "BTC",
			Direction: types.DirectionSell,
			ClosesID:  "o-1",
		},
	}
	return assets, positions, orders
}

func roundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	assets, positions, orders := sampleBooks()

	assert.NoError(t, st.SaveAssets(ctx, assets))
	assert.NoError(t, st.SavePositions(ctx, positions))
	assert.NoError(t, st.SaveOrders(ctx, orders))

	gotAssets, err := st.LoadAssets(ctx)
	assert.NoError(t, err)
	assert.Equal(t, assets, gotAssets)

	gotPositions, err := st.LoadPositions(ctx)
	assert.NoError(t, err)
	assert.Equal(t, positions, gotPositions)

	gotOrders, err := st.LoadOrders(ctx)
	assert.NoError(t, err)
	assert.Equal(t, orders, gotOrders)

	// 全量替换语义：保存空集后旧数据不残留
	assert.NoError(t, st.SaveOrders(ctx, nil))
	gotOrders, err = st.LoadOrders(ctx)
	assert.NoError(t, err)
	assert.Empty(t, gotOrders)
}

func TestJSONStoreRoundTrip(t *testing.T) {
	st, err := New(config.StorageConfig{
		Provider: "json",
		Path:     filepath.Join(t.TempDir(), "books"),
	})
	assert.NoError(t, err)
	defer st.Close()

	roundTrip(t, st)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	st, err := New(config.StorageConfig{
		Provider: "sqlite",
		Path:     filepath.Join(t.TempDir(), "books.db"),
	})
	assert.NoError(t, err)
	defer st.Close()

	roundTrip(t, st)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(config.StorageConfig{Provider: "redis", Path: "x"})
	assert.Error(t, err)
}

func TestJSONStoreLoadEmptyDir(t *testing.T) {
	st, err := New(config.StorageConfig{
		Provider: "json",
		Path:     filepath.Join(t.TempDir(), "books"),
	})
	assert.NoError(t, err)
	defer st.Close()

	assets, err := st.LoadAssets(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, assets)
}
