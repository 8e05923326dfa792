package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func mustLoad(t *testing.T, path string) *Config {
	t.Helper()
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	return cfg
}

func TestLoadMinimalConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
oracle:
  api_key: "sk-test"
`)

	cfg := mustLoad(t, path)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9992", cfg.App.HTTPAddr)
	assert.Equal(t, 10.0, cfg.Trade.StopLossPct)
	assert.Equal(t, 20.0, cfg.Trade.TakeProfitPct)
	assert.Equal(t, 100.0, cfg.Trade.OrderAmount)
	assert.Equal(t, "1h", cfg.Trade.CycleInterval)
	assert.Equal(t, 100, cfg.Trade.HistoryLookback)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Oracle.APIURL)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.Equal(t, 60, cfg.Oracle.TimeoutSeconds)
	assert.Equal(t, "coingecko", cfg.Market.Provider)
	assert.Equal(t, 25, cfg.Market.CoinGecko.CoinsPerPage)
	assert.Equal(t, "sqlite", cfg.Storage.Provider)
	assert.Equal(t, "data/sable.db", cfg.Storage.Path)
	assert.Equal(t, "v1", cfg.Components.EvaluatorVersion)
	assert.Equal(t, "v1", cfg.Components.StrategyVersion)
	assert.False(t, cfg.Shadow.Enabled)
	assert.Equal(t, "data/shadow.db", cfg.Shadow.LogPath)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
  http_addr: ":8080"
trade:
  stop_loss_pct: 5
  take_profit_pct: 15
  order_amount: 250
  cycle_interval: "4h"
storage:
  provider: json
  path: data/books.json
components:
  strategy_version: v2
shadow:
  enabled: true
  strategy_version: v2
`)

	cfg := mustLoad(t, path)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, 5.0, cfg.Trade.StopLossPct)
	assert.Equal(t, 15.0, cfg.Trade.TakeProfitPct)
	assert.Equal(t, 250.0, cfg.Trade.OrderAmount)
	assert.Equal(t, "4h", cfg.Trade.CycleInterval)
	assert.Equal(t, "json", cfg.Storage.Provider)
	assert.Equal(t, "data/books.json", cfg.Storage.Path)
	assert.Equal(t, "v2", cfg.Components.StrategyVersion)
	assert.True(t, cfg.Shadow.Enabled)
	assert.Equal(t, "v2", cfg.Shadow.StrategyVersion)
	assert.Equal(t, "v1", cfg.Shadow.EvaluatorVersion)
}

func TestLoadExplicitZeroNotOverridden(t *testing.T) {
	// 显式写 0 的字段不应被默认值覆盖
	path := writeConfig(t, `
trade:
  price_change_threshold: 0
pool:
  min_buys_24h: 0
`)

	cfg := mustLoad(t, path)

	assert.Equal(t, 0.0, cfg.Trade.PriceChangeThreshold)
	assert.Equal(t, 0.0, cfg.Pool.MinBuys24h)
	assert.Equal(t, 50000.0, cfg.Pool.MinVolume24h, "未显式设置的字段仍取默认值")
}

func TestLoadRejectsInvalidStopLoss(t *testing.T) {
	path := writeConfig(t, `
trade:
  stop_loss_pct: 120
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stop_loss_pct")
}

func TestLoadRejectsUnknownStorageProvider(t *testing.T) {
	path := writeConfig(t, `
storage:
  provider: redis
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage.provider")
}

func TestLoadRejectsUnknownMarketProvider(t *testing.T) {
	path := writeConfig(t, `
market:
  provider: kraken
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "market.provider")
}

func TestLoadBinanceRequiresSymbols(t *testing.T) {
	path := writeConfig(t, `
market:
  provider: binance
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "market.symbols")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("  ")
	assert.Error(t, err)
}
