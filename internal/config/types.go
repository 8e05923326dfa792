package config

import "strings"

// Config 是 sable 的主配置载体。启动时构建一次，之后只读。
// Path 记录加载来源，供组件热更新 watch 使用。
type Config struct {
	Path string `toml:"-"`

	App        AppConfig        `toml:"app"`
	Trade      TradeConfig      `toml:"trade"`
	Pool       PoolConfig       `toml:"pool"`
	Oracle     OracleConfig     `toml:"oracle"`
	Market     MarketConfig     `toml:"market"`
	Storage    StorageConfig    `toml:"storage"`
	Components ComponentsConfig `toml:"components"`
	Shadow     ShadowConfig     `toml:"shadow"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
	RunOnce  bool   `toml:"run_once"`
}

// TradeConfig 控制风控阈值与下单额度。百分比字段以百分数表示（10 = 10%）。
type TradeConfig struct {
	StopLossPct          float64 `toml:"stop_loss_pct"`
	TakeProfitPct        float64 `toml:"take_profit_pct"`
	OrderAmount          float64 `toml:"order_amount"`
	PriceChangeThreshold float64 `toml:"price_change_threshold"`
	CycleInterval        string  `toml:"cycle_interval"` // "30m" / "1h" / "4h"
	HistoryLookback      int     `toml:"history_lookback"`
}

// PoolConfig 流动性池安全阈值。Enabled=false 时过滤器恒通过。
type PoolConfig struct {
	Enabled        bool    `toml:"enabled"`
	MinVolume24h   float64 `toml:"min_volume_24h"`
	MinReservesUSD float64 `toml:"min_reserves_usd"`
	MinBuys24h     float64 `toml:"min_buys_24h"`
}

// OracleConfig 推荐 Oracle（OpenAI 兼容接口）的访问方式。
type OracleConfig struct {
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
	PromptPath     string `toml:"prompt_path"`
	DumpPayload    bool   `toml:"dump_payload"`
	PayloadLogPath string `toml:"payload_log_path"`
}

type MarketConfig struct {
	Provider  string          `toml:"provider"` // "coingecko" | "binance"
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
	Binance   BinanceConfig   `toml:"binance"`
	Symbols   []string        `toml:"symbols"`
}

type CoinGeckoConfig struct {
	APIRoot      string `toml:"api_root"`
	APIKey       string `toml:"api_key"`
	CoinsPerPage int    `toml:"coins_per_page"`
}

type BinanceConfig struct {
	RESTBaseURL string `toml:"rest_base_url"`
}

type StorageConfig struct {
	Provider string `toml:"provider"` // "sqlite" | "json"
	Path     string `toml:"path"`
}

// ComponentsConfig 逻辑角色到实现版本的绑定。
type ComponentsConfig struct {
	EvaluatorVersion string `toml:"evaluator_version"`
	StrategyVersion  string `toml:"strategy_version"`
	Watch            bool   `toml:"watch"`
}

// ShadowConfig 影子执行配置。影子路径只读生产状态，绝不写入。
// 对照记录单独落在 LogPath 指向的 SQLite 文件里，与权威存储分开。
type ShadowConfig struct {
	Enabled          bool   `toml:"enabled"`
	EvaluatorVersion string `toml:"evaluator_version"`
	StrategyVersion  string `toml:"strategy_version"`
	LogPath          string `toml:"log_path"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
