package config

import "strings"

// 默认值常量
const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":9992"
	defaultTradeStopLoss    = 10
	defaultTradeTakeProfit  = 20
	defaultTradeOrderAmount = 100
	defaultTradeInterval    = "1h"
	defaultTradeLookback    = 100
	defaultPoolVolume       = 50000
	defaultPoolReserves     = 100000
	defaultPoolBuys         = 50
	defaultOracleAPIURL     = "https://api.openai.com/v1"
	defaultOracleModel      = "gpt-4o-mini"
	defaultOracleTimeout    = 60
	defaultOracleRetries    = 2
	defaultMarketProvider   = "coingecko"
	defaultCGAPIRoot        = "https://api.coingecko.com/api/v3"
	defaultCGPerPage        = 25
	defaultBinanceREST      = "https://api.binance.com"
	defaultStorageProvider  = "sqlite"
	defaultStoragePath      = "data/sable.db"
	defaultShadowLogPath    = "data/shadow.db"
	defaultComponentVersion = "v1"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Trade.applyDefaults(keys)
	c.Pool.applyDefaults(keys)
	c.Oracle.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Storage.applyDefaults(keys)
	c.Components.applyDefaults(keys)
	c.Shadow.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (t *TradeConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("trade.stop_loss_pct", &t.StopLossPct, defaultTradeStopLoss),
		floatFieldDefault("trade.take_profit_pct", &t.TakeProfitPct, defaultTradeTakeProfit),
		floatFieldDefault("trade.order_amount", &t.OrderAmount, defaultTradeOrderAmount),
		stringFieldDefault("trade.cycle_interval", &t.CycleInterval, defaultTradeInterval),
		fieldDefault{
			key:   "trade.history_lookback",
			need:  func() bool { return t.HistoryLookback <= 0 },
			apply: func() { t.HistoryLookback = defaultTradeLookback },
		},
	)
}

func (p *PoolConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("pool.min_volume_24h", &p.MinVolume24h, defaultPoolVolume),
		floatFieldDefault("pool.min_reserves_usd", &p.MinReservesUSD, defaultPoolReserves),
		floatFieldDefault("pool.min_buys_24h", &p.MinBuys24h, defaultPoolBuys),
	)
}

func (o *OracleConfig) applyDefaults(keys keySet) {
	if o == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("oracle.api_url", &o.APIURL, defaultOracleAPIURL),
		stringFieldDefault("oracle.model", &o.Model, defaultOracleModel),
		fieldDefault{
			key:   "oracle.timeout_seconds",
			need:  func() bool { return o.TimeoutSeconds <= 0 },
			apply: func() { o.TimeoutSeconds = defaultOracleTimeout },
		},
		fieldDefault{
			key:   "oracle.max_retries",
			need:  func() bool { return o.MaxRetries <= 0 },
			apply: func() { o.MaxRetries = defaultOracleRetries },
		},
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.provider", &m.Provider, defaultMarketProvider),
		stringFieldDefault("market.coingecko.api_root", &m.CoinGecko.APIRoot, defaultCGAPIRoot),
		stringFieldDefault("market.binance.rest_base_url", &m.Binance.RESTBaseURL, defaultBinanceREST),
		fieldDefault{
			key:   "market.coingecko.coins_per_page",
			need:  func() bool { return m.CoinGecko.CoinsPerPage <= 0 },
			apply: func() { m.CoinGecko.CoinsPerPage = defaultCGPerPage },
		},
	)
}

func (s *StorageConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("storage.provider", &s.Provider, defaultStorageProvider),
		stringFieldDefault("storage.path", &s.Path, defaultStoragePath),
	)
}

func (c *ComponentsConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("components.evaluator_version", &c.EvaluatorVersion, defaultComponentVersion),
		stringFieldDefault("components.strategy_version", &c.StrategyVersion, defaultComponentVersion),
	)
}

func (s *ShadowConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("shadow.evaluator_version", &s.EvaluatorVersion, defaultComponentVersion),
		stringFieldDefault("shadow.strategy_version", &s.StrategyVersion, defaultComponentVersion),
		stringFieldDefault("shadow.log_path", &s.LogPath, defaultShadowLogPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target == 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
