package market

import (
	"fmt"
	"strings"
	"time"

	"sable/internal/config"
	"sable/internal/logger"
)

// NewSource 按配置选择行情源。
func NewSource(cfg config.MarketConfig) (Source, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "coingecko":
		logger.Infof("[market] 使用 CoinGecko 行情源 root=%s", cfg.CoinGecko.APIRoot)
		return NewCoinGecko(CoinGeckoConfig{
			APIRoot:      cfg.CoinGecko.APIRoot,
			APIKey:       cfg.CoinGecko.APIKey,
			CoinsPerPage: cfg.CoinGecko.CoinsPerPage,
			Timeout:      15 * time.Second,
		}), nil
	case "binance":
		logger.Infof("[market] 使用 Binance 行情源 base=%s symbols=%d", cfg.Binance.RESTBaseURL, len(cfg.Symbols))
		return NewBinance(BinanceSourceConfig{
			RESTBaseURL: cfg.Binance.RESTBaseURL,
			Symbols:     cfg.Symbols,
		}), nil
	default:
		return nil, fmt.Errorf("unknown market provider: %q", cfg.Provider)
	}
}
