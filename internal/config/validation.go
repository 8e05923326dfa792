package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Trade.validate(); err != nil {
		return err
	}
	if err := c.Oracle.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TradeConfig) validate() error {
	if t.StopLossPct <= 0 || t.StopLossPct >= 100 {
		return fmt.Errorf("trade.stop_loss_pct must be in (0, 100)")
	}
	if t.TakeProfitPct <= 0 {
		return fmt.Errorf("trade.take_profit_pct must be > 0")
	}
	if t.OrderAmount <= 0 {
		return fmt.Errorf("trade.order_amount must be > 0")
	}
	if t.PriceChangeThreshold < 0 {
		return fmt.Errorf("trade.price_change_threshold must be >= 0")
	}
	return nil
}

func (o *OracleConfig) validate() error {
	if strings.TrimSpace(o.APIURL) == "" {
		return fmt.Errorf("oracle.api_url is required")
	}
	if strings.TrimSpace(o.Model) == "" {
		return fmt.Errorf("oracle.model is required")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(m.Provider)) {
	case "coingecko", "binance":
	default:
		return fmt.Errorf("market.provider must be coingecko or binance, got %q", m.Provider)
	}
	if strings.ToLower(strings.TrimSpace(m.Provider)) == "binance" && len(m.Symbols) == 0 {
		return fmt.Errorf("market.symbols is required when market.provider is binance")
	}
	return nil
}

func (s *StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "sqlite", "json":
	default:
		return fmt.Errorf("storage.provider must be sqlite or json, got %q", s.Provider)
	}
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	return nil
}
