package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sable/internal/types"

	"github.com/adshao/go-binance/v2"
)

// BinanceSource 基于 go-binance SDK 实现 Source（现货）。
// Binance 没有"按市值发现标的"的概念，标的清单来自配置的 symbols。
type BinanceSource struct {
	client  *binance.Client
	symbols []string
}

type BinanceSourceConfig struct {
	RESTBaseURL string
	Symbols     []string
}

func NewBinance(cfg BinanceSourceConfig) *BinanceSource {
	client := binance.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return &BinanceSource{client: client, symbols: symbols}
}

// ListAssets 对 Binance 而言 coin_id 即交易对符号（如 BTCUSDT）。
func (s *BinanceSource) ListAssets(ctx context.Context) ([]types.Asset, error) {
	if len(s.symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols configured", ErrPriceUnavailable)
	}
	stats, err := s.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	changes := make(map[string]float64, len(stats))
	for _, st := range stats {
		if st == nil {
			continue
		}
		changes[st.Symbol] = parseFloat(st.PriceChangePercent)
	}
	out := make([]types.Asset, 0, len(s.symbols))
	for _, sym := range s.symbols {
		out = append(out, types.Asset{
			Symbol:      sym,
			CoinID:      sym,
			PriceChange: changes[sym],
		})
	}
	return out, nil
}

func (s *BinanceSource) CurrentPrice(ctx context.Context, coinID string) (float64, error) {
	prices, err := s.client.NewListPricesService().Symbol(coinID).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	if len(prices) == 0 || prices[0] == nil {
		return 0, fmt.Errorf("%w: no price for %s", ErrPriceUnavailable, coinID)
	}
	price := parseFloat(prices[0].Price)
	if price <= 0 {
		return 0, fmt.Errorf("%w: invalid price for %s", ErrPriceUnavailable, coinID)
	}
	return price, nil
}

func (s *BinanceSource) PriceHistory(ctx context.Context, coinID string, lookback int) ([]types.Candle, error) {
	if lookback <= 0 {
		lookback = 100
	}
	kls, err := s.client.NewKlinesService().Symbol(coinID).Interval("1h").Limit(lookback).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	out := make([]types.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, types.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

// SearchPools 中心化交易所没有链上池的概念，返回空集（过滤器据此放行或拦截由配置决定）。
func (s *BinanceSource) SearchPools(ctx context.Context, symbol string) ([]Pool, error) {
	return nil, nil
}

func parseFloat(raw string) float64 {
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return val
}
