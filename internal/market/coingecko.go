package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sable/internal/logger"
	"sable/internal/types"

	"github.com/tidwall/gjson"
)

// CoinGeckoSource 基于 CoinGecko REST API 实现 Source。
// 字段提取走 gjson：/onchain 返回的嵌套结构在免费/付费档位间并不稳定。
type CoinGeckoSource struct {
	root    string
	apiKey  string
	perPage int
	httpc   *http.Client
}

type CoinGeckoConfig struct {
	APIRoot      string
	APIKey       string
	CoinsPerPage int
	Timeout      time.Duration
}

func NewCoinGecko(cfg CoinGeckoConfig) *CoinGeckoSource {
	root := strings.TrimRight(strings.TrimSpace(cfg.APIRoot), "/")
	if root == "" {
		root = "https://api.coingecko.com/api/v3"
	}
	perPage := cfg.CoinsPerPage
	if perPage <= 0 {
		perPage = 25
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CoinGeckoSource{
		root:    root,
		apiKey:  cfg.APIKey,
		perPage: perPage,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (s *CoinGeckoSource) get(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.root+path, nil)
	if err != nil {
		return "", err
	}
	if s.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.apiKey)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: http %d: %s", ErrPriceUnavailable, resp.StatusCode, truncate(string(body), 200))
	}
	return string(body), nil
}

// ListAssets 按市值取前 N 个标的，附带 24h 涨跌幅。
func (s *CoinGeckoSource) ListAssets(ctx context.Context) ([]types.Asset, error) {
	path := fmt.Sprintf("/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1", s.perPage)
	body, err := s.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var out []types.Asset
	gjson.Parse(body).ForEach(func(_, v gjson.Result) bool {
		id := strings.TrimSpace(v.Get("id").String())
		sym := strings.ToUpper(strings.TrimSpace(v.Get("symbol").String()))
		if id == "" || sym == "" {
			return true
		}
		out = append(out, types.Asset{
			Symbol:      sym,
			CoinID:      id,
			PriceChange: v.Get("price_change_percentage_24h").Float(),
		})
		return true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty markets response", ErrPriceUnavailable)
	}
	return out, nil
}

func (s *CoinGeckoSource) CurrentPrice(ctx context.Context, coinID string) (float64, error) {
	body, err := s.get(ctx, "/simple/price?ids="+url.QueryEscape(coinID)+"&vs_currencies=usd")
	if err != nil {
		return 0, err
	}
	price := gjson.Get(body, coinID+".usd")
	if !price.Exists() || price.Float() <= 0 {
		return 0, fmt.Errorf("%w: no usd price for %s", ErrPriceUnavailable, coinID)
	}
	return price.Float(), nil
}

// PriceHistory 取最近一天的 OHLC。CoinGecko /ohlc 端点不支持 interval 参数，
// 粒度由 days 决定，lookback 仅用于截断。
func (s *CoinGeckoSource) PriceHistory(ctx context.Context, coinID string, lookback int) ([]types.Candle, error) {
	body, err := s.get(ctx, "/coins/"+url.PathEscape(coinID)+"/ohlc?vs_currency=usd&days=1")
	if err != nil {
		return nil, err
	}
	var out []types.Candle
	gjson.Parse(body).ForEach(func(_, row gjson.Result) bool {
		arr := row.Array()
		if len(arr) < 5 {
			return true
		}
		out = append(out, types.Candle{
			OpenTime:  arr[0].Int(),
			CloseTime: arr[0].Int(),
			Open:      arr[1].Float(),
			High:      arr[2].Float(),
			Low:       arr[3].Float(),
			Close:     arr[4].Float(),
		})
		return true
	})
	if lookback > 0 && len(out) > lookback {
		out = out[len(out)-lookback:]
	}
	return out, nil
}

// SearchPools 检索链上流动性池并抽取安全评估维度。
func (s *CoinGeckoSource) SearchPools(ctx context.Context, symbol string) ([]Pool, error) {
	body, err := s.get(ctx, "/onchain/search/pools?query="+url.QueryEscape(symbol))
	if err != nil {
		return nil, err
	}
	var out []Pool
	gjson.Get(body, "data").ForEach(func(_, v gjson.Result) bool {
		attrs := v.Get("attributes")
		out = append(out, Pool{
			Name:       attrs.Get("name").String(),
			ReserveUSD: attrs.Get("reserve_in_usd").Float(),
			VolumeUSD:  attrs.Get("volume_usd.h24").Float(),
			Buys24h:    attrs.Get("transactions.h24.buys").Float(),
		})
		return true
	})
	logger.Debugf("[market] coingecko pools symbol=%s found=%d", symbol, len(out))
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
