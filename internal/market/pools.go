package market

import (
	"context"

	"sable/internal/config"
	"sable/internal/logger"
)

// PoolFilter 流动性池安全过滤器：按储备/成交量/买入次数阈值筛选。
// 未启用时恒通过。
type PoolFilter struct {
	source  Source
	cfg     config.PoolConfig
	enabled bool
}

func NewPoolFilter(source Source, cfg config.PoolConfig) *PoolFilter {
	return &PoolFilter{source: source, cfg: cfg, enabled: cfg.Enabled}
}

// SafePools 返回通过阈值的池子。检索失败按"无安全池"处理（软失败）。
func (f *PoolFilter) SafePools(ctx context.Context, symbol string) []Pool {
	if f == nil || !f.enabled || f.source == nil {
		return nil
	}
	pools, err := f.source.SearchPools(ctx, symbol)
	if err != nil {
		logger.Warnf("[market] symbol=%s 池检索失败: %v", symbol, err)
		return nil
	}
	var safe []Pool
	for _, p := range pools {
		if p.ReserveUSD >= f.cfg.MinReservesUSD &&
			p.VolumeUSD >= f.cfg.MinVolume24h &&
			p.Buys24h >= f.cfg.MinBuys24h {
			safe = append(safe, p)
		}
	}
	logger.Debugf("[market] symbol=%s 安全池 %d/%d", symbol, len(safe), len(pools))
	return safe
}

// IsSafe 是否存在至少一个安全池。过滤器未启用时恒为 true。
func (f *PoolFilter) IsSafe(ctx context.Context, symbol string) bool {
	if f == nil || !f.enabled {
		return true
	}
	return len(f.SafePools(ctx, symbol)) > 0
}
