package store

import (
	"context"
	"fmt"
	"strings"

	"sable/internal/config"
	"sable/internal/types"
)

// 中文说明：
// Store 是权威状态（资产 / 持仓 / 订单）的持久化接口。
// 写入都是全量替换式：内存账本是权威，存储只做周期落盘与启动恢复。
// 影子对照记录不走这个接口，见 shadowlog 包。

type Store interface {
	LoadAssets(ctx context.Context) ([]types.Asset, error)
	SaveAssets(ctx context.Context, assets []types.Asset) error

	LoadPositions(ctx context.Context) ([]types.Position, error)
	SavePositions(ctx context.Context, positions []types.Position) error

	LoadOrders(ctx context.Context) ([]types.Order, error)
	SaveOrders(ctx context.Context, orders []types.Order) error

	Close() error
}

// New 按配置构建存储实现。
func New(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "sqlite":
		return newGormStore(cfg.Path)
	case "json":
		return newJSONStore(cfg.Path)
	default:
		return nil, fmt.Errorf("store: 未知的存储后端 %q", cfg.Provider)
	}
}
