package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sable/internal/types"
)

// gormStore 用 Gorm + SQLite 落盘权威状态。
type gormStore struct {
	db *gorm.DB
}

func newGormStore(path string) (*gormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: sqlite 路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&assetModel{}, &positionModel{}, &orderModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：给 HTTP 只读查询留一点并行度，同时压低锁竞争。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &gormStore{db: db}, nil
}

func (s *gormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *gormStore) LoadAssets(ctx context.Context) ([]types.Asset, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	var models []assetModel
	if err := s.db.WithContext(ctx).Order("symbol ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Asset, 0, len(models))
	for _, m := range models {
		out = append(out, assetModelToType(m))
	}
	return out, nil
}

func (s *gormStore) SaveAssets(ctx context.Context, assets []types.Asset) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store 未初始化")
	}
	now := time.Now()
	models := make([]assetModel, 0, len(assets))
	for _, a := range assets {
		models = append(models, newAssetModel(a, now))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&assetModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.Create(&models).Error
	})
}

func (s *gormStore) LoadPositions(ctx context.Context) ([]types.Position, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	var models []positionModel
	if err := s.db.WithContext(ctx).Order("symbol ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Position, 0, len(models))
	for _, m := range models {
		out = append(out, positionModelToType(m))
	}
	return out, nil
}

func (s *gormStore) SavePositions(ctx context.Context, positions []types.Position) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store 未初始化")
	}
	now := time.Now()
	models := make([]positionModel, 0, len(positions))
	for _, p := range positions {
		models = append(models, newPositionModel(p, now))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&positionModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.Create(&models).Error
	})
}

func (s *gormStore) LoadOrders(ctx context.Context) ([]types.Order, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	var models []orderModel
	if err := s.db.WithContext(ctx).Order("ts ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Order, 0, len(models))
	for _, m := range models {
		out = append(out, orderModelToType(m))
	}
	return out, nil
}

func (s *gormStore) SaveOrders(ctx context.Context, orders []types.Order) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store 未初始化")
	}
	models := make([]orderModel, 0, len(orders))
	for _, o := range orders {
		models = append(models, newOrderModel(o))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&orderModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.Create(&models).Error
	})
}
