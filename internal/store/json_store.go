package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sable/internal/types"
)

// jsonStore 把每类集合写成独立 JSON 文件，便于人工检查和轻量部署。
// 写入走临时文件 + rename，避免中途崩溃留下半个文件。
type jsonStore struct {
	mu  sync.Mutex
	dir string
}

func newJSONStore(path string) (*jsonStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: json 目录不能为空")
	}
	// 配置里给的可能是 data/sable.db 这类文件路径，json 后端按目录处理
	if ext := filepath.Ext(path); ext != "" {
		path = strings.TrimSuffix(path, ext)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return &jsonStore{dir: path}, nil
}

func (s *jsonStore) Close() error { return nil }

func (s *jsonStore) LoadAssets(ctx context.Context) ([]types.Asset, error) {
	var out []types.Asset
	if err := s.readCollection("assets.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *jsonStore) SaveAssets(ctx context.Context, assets []types.Asset) error {
	return s.writeCollection("assets.json", assets)
}

func (s *jsonStore) LoadPositions(ctx context.Context) ([]types.Position, error) {
	var out []types.Position
	if err := s.readCollection("positions.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *jsonStore) SavePositions(ctx context.Context, positions []types.Position) error {
	return s.writeCollection("positions.json", positions)
}

func (s *jsonStore) LoadOrders(ctx context.Context) ([]types.Order, error) {
	var out []types.Order
	if err := s.readCollection("orders.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *jsonStore) SaveOrders(ctx context.Context, orders []types.Order) error {
	return s.writeCollection("orders.json", orders)
}

func (s *jsonStore) readCollection(name string, target any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}

func (s *jsonStore) writeCollection(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	final := filepath.Join(s.dir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}
