package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"sable/internal/logger"
)

// 中文说明：
// 组件注册表：显式的 (role, version) → 构造器映射，启动时注册。
// 解析顺序固定：请求版本 → 角色默认实现 → 失败。版本缺失的回退是确定性的，
// 且每个 (role, version) 只记录一次日志，避免每周期刷屏。
// 取代基于反射/动态类名拼接的加载方式。

// Role 逻辑组件角色。
type Role string

const (
	RoleEvaluator Role = "Evaluator"
	RoleStrategy  Role = "Strategy"
)

// Builder 构造一个具体实现。注册时捕获依赖，解析方只拿实例。
type Builder func() (any, error)

// Resolution 一次解析的结果描述。
type Resolution struct {
	Role      Role
	Requested string
	Resolved  string
	Fallback  bool
}

type bindingKey struct {
	role    Role
	version string
}

type Registry struct {
	mu             sync.Mutex
	table          map[bindingKey]Builder
	defaults       map[Role]Builder
	fallbackLogged map[bindingKey]bool
}

func New() *Registry {
	return &Registry{
		table:          make(map[bindingKey]Builder),
		defaults:       make(map[Role]Builder),
		fallbackLogged: make(map[bindingKey]bool),
	}
}

// Register 注册某角色的一个版本化实现。
func (r *Registry) Register(role Role, version string, b Builder) {
	if r == nil || b == nil {
		return
	}
	version = normalizeVersion(version)
	r.mu.Lock()
	r.table[bindingKey{role: role, version: version}] = b
	r.mu.Unlock()
}

// RegisterDefault 注册角色的无版本默认实现（回退目标）。
func (r *Registry) RegisterDefault(role Role, b Builder) {
	if r == nil || b == nil {
		return
	}
	r.mu.Lock()
	r.defaults[role] = b
	r.mu.Unlock()
}

// Resolve 按固定回退顺序解析并构造实现。
func (r *Registry) Resolve(role Role, version string) (any, Resolution, error) {
	version = normalizeVersion(version)
	res := Resolution{Role: role, Requested: version}
	key := bindingKey{role: role, version: version}

	r.mu.Lock()
	builder, ok := r.table[key]
	if !ok {
		builder = r.defaults[role]
		if builder != nil && !r.fallbackLogged[key] {
			logger.Warnf("[registry] role=%s version=%q 未注册，回退到默认实现", role, version)
			r.fallbackLogged[key] = true
		}
	}
	r.mu.Unlock()

	if builder == nil {
		return nil, res, fmt.Errorf("registry: no implementation for role=%s version=%q and no default", role, version)
	}
	impl, err := builder()
	if err != nil {
		return nil, res, fmt.Errorf("registry: build role=%s version=%q failed: %w", role, version, err)
	}
	if ok {
		res.Resolved = version
	} else {
		res.Resolved = "default"
		res.Fallback = true
	}
	return impl, res, nil
}

// Versions 返回某角色已注册的版本列表（排序后），用于启动摘要。
func (r *Registry) Versions(role Role) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for key := range r.table {
		if key.role == role {
			out = append(out, key.version)
		}
	}
	sort.Strings(out)
	return out
}

func normalizeVersion(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
