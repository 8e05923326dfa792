package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sable/internal/config"
	"sable/internal/engine"
	"sable/internal/logger"
	"sable/internal/registry"
	"sable/internal/store"
	"sable/internal/store/shadowlog"
	apihttp "sable/internal/transport/http"
)

// App 负责应用级编排：加载配置 → 初始化依赖 → 启动引擎与 HTTP 服务。
type App struct {
	cfg        *config.Config
	store      store.Store
	shadowLogs *shadowlog.Store
	registry   *registry.Registry
	engine     *engine.Engine
	httpSrv    *apihttp.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildApp(context.Background(), cfg)
}

// Engine 暴露引擎实例（测试/单周期回放用）。
func (a *App) Engine() *engine.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

// Run 启动引擎主循环与 HTTP 服务，阻塞到 ctx 取消或任一子任务出错。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		group.Go(func() error {
			if err := a.httpSrv.Start(ctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
		logger.Infof("[app] HTTP 服务监听 %s", a.httpSrv.Addr())
	}

	if a.cfg.Components.Watch {
		group.Go(func() error {
			return a.watchComponents(ctx)
		})
	}

	group.Go(func() error {
		// run_once 模式下引擎结束即整体退出（HTTP 服务随 ctx 收尾）
		defer cancel()
		return a.engine.Run(ctx)
	})

	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchComponents 监听配置文件变更，重新解析组件绑定并热替换。
// 只有 components 段生效；其余配置改动需要重启。
func (a *App) watchComponents(ctx context.Context) error {
	return registry.WatchBindings(ctx, a.cfg.Path, func() {
		next, err := config.Load(a.cfg.Path)
		if err != nil {
			logger.Warnf("[app] 配置重载失败，维持现有组件: %v", err)
			return
		}
		evaluator, strategy, err := resolveComponents(a.registry,
			next.Components.EvaluatorVersion, next.Components.StrategyVersion)
		if err != nil {
			logger.Warnf("[app] 组件解析失败，维持现有组件: %v", err)
			return
		}
		a.engine.SetComponents(evaluator, strategy)
	})
}

func (a *App) close() {
	if a.shadowLogs != nil {
		if err := a.shadowLogs.Close(); err != nil {
			logger.Warnf("[app] 影子日志关闭失败: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("[app] 存储关闭失败: %v", err)
		}
	}
}
