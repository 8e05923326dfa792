package app

import (
	"context"
	"fmt"
	"time"

	"sable/internal/config"
	"sable/internal/engine"
	"sable/internal/journal"
	"sable/internal/ledger"
	"sable/internal/logger"
	"sable/internal/market"
	"sable/internal/oracle"
	"sable/internal/registry"
	"sable/internal/shadow"
	"sable/internal/store"
	"sable/internal/store/shadowlog"
	apihttp "sable/internal/transport/http"
)

// 中文说明：
// builder 把配置装配成可运行的应用：存储 → 行情源 → Oracle →
// 组件注册表 → 生产/影子组件解析 → 引擎 → HTTP。
// 所有版本化组件在这里显式注册；解析失败直接中止启动。

func buildApp(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}

	source, err := market.NewSource(cfg.Market)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("初始化行情源失败: %w", err)
	}

	client := &oracle.ChatClient{
		BaseURL:    cfg.Oracle.APIURL,
		APIKey:     cfg.Oracle.APIKey,
		Model:      cfg.Oracle.Model,
		Timeout:    time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Oracle.MaxRetries,
	}
	parser, err := oracle.NewParser()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("初始化推荐解析器失败: %w", err)
	}
	instructions := oracle.LoadInstructions(cfg.Oracle.PromptPath)

	reg := buildRegistry(source, cfg, client, parser, instructions)

	evaluator, strategy, err := resolveComponents(reg, cfg.Components.EvaluatorVersion, cfg.Components.StrategyVersion)
	if err != nil {
		st.Close()
		return nil, err
	}
	logger.Infof("[app] 生产组件 evaluator=%s strategy=%s", evaluator.Name(), strategy.Name())

	// 启动恢复：positions/orders 从存储重放进内存账本
	positions, err := st.LoadPositions(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("恢复持仓失败: %w", err)
	}
	orders, err := st.LoadOrders(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("恢复订单失败: %w", err)
	}
	assets, err := st.LoadAssets(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("恢复标的失败: %w", err)
	}
	if len(positions) > 0 || len(orders) > 0 {
		logger.Infof("[app] 状态恢复 positions=%d orders=%d assets=%d", len(positions), len(orders), len(assets))
	}

	var (
		shadowRunner engine.ShadowRunner
		shadowLogs   *shadowlog.Store
	)
	if cfg.Shadow.Enabled {
		shadowLogs, err = shadowlog.New(cfg.Shadow.LogPath)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("初始化影子日志失败: %w", err)
		}
		shadowEval, shadowStrat, rerr := resolveComponents(reg, cfg.Shadow.EvaluatorVersion, cfg.Shadow.StrategyVersion)
		if rerr != nil {
			shadowLogs.Close()
			st.Close()
			return nil, rerr
		}
		exec, serr := shadow.NewExecutor(shadow.ExecutorParams{
			Evaluator:    shadowEval,
			Strategy:     shadowStrat,
			Sink:         shadowLogs,
			EvaluatorTag: shadowEval.Name(),
			StrategyTag:  shadowStrat.Name(),
		})
		if serr != nil {
			shadowLogs.Close()
			st.Close()
			return nil, serr
		}
		shadowRunner = exec
		logger.Infof("[app] 影子执行已启用 evaluator=%s strategy=%s", shadowEval.Name(), shadowStrat.Name())
	}

	eng, err := engine.New(engine.Params{
		Config:    cfg,
		Source:    source,
		Store:     st,
		Shadow:    shadowRunner,
		Ledger:    ledger.Restore(positions),
		Journal:   journal.Restore(orders),
		Assets:    assets,
		Evaluator: evaluator,
		Strategy:  strategy,
	})
	if err != nil {
		if shadowLogs != nil {
			shadowLogs.Close()
		}
		st.Close()
		return nil, fmt.Errorf("初始化引擎失败: %w", err)
	}

	httpSrv, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:       cfg.App.HTTPAddr,
		Store:      st,
		ShadowLogs: shadowLogs,
		Components: cfg.Components,
		Shadow:     cfg.Shadow,
	})
	if err != nil {
		if shadowLogs != nil {
			shadowLogs.Close()
		}
		st.Close()
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}

	return &App{
		cfg:        cfg,
		store:      st,
		shadowLogs: shadowLogs,
		registry:   reg,
		engine:     eng,
		httpSrv:    httpSrv,
	}, nil
}

// buildRegistry 显式注册全部版本化实现。v1 同时作为各角色的默认回退。
func buildRegistry(source market.Source, cfg *config.Config, client oracle.Oracle, parser *oracle.Parser, instructions string) *registry.Registry {
	reg := registry.New()

	newEvaluatorV1 := func() (any, error) {
		return engine.NewEvaluatorV1(market.NewPoolFilter(source, cfg.Pool), cfg.Trade), nil
	}
	deps := engine.StrategyDeps{
		Oracle:       client,
		Parser:       parser,
		Instructions: instructions,
		Trade:        cfg.Trade,
	}
	newStrategyV1 := func() (any, error) { return engine.NewStrategyV1(deps), nil }
	newStrategyV2 := func() (any, error) { return engine.NewStrategyV2(deps), nil }

	reg.Register(registry.RoleEvaluator, "v1", newEvaluatorV1)
	reg.RegisterDefault(registry.RoleEvaluator, newEvaluatorV1)
	reg.Register(registry.RoleStrategy, "v1", newStrategyV1)
	reg.Register(registry.RoleStrategy, "v2", newStrategyV2)
	reg.RegisterDefault(registry.RoleStrategy, newStrategyV1)
	return reg
}

// resolveComponents 解析一组 (evaluator, strategy) 绑定并做类型检查。
func resolveComponents(reg *registry.Registry, evaluatorVersion, strategyVersion string) (engine.Evaluator, engine.Strategy, error) {
	rawEval, _, err := reg.Resolve(registry.RoleEvaluator, evaluatorVersion)
	if err != nil {
		return nil, nil, err
	}
	evaluator, ok := rawEval.(engine.Evaluator)
	if !ok {
		return nil, nil, fmt.Errorf("registry: evaluator %q 类型不兼容", evaluatorVersion)
	}
	rawStrat, _, err := reg.Resolve(registry.RoleStrategy, strategyVersion)
	if err != nil {
		return nil, nil, err
	}
	strategy, ok := rawStrat.(engine.Strategy)
	if !ok {
		return nil, nil, fmt.Errorf("registry: strategy %q 类型不兼容", strategyVersion)
	}
	return evaluator, strategy, nil
}
