package apihttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sable/internal/config"
	"sable/internal/logger"
	"sable/internal/report"
	"sable/internal/store"
	"sable/internal/store/shadowlog"
	"sable/internal/types"
)

// Server 提供只读查询接口：持仓 / 订单 / 影子对照 / 盈亏报告。
// 所有数据从存储读取，不触碰引擎的内存状态。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr       string
	Store      store.Store
	ShadowLogs *shadowlog.Store
	Components config.ComponentsConfig
	Shadow     config.ShadowConfig
}

// NewServer 构建只读 API server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("http server requires a store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{store: cfg.Store, shadowLogs: cfg.ShadowLogs, components: cfg.Components, shadow: cfg.Shadow}
	api := router.Group("/api")
	{
		api.GET("/status", h.status)
		api.GET("/assets", h.assets)
		api.GET("/positions", h.positions)
		api.GET("/orders", h.orders)
		api.GET("/shadow", h.shadowRecords)
	}
	router.GET("/report", h.report)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// requestLogger 记录接口调用，便于排查查询来源。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

type handlers struct {
	store      store.Store
	shadowLogs *shadowlog.Store
	components config.ComponentsConfig
	shadow     config.ShadowConfig
}

func (h *handlers) status(c *gin.Context) {
	resp := gin.H{
		"evaluator_version": h.components.EvaluatorVersion,
		"strategy_version":  h.components.StrategyVersion,
		"shadow_enabled":    h.shadow.Enabled,
	}
	if h.shadow.Enabled {
		resp["shadow_evaluator_version"] = h.shadow.EvaluatorVersion
		resp["shadow_strategy_version"] = h.shadow.StrategyVersion
		if h.shadowLogs != nil {
			if diverged, err := h.shadowLogs.CountDiverged(c.Request.Context()); err == nil {
				resp["shadow_diverged_total"] = diverged
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) assets(c *gin.Context) {
	assets, err := h.store.LoadAssets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// 列表接口不回传完整 K 线，避免响应体失控
	out := make([]gin.H, 0, len(assets))
	for _, a := range assets {
		out = append(out, gin.H{
			"symbol":       a.Symbol,
			"coin_id":      a.CoinID,
			"realized_pnl": a.RealizedPnL,
			"price_change": a.PriceChange,
			"history_len":  len(a.PriceHistory),
		})
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

func (h *handlers) positions(c *gin.Context) {
	positions, err := h.store.LoadPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sym := strings.ToUpper(strings.TrimSpace(c.Query("symbol"))); sym != "" {
		filtered := positions[:0]
		for _, p := range positions {
			if strings.ToUpper(p.Symbol) == sym {
				filtered = append(filtered, p)
			}
		}
		positions = filtered
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (h *handlers) orders(c *gin.Context) {
	orders, err := h.store.LoadOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sym := strings.ToUpper(strings.TrimSpace(c.Query("symbol"))); sym != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if strings.ToUpper(o.Symbol) == sym {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	limit := parseIntQuery(c, "limit", 100, 500)
	// 日志是追加序，取末尾即最近
	if len(orders) > limit {
		orders = orders[len(orders)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (h *handlers) shadowRecords(c *gin.Context) {
	if h.shadowLogs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shadow 模式未启用"})
		return
	}
	records, err := h.shadowLogs.ListShadowRecords(c.Request.Context(), shadowlog.Query{
		Symbol:       c.Query("symbol"),
		OnlyDiverged: c.Query("diverged") == "1" || strings.EqualFold(c.Query("diverged"), "true"),
		Limit:        parseIntQuery(c, "limit", 100, 500),
		Offset:       parseIntQuery(c, "offset", 0, 1<<20),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []types.ShadowRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *handlers) report(c *gin.Context) {
	ctx := c.Request.Context()
	positions, err := h.store.LoadPositions(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	assets, err := h.store.LoadAssets(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteHTML(c.Writer, report.Input{
		GeneratedAt: time.Now(),
		Positions:   positions,
		Assets:      assets,
	}); err != nil {
		logger.Warnf("[http] 报告渲染失败: %v", err)
	}
}

func parseIntQuery(c *gin.Context, name string, def, max int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
