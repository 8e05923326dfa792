package shadowlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"sable/internal/types"
)

// Store 管理影子执行的对照记录，独立于权威存储落盘。
// 记录只追加不更新，供离线比较与 HTTP 查询。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Query 筛选对照记录。
type Query struct {
	Symbol       string
	OnlyDiverged bool
	Limit        int
	Offset       int
}

// New 初始化 SQLite 存储。
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("shadowlog: 路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close 关闭底层 DB。
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shadow_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id TEXT,
			symbol TEXT,
			ts INTEGER NOT NULL,
			price REAL,
			prod_call TEXT,
			prod_action TEXT,
			shadow_call TEXT,
			shadow_action TEXT,
			shadow_pnl REAL,
			diverged INTEGER NOT NULL DEFAULT 0,
			shadow_error TEXT,
			evaluator_tag TEXT,
			strategy_tag TEXT,
			prod_rec TEXT,
			shadow_rec TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shadow_records_symbol ON shadow_records(symbol, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_shadow_records_trace ON shadow_records(trace_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AppendShadowRecord 追加一条对照记录。实现 shadow.Sink。
func (s *Store) AppendShadowRecord(ctx context.Context, record types.ShadowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("shadowlog 未初始化")
	}
	prodRec, _ := json.Marshal(record.ProdRec)
	shadowRec, _ := json.Marshal(record.ShadowRec)
	diverged := 0
	if record.Diverged {
		diverged = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO shadow_records (
		trace_id, symbol, ts, price,
		prod_call, prod_action, shadow_call, shadow_action,
		shadow_pnl, diverged, shadow_error, evaluator_tag, strategy_tag,
		prod_rec, shadow_rec
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.TraceID,
		strings.ToUpper(strings.TrimSpace(record.Symbol)),
		record.Timestamp.UnixMilli(),
		record.Price,
		string(record.ProdCall),
		record.ProdAction,
		string(record.ShadowCall),
		record.ShadowAction,
		record.ShadowPnL,
		diverged,
		record.ShadowError,
		record.EvaluatorTag,
		record.StrategyTag,
		string(prodRec),
		string(shadowRec),
	)
	return err
}

// ListShadowRecords 按时间倒序返回对照记录。
func (s *Store) ListShadowRecords(ctx context.Context, q Query) ([]types.ShadowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("shadowlog 未初始化")
	}
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if sym := strings.ToUpper(strings.TrimSpace(q.Symbol)); sym != "" {
		where = append(where, "symbol = ?")
		args = append(args, sym)
	}
	if q.OnlyDiverged {
		where = append(where, "diverged = 1")
	}
	query := `SELECT trace_id, symbol, ts, price,
		prod_call, prod_action, shadow_call, shadow_action,
		shadow_pnl, diverged, shadow_error, evaluator_tag, strategy_tag,
		prod_rec, shadow_rec
	FROM shadow_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ShadowRecord
	for rows.Next() {
		var (
			rec       types.ShadowRecord
			ts        int64
			diverged  int
			prodRec   string
			shadowRec string
			prodCall  string
			shadCall  string
		)
		if err := rows.Scan(
			&rec.TraceID, &rec.Symbol, &ts, &rec.Price,
			&prodCall, &rec.ProdAction, &shadCall, &rec.ShadowAction,
			&rec.ShadowPnL, &diverged, &rec.ShadowError, &rec.EvaluatorTag, &rec.StrategyTag,
			&prodRec, &shadowRec,
		); err != nil {
			return nil, err
		}
		rec.Timestamp = millisToTime(ts)
		rec.Diverged = diverged != 0
		rec.ProdCall = types.Call(prodCall)
		rec.ShadowCall = types.Call(shadCall)
		if prodRec != "" {
			_ = json.Unmarshal([]byte(prodRec), &rec.ProdRec)
		}
		if shadowRec != "" {
			_ = json.Unmarshal([]byte(shadowRec), &rec.ShadowRec)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountDiverged 统计分歧条数，供状态接口展示。
func (s *Store) CountDiverged(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, fmt.Errorf("shadowlog 未初始化")
	}
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shadow_records WHERE diverged = 1`).Scan(&total)
	return total, err
}

func millisToTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}
