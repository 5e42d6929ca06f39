package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/feeddigest/internal/logger"
	_ "modernc.org/sqlite"
)

// DB 是运行历史使用的 SQLite 数据库连接。
// 只记录每次运行的统计与投递结果，不保存候选条目本身。
type DB struct {
	*sql.DB
	path string
}

// Open 打开或创建数据库，":memory:" 表示内存数据库。
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("数据库路径不能为空")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 内存数据库每个连接各自独立，限制为单连接保证表可见
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("启用外键约束失败: %w", err)
	}

	logger.Infof("[database] 数据库已打开: %s", dbPath)
	return &DB{DB: db, path: dbPath}, nil
}

// Path 返回数据库文件路径。
func (db *DB) Path() string {
	return db.path
}

// Migrate 运行数据库迁移。
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		// 每次运行一行
		`CREATE TABLE IF NOT EXISTS digest_runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			cutoff TEXT NOT NULL,
			feeds INTEGER DEFAULT 0,
			failed_feeds INTEGER DEFAULT 0,
			aggregated INTEGER DEFAULT 0,
			unique_candidates INTEGER DEFAULT 0,
			fallback BOOLEAN DEFAULT 0,
			delivered BOOLEAN DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT DEFAULT ''
		)`,
		// 每个订阅源在某次运行中的处理结果
		`CREATE TABLE IF NOT EXISTS digest_run_feeds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES digest_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			name TEXT DEFAULT '',
			entries INTEGER DEFAULT 0,
			admitted INTEGER DEFAULT 0,
			error TEXT DEFAULT ''
		)`,
	}
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_digest_runs_started_at ON digest_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_run_feeds_run_id ON digest_run_feeds(run_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			logger.Warnf("[database] 创建索引失败: %v", err)
		}
	}

	logger.Debugf("[database] 数据库迁移完成")
	return nil
}

// Close 关闭数据库连接。
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}
