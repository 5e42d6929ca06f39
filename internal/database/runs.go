package database

import (
	"context"
	"fmt"
	"time"
)

// Run 运行状态。
const (
	StatusOK            = "ok"
	StatusSummarizeFail = "summarize_failed"
	StatusNotifyFail    = "notify_failed"
)

// Run 是一次摘要运行的记录。
type Run struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Cutoff           time.Time
	Feeds            int
	FailedFeeds      int
	Aggregated       int
	UniqueCandidates int
	Fallback         bool
	Delivered        bool
	Status           string
	Error            string
	Sources          []FeedOutcome
}

// FeedOutcome 是单个订阅源在一次运行中的结果。
type FeedOutcome struct {
	Source   string
	Name     string
	Entries  int
	Admitted int
	Error    string
}

// RecordRun 在一个事务中写入运行记录及各订阅源结果。
func (db *DB) RecordRun(ctx context.Context, run Run) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO digest_runs
		(id, started_at, finished_at, cutoff, feeds, failed_feeds, aggregated, unique_candidates, fallback, delivered, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), formatTime(run.Cutoff),
		run.Feeds, run.FailedFeeds, run.Aggregated, run.UniqueCandidates,
		run.Fallback, run.Delivered, run.Status, run.Error)
	if err != nil {
		return fmt.Errorf("写入运行记录失败: %w", err)
	}

	for i, src := range run.Sources {
		_, err = tx.ExecContext(ctx, `INSERT INTO digest_run_feeds
			(run_id, position, source, name, entries, admitted, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, src.Source, src.Name, src.Entries, src.Admitted, src.Error)
		if err != nil {
			return fmt.Errorf("写入订阅源结果失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// RecentRuns 按开始时间倒序返回最近 limit 次运行（包含各订阅源结果）。
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.QueryContext(ctx, `SELECT id, started_at, finished_at, cutoff, feeds, failed_feeds,
		aggregated, unique_candidates, fallback, delivered, status, error
		FROM digest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                      Run
			started, finished, cut string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &cut, &r.Feeds, &r.FailedFeeds,
			&r.Aggregated, &r.UniqueCandidates, &r.Fallback, &r.Delivered, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("读取运行记录失败: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		r.Cutoff = parseTime(cut)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		sources, err := db.runFeeds(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Sources = sources
	}
	return runs, nil
}

func (db *DB) runFeeds(ctx context.Context, runID string) ([]FeedOutcome, error) {
	rows, err := db.QueryContext(ctx, `SELECT source, name, entries, admitted, error
		FROM digest_run_feeds WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("查询订阅源结果失败: %w", err)
	}
	defer rows.Close()

	var out []FeedOutcome
	for rows.Next() {
		var f FeedOutcome
		if err := rows.Scan(&f.Source, &f.Name, &f.Entries, &f.Admitted, &f.Error); err != nil {
			return nil, fmt.Errorf("读取订阅源结果失败: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// timeLayout 是定宽的 UTC 时间格式，保证按文本排序与按时间排序一致。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
