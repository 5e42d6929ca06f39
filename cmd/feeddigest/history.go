package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/iabetor/feeddigest/internal/config"
	"github.com/iabetor/feeddigest/internal/database"
)

// printHistory 打印最近 n 次运行记录。
func printHistory(cfg *config.Config, n int) int {
	if cfg.Database.Path == "" {
		fmt.Fprintln(os.Stderr, "未启用运行历史，请在配置文件中设置 database.path")
		return 1
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "打开数据库失败: %v\n", err)
		return 1
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "初始化数据库失败: %v\n", err)
		return 1
	}

	runs, err := db.RecentRuns(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询运行记录失败: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Printf("%s: 暂无运行记录\n", db.Path())
		return 0
	}

	fmt.Printf("%s: 最近 %d 次运行\n", db.Path(), len(runs))

	for _, r := range runs {
		fmt.Printf("%s  %s  %-16s 订阅源 %d (失败 %d)  候选 %d/%d  耗时 %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.Status,
			r.Feeds, r.FailedFeeds, r.UniqueCandidates, r.Aggregated,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		if r.Error != "" {
			fmt.Printf("    错误: %s\n", r.Error)
		}
		for _, f := range r.Sources {
			if f.Error != "" {
				fmt.Printf("    ✗ %s: %s\n", f.Source, f.Error)
			}
		}
	}
	return 0
}
