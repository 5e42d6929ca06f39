package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iabetor/feeddigest/internal/config"
	"github.com/iabetor/feeddigest/internal/logger"
	"github.com/iabetor/feeddigest/internal/pipeline"
	"github.com/iabetor/feeddigest/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/feeddigest.yaml", "配置文件路径")
	once := flag.Bool("once", false, "忽略 schedule.cron，只运行一次")
	dryRun := flag.Bool("dry-run", false, "把摘要输出到标准输出，不投递（无需配置投递目标）")
	history := flag.Int("history", 0, "列出最近 N 次运行记录后退出")
	flag.Parse()

	load := config.Load
	if *dryRun {
		load = config.LoadDryRun
	}
	cfg, err := load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		return 1
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if *history > 0 {
		return printHistory(cfg, *history)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	var opts []pipeline.Option
	if *dryRun {
		opts = append(opts, pipeline.WithDryRun(os.Stdout))
	}
	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		logger.Errorf("[main] 创建流水线失败: %v", err)
		return 1
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warnf("[main] 关闭流水线失败: %v", err)
		}
	}()

	if cfg.Schedule.Cron == "" || *once {
		return runDigest(ctx, p, cfg.Notify.Strict)
	}
	return runDaemon(ctx, p, cfg)
}

// runDigest 执行一次摘要任务并返回进程退出码。
func runDigest(ctx context.Context, p *pipeline.Pipeline, strict bool) int {
	report, err := p.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Infof("[main] 摘要任务已取消")
		}
		return 1
	}
	if !report.Delivered() {
		logger.Warnf("[main] 摘要未能投递到全部目标 (%d 个)", len(report.Deliveries))
		if strict {
			return 1
		}
	}
	logger.Infof("[main] 摘要任务完成")
	return 0
}

// runDaemon 按 schedule.cron 定时运行，直到收到退出信号。
func runDaemon(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config) int {
	s, err := scheduler.New(cfg.Schedule.Timezone)
	if err != nil {
		logger.Errorf("[main] 创建调度器失败: %v", err)
		return 1
	}
	if err := s.Schedule(cfg.Schedule.Cron, func() {
		runDigest(ctx, p, cfg.Notify.Strict)
	}); err != nil {
		logger.Errorf("[main] %v", err)
		return 1
	}

	s.Start()
	logger.Infof("[main] feeddigest 守护进程已启动，下一次运行: %s", s.Next().Format(time.RFC3339))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		logger.Warnf("[main] 等待运行中的任务结束超时: %v", err)
	}
	logger.Infof("[main] feeddigest 已停止")
	return 0
}
