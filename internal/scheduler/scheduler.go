// Package scheduler 在守护进程模式下按 cron 表达式定时触发摘要任务。
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/iabetor/feeddigest/internal/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler 管理定时任务。同一任务上一次尚未结束时，本次触发会被跳过。
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	entryID  cron.EntryID
}

// cronLogger 把 cron 内部日志转到全局 zap logger。
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.L.Debugw("[scheduler] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.L.Errorw("[scheduler] "+msg, append(keysAndValues, "error", err)...)
}

// New 创建指定时区的调度器。
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %q 失败: %w", timezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	return &Scheduler{cron: c, location: loc}, nil
}

// Schedule 以标准 5 段 cron 表达式注册任务，已有任务会被替换。
func (s *Scheduler) Schedule(spec string, task func()) error {
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	id, err := s.cron.AddFunc(spec, task)
	if err != nil {
		return fmt.Errorf("无效的 cron 表达式 %q: %w", spec, err)
	}
	s.entryID = id
	logger.Infof("[scheduler] 已注册定时任务: %s (%s)", spec, s.location)
	return nil
}

// Next 返回下一次触发时间，未注册任务或调度器未启动时返回零值。
func (s *Scheduler) Next() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start 在后台启动调度器。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束或 ctx 超时。
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
