package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_InvalidTimezone(t *testing.T) {
	if _, err := New("Invalid/Zone"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	for _, spec := range []string{"", "not a cron", "61 * * * *"} {
		if err := s.Schedule(spec, func() {}); err == nil {
			t.Errorf("Schedule(%q) 期望返回错误", spec)
		}
	}
}

func TestSchedule_NextAndReplace(t *testing.T) {
	s, err := New("Asia/Shanghai")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Next().IsZero() {
		t.Error("未注册任务时 Next 应为零值")
	}

	if err := s.Schedule("0 9 * * *", func() {}); err != nil {
		t.Fatalf("Schedule 失败: %v", err)
	}
	first := s.entryID

	s.Start()
	defer s.Stop(context.Background())

	next := s.Next().In(s.location)
	if next.Hour() != 9 || next.Minute() != 0 {
		t.Errorf("下一次触发时间应为 09:00，实际 %v", next)
	}

	if err := s.Schedule("30 18 * * *", func() {}); err != nil {
		t.Fatalf("替换任务失败: %v", err)
	}
	if s.entryID == first {
		t.Error("替换后应生成新的任务")
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("替换后应只有 1 个任务，实际 %d", len(s.cron.Entries()))
	}
}

func TestSchedule_Runs(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}

	var count atomic.Int32
	if err := s.Schedule("@every 1s", func() { count.Add(1) }); err != nil {
		t.Fatalf("Schedule 失败: %v", err)
	}
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for count.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop 失败: %v", err)
	}
	if count.Load() == 0 {
		t.Error("任务应至少执行一次")
	}
}
