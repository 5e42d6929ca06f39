// Package pipeline 串联一次摘要运行的各个阶段：
// 读取订阅源 → 时间窗口过滤 → 聚合 → 去重 → 请求摘要 → 投递。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/iabetor/feeddigest/internal/config"
	"github.com/iabetor/feeddigest/internal/curation"
	"github.com/iabetor/feeddigest/internal/database"
	"github.com/iabetor/feeddigest/internal/digest"
	"github.com/iabetor/feeddigest/internal/llm"
	"github.com/iabetor/feeddigest/internal/logger"
	"github.com/iabetor/feeddigest/internal/notify"
	"github.com/iabetor/feeddigest/internal/rss"
)

// ErrSummarize 表示摘要服务调用失败，本次运行不会投递任何内容。
var ErrSummarize = errors.New("摘要服务调用失败")

// Pipeline 是一次或多次摘要运行的编排器，持有所有网络与存储资源。
type Pipeline struct {
	cfg *config.Config

	client     *http.Client
	reader     *rss.Reader
	aggregator *curation.Aggregator
	generator  llm.Generator
	requester  *digest.Requester
	notifiers  []notify.Notifier
	history    *database.DB

	now func() time.Time
}

// Option 调整 Pipeline 的构造。
type Option func(*options)

type options struct {
	generator llm.Generator
	notifiers []notify.Notifier
	dryRun    io.Writer
	now       func() time.Time
}

// WithGenerator 替换摘要服务客户端。
func WithGenerator(g llm.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithNotifiers 替换按配置创建的投递器。
func WithNotifiers(n ...notify.Notifier) Option {
	return func(o *options) { o.notifiers = n }
}

// WithDryRun 只把摘要写到 w，不投递到任何聊天端点。
func WithDryRun(w io.Writer) Option {
	return func(o *options) { o.dryRun = w }
}

// WithClock 替换当前时间来源。
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New 根据配置创建 Pipeline。所有出站请求共用一个 http.Client，Close 时统一释放连接。
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	client := &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	reader := rss.NewReader(client, cfg.Curation.FetchTimeout())

	p := &Pipeline{
		cfg:        cfg,
		client:     client,
		reader:     reader,
		aggregator: curation.NewAggregator(reader, cfg.Curation.MaxPerFeed),
		generator:  o.generator,
		notifiers:  o.notifiers,
		now:        o.now,
	}

	if p.generator == nil {
		p.generator = llm.NewResponsesClient(cfg.Summarizer.APIURL, cfg.Summarizer.APIKey, cfg.Summarizer.Model, client)
	}
	p.requester = digest.NewRequester(p.generator)

	switch {
	case o.dryRun != nil:
		p.notifiers = []notify.Notifier{notify.NewWriter(o.dryRun, cfg.Notify.Label)}
	case p.notifiers == nil:
		if err := p.buildNotifiers(); err != nil {
			p.Close()
			return nil, err
		}
	}

	if cfg.Database.Path != "" {
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.history = db
		if err := db.Migrate(context.Background()); err != nil {
			p.Close()
			return nil, err
		}
	}

	logger.Infof("[pipeline] 已初始化: %d 个订阅源，回溯 %d 小时，单源上限 %d，投递目标 %d 个",
		len(cfg.Feeds), cfg.Curation.LookbackHours, cfg.Curation.MaxPerFeed, len(p.notifiers))
	return p, nil
}

func (p *Pipeline) buildNotifiers() error {
	n := p.cfg.Notify
	if n.WebhookURL != "" {
		p.notifiers = append(p.notifiers, notify.NewWebhook(n.WebhookURL, n.Label, p.client))
	}
	if n.Telegram.Enabled() {
		tg, err := notify.NewTelegram(n.Telegram.Token, n.Telegram.ChatID, n.Label, p.client)
		if err != nil {
			return err
		}
		p.notifiers = append(p.notifiers, tg)
	}
	return nil
}

// History 返回运行历史数据库，未启用时为 nil。
func (p *Pipeline) History() *database.DB {
	return p.history
}

// RunOnce 执行一次完整的摘要运行。
// 订阅源失败只记录警告；摘要服务失败返回 ErrSummarize 且不投递；
// 投递失败体现在 Report.Deliveries 中，由调用方决定是否视为失败。
func (p *Pipeline) RunOnce(ctx context.Context) (Report, error) {
	started := p.now()
	report := Report{
		RunID:  uuid.NewString(),
		Cutoff: curation.Cutoff(started, p.cfg.Curation.Lookback()),
	}
	logger.Infof("[pipeline] 开始运行 %s，cutoff=%s", report.RunID, report.Cutoff.Format(time.RFC3339))

	candidates, stats := p.aggregator.Collect(ctx, p.cfg.Feeds, curation.NewWindow(report.Cutoff))
	report.Sources = stats
	report.Aggregated = len(candidates)

	unique := curation.Dedup(candidates)
	report.Unique = len(unique)
	logger.Infof("[pipeline] 候选 %d 条，去重后 %d 条，失败订阅源 %d 个",
		report.Aggregated, report.Unique, report.FailedSources())

	d, err := p.requester.Request(ctx, unique)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSummarize, err)
		logger.Errorf("[pipeline] %v", err)
		p.record(ctx, started, report, err)
		return report, err
	}
	report.Digest = d

	for _, n := range p.notifiers {
		res := n.Notify(ctx, d.Text)
		if !res.Delivered {
			logger.Warnf("[pipeline] 投递到 %s 失败: %v", res.Channel, res.Err)
		}
		report.Deliveries = append(report.Deliveries, res)
	}

	p.record(ctx, started, report, nil)
	return report, nil
}

// record 写入运行历史，失败只记录警告。
func (p *Pipeline) record(ctx context.Context, started time.Time, report Report, runErr error) {
	if p.history == nil {
		return
	}
	if err := p.history.RecordRun(ctx, report.toRun(started, p.now(), runErr)); err != nil {
		logger.Warnf("[pipeline] 保存运行记录失败: %v", err)
	}
}

// Close 释放空闲的网络连接并关闭运行历史数据库，进程退出前必须调用。
func (p *Pipeline) Close() error {
	p.reader.Close()
	p.client.CloseIdleConnections()
	if c, ok := p.generator.(interface{ Close() }); ok {
		c.Close()
	}
	if p.history != nil {
		err := p.history.Close()
		p.history = nil
		return err
	}
	return nil
}
