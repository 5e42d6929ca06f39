package curation

import (
	"context"
	"strings"

	"github.com/iabetor/feeddigest/internal/logger"
	"github.com/iabetor/feeddigest/internal/rss"
)

// SourceReader 读取单个订阅源，失败必须体现在 SourceResult.Err 中而不是中断调用方。
type SourceReader interface {
	Read(ctx context.Context, source string) rss.SourceResult
}

// SourceStat 记录单个订阅源在一次运行中的处理情况。
type SourceStat struct {
	Source   string
	Name     string
	Entries  int // 订阅源返回的条目数
	Admitted int // 截断并过滤后进入候选集的条目数
	Err      error
}

// Aggregator 按配置顺序依次读取订阅源并合并候选条目。
type Aggregator struct {
	reader     SourceReader
	maxPerFeed int
}

// NewAggregator 创建聚合器。maxPerFeed <= 0 表示不限制单源条目数。
func NewAggregator(reader SourceReader, maxPerFeed int) *Aggregator {
	return &Aggregator{reader: reader, maxPerFeed: maxPerFeed}
}

// Collect 顺序读取 sources，对每个源先截取前 maxPerFeed 条再做时间窗口过滤，
// 结果按订阅源顺序拼接，源内保持原始顺序。此阶段不做跨源去重。
func (a *Aggregator) Collect(ctx context.Context, sources []string, window Window) ([]rss.Candidate, []SourceStat) {
	var (
		candidates []rss.Candidate
		stats      []SourceStat
	)

	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}

		res := a.reader.Read(ctx, src)
		stat := SourceStat{Source: src, Name: res.DisplayName(), Entries: len(res.Entries), Err: res.Err}
		if !res.OK() {
			stats = append(stats, stat)
			continue
		}

		entries := res.Entries
		if a.maxPerFeed > 0 && len(entries) > a.maxPerFeed {
			entries = entries[:a.maxPerFeed]
		}

		for _, entry := range entries {
			c, ok := window.Admit(stat.Name, entry)
			if !ok {
				continue
			}
			candidates = append(candidates, c)
			stat.Admitted++
		}

		logger.Infof("[curation] %s: 条目 %d，入选 %d", stat.Name, stat.Entries, stat.Admitted)
		stats = append(stats, stat)
	}

	return candidates, stats
}
