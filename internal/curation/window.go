// Package curation 实现摘要候选集的构建：时间窗口过滤、多源聚合与跨源去重。
package curation

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/iabetor/feeddigest/internal/rss"
)

// AdmitUndated 决定没有任何可解析日期的条目是否放行。
// 放行可以避免日期格式不规范的订阅源被整体静默丢弃。
const AdmitUndated = true

// DateExtractor 从原始条目中取出一个日期字段。
type DateExtractor struct {
	Name  string
	Field func(rss.RawEntry) string
}

// DefaultExtractors 按优先级排列的日期字段：规范化时间、发布时间、更新时间、dc:date。
var DefaultExtractors = []DateExtractor{
	{Name: "iso", Field: func(e rss.RawEntry) string { return e.ISODate }},
	{Name: "published", Field: func(e rss.RawEntry) string { return e.PubDate }},
	{Name: "updated", Field: func(e rss.RawEntry) string { return e.Updated }},
	{Name: "dc:date", Field: func(e rss.RawEntry) string { return e.DCDate }},
}

// Cutoff 返回回溯窗口的起点。每次运行只计算一次，所有订阅源共用。
func Cutoff(now time.Time, lookback time.Duration) time.Time {
	return now.Add(-lookback)
}

// ParseDate 尽力解析一个日期字符串，无时区信息时按 UTC 处理。
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// ExtractPublished 依次尝试 extractors，返回第一个能解析的日期。
func ExtractPublished(entry rss.RawEntry, extractors []DateExtractor) (time.Time, bool) {
	for _, ex := range extractors {
		if t, ok := ParseDate(ex.Field(entry)); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Window 是一次运行使用的时间窗口过滤器。
type Window struct {
	Cutoff     time.Time
	Extractors []DateExtractor
}

// NewWindow 以默认日期字段顺序创建过滤器。
func NewWindow(cutoff time.Time) Window {
	return Window{Cutoff: cutoff, Extractors: DefaultExtractors}
}

// Admit 判断条目是否进入候选集，放行时返回构造好的 Candidate。
// 标题或链接为空的条目无论日期都会被拒绝；日期严格早于 Cutoff 的条目被拒绝。
func (w Window) Admit(source string, entry rss.RawEntry) (rss.Candidate, bool) {
	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	if title == "" || link == "" {
		return rss.Candidate{}, false
	}

	extractors := w.Extractors
	if extractors == nil {
		extractors = DefaultExtractors
	}

	c := rss.Candidate{Source: source, Title: title, URL: link}
	published, ok := ExtractPublished(entry, extractors)
	if !ok {
		return c, AdmitUndated
	}
	if published.Before(w.Cutoff) {
		return rss.Candidate{}, false
	}
	published = published.UTC()
	c.PublishedAt = &published
	return c, true
}
