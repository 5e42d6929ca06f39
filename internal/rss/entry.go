// Package rss 提供 RSS/Atom 订阅源的抓取与解析，以及摘要流水线使用的条目类型。
package rss

import "time"

// RawEntry 是解析单个订阅源得到的原始条目，只在一次抓取内存在。
// 日期字段按可靠程度从高到低排列，均可能为空或格式不规范。
type RawEntry struct {
	Title string
	Link  string

	ISODate string // 解析器规范化后的发布时间（RFC3339）
	PubDate string // 原始发布时间字符串（RSS pubDate / Atom published）
	Updated string // 原始更新时间字符串
	DCDate  string // Dublin Core dc:date
}

// SourceResult 是读取一个订阅源的结果：要么带条目成功，要么带原因失败。
type SourceResult struct {
	Source  string
	Title   string
	Entries []RawEntry
	Err     error
}

// OK 返回本次读取是否成功。
func (r SourceResult) OK() bool { return r.Err == nil }

// DisplayName 返回订阅源的展示名称，订阅源未提供标题时回退为 URL。
func (r SourceResult) DisplayName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Source
}

// Candidate 是通过时间窗口过滤、可参与去重的候选条目，创建后不再修改。
type Candidate struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}
