package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iabetor/feeddigest/internal/logger"
	"github.com/mmcdole/gofeed"
)

const userAgent = "feeddigest/1.0 RSS Reader"

// Reader 负责抓取并解析单个订阅源。
// 任何网络或解析错误都只影响当前订阅源，不会向调用方抛出。
type Reader struct {
	parser  *gofeed.Parser
	client  *http.Client
	timeout time.Duration
}

// NewReader 创建订阅源读取器。client 为 nil 时使用独立的 http.Client；
// timeout 为 0 时不额外限制单个订阅源的抓取时间。
func NewReader(client *http.Client, timeout time.Duration) *Reader {
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &Reader{
		parser:  gofeed.NewParser(),
		client:  client,
		timeout: timeout,
	}
}

// Read 抓取一个订阅源。失败时记录警告并返回带 Err 的空结果。
func (r *Reader) Read(ctx context.Context, source string) SourceResult {
	result := SourceResult{Source: source}

	feed, err := r.parseFeed(ctx, source)
	if err != nil {
		logger.Warnf("[rss] 抓取 %s 失败: %v", source, err)
		result.Err = err
		return result
	}

	result.Title = strings.TrimSpace(feed.Title)
	result.Entries = convertItems(feed.Items)
	logger.Debugf("[rss] %s 解析到 %d 条", result.DisplayName(), len(result.Entries))
	return result
}

// Close 释放空闲的 keep-alive 连接，避免进程退出被挂起。
func (r *Reader) Close() {
	r.client.CloseIdleConnections()
}

// parseFeed 请求并解析 Feed URL。
func (r *Reader) parseFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	feed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析失败: %w", err)
	}
	return feed, nil
}

// convertItems 将 gofeed 条目转换为 RawEntry，保持原始顺序。
func convertItems(items []*gofeed.Item) []RawEntry {
	entries := make([]RawEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entry := RawEntry{
			Title:   item.Title,
			Link:    item.Link,
			PubDate: item.Published,
			Updated: item.Updated,
		}
		if item.PublishedParsed != nil {
			entry.ISODate = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		if item.DublinCoreExt != nil && len(item.DublinCoreExt.Date) > 0 {
			entry.DCDate = item.DublinCoreExt.Date[0]
		}
		entries = append(entries, entry)
	}
	return entries
}
