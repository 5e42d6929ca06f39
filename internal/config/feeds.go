package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedList 是按配置顺序排列的订阅源 URL 列表。
// YAML 中既可以写成序列，也可以写成按行分隔的字符串（便于直接引用环境变量）。
// 空行会被丢弃，每项去除首尾空白，重复项保留。
type FeedList []string

// UnmarshalYAML 实现 yaml.Unmarshaler。
func (f *FeedList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*f = ParseFeedList(node.Value)
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("解析 feeds 列表失败: %w", err)
		}
		*f = ParseFeedList(strings.Join(raw, "\n"))
		return nil
	default:
		return fmt.Errorf("feeds 必须是字符串或字符串列表（第 %d 行）", node.Line)
	}
}

// ParseFeedList 将按行分隔的文本拆分为订阅源列表。
func ParseFeedList(text string) FeedList {
	var out FeedList
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
