// Package notify 把摘要投递到聊天端点。
// 每个 Notifier 每次只发起一次投递请求，成功与否通过 Result 交给调用方决定如何处理。
package notify

import (
	"context"
	"unicode/utf8"
)

// Result 是一次投递的结果。
type Result struct {
	Channel    string
	Delivered  bool
	StatusCode int
	Err        error
}

// Notifier 投递一段摘要文本。
type Notifier interface {
	Notify(ctx context.Context, text string) Result
}

// FormatMessage 为摘要加上固定的标签前缀。
func FormatMessage(label, text string) string {
	if label == "" {
		return text
	}
	return label + "\n\n" + text
}

// truncate 截断字符串到指定字符数（按 UTF-8 字符计算）。
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
