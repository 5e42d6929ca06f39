package notify

import (
	"context"
	"fmt"
	"io"
)

// Writer 把摘要写到本地输出，用于 -dry-run 预览。
type Writer struct {
	w     io.Writer
	label string
}

// NewWriter 创建本地输出投递器。
func NewWriter(w io.Writer, label string) *Writer {
	return &Writer{w: w, label: label}
}

// Notify 实现 Notifier 接口。
func (w *Writer) Notify(_ context.Context, text string) Result {
	res := Result{Channel: "stdout"}
	if _, err := fmt.Fprintln(w.w, FormatMessage(w.label, text)); err != nil {
		res.Err = err
		return res
	}
	res.Delivered = true
	return res
}
