package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Webhook 通过 incoming webhook（Slack 兼容的 {"text": ...} 格式）投递。
type Webhook struct {
	url    string
	label  string
	client *http.Client
}

// NewWebhook 创建 webhook 投递器。client 为 nil 时使用 http.DefaultClient。
func NewWebhook(url, label string, client *http.Client) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: url, label: label, client: client}
}

type webhookPayload struct {
	Text string `json:"text"`
}

// Notify 实现 Notifier 接口。非 2xx 响应视为投递失败。
func (w *Webhook) Notify(ctx context.Context, text string) Result {
	res := Result{Channel: "webhook"}

	body, err := json.Marshal(webhookPayload{Text: FormatMessage(w.label, text)})
	if err != nil {
		res.Err = fmt.Errorf("[notify] 序列化消息失败: %w", err)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		res.Err = fmt.Errorf("[notify] 创建请求失败: %w", err)
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("[notify] 请求失败: %w", err)
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	res.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = fmt.Errorf("[notify] webhook 返回状态码 %d", resp.StatusCode)
		return res
	}
	res.Delivered = true
	return res
}
