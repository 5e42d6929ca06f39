// Package llm 封装与 OpenAI 兼容摘要服务的通信。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Generator 将一段完整的提示词交给大模型，返回纯文本结果。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ResponsesClient 通过 Responses 接口（POST {apiURL}/responses）生成文本。
// 每次调用只发送一次请求，不做重试。
type ResponsesClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewResponsesClient 创建一个新的 Responses 客户端。client 为 nil 时使用独立的 http.Client。
func NewResponsesClient(apiURL, apiKey, model string, client *http.Client) *ResponsesClient {
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &ResponsesClient{
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: client,
	}
}

// responsesRequest 是发送到 responses 接口的 JSON 请求体。
type responsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// responsesResponse 只保留提取文本所需的字段。
type responsesResponse struct {
	Output []outputSegment `json:"output"`
}

type outputSegment struct {
	Type    string            `json:"type"`
	Content []contentFragment `json:"content"`
}

// contentFragment 兼容两种文本片段形态：
// {"type":"output_text","text":"..."} 与 {"type":"text","text":{"value":"..."}}。
type contentFragment struct {
	Type string
	Text string
}

// UnmarshalJSON 实现 json.Unmarshaler。
func (f *contentFragment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type string          `json:"type"`
		Text json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Type = raw.Type
	f.Text = ""

	text := bytes.TrimSpace(raw.Text)
	if len(text) == 0 || bytes.Equal(text, []byte("null")) {
		return nil
	}
	switch text[0] {
	case '"':
		return json.Unmarshal(text, &f.Text)
	case '{':
		var wrapped struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(text, &wrapped); err != nil {
			return err
		}
		f.Text = wrapped.Value
	}
	return nil
}

// Text 按顺序拼接所有输出片段中的文本并去除首尾空白。
func (r responsesResponse) Text() string {
	var sb strings.Builder
	for _, seg := range r.Output {
		for _, frag := range seg.Content {
			sb.WriteString(frag.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// Generate 实现 Generator 接口。
func (c *ResponsesClient) Generate(ctx context.Context, prompt string) (string, error) {
	bodyBytes, err := json.Marshal(responsesRequest{Model: c.model, Input: prompt})
	if err != nil {
		return "", fmt.Errorf("[llm] 序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/responses", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("[llm] 创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("[llm] 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("[llm] API 返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("[llm] 解析响应失败: %w", err)
	}
	return parsed.Text(), nil
}

// Close 释放空闲连接。
func (c *ResponsesClient) Close() {
	c.httpClient.CloseIdleConnections()
}
