// Package digest 将去重后的候选集交给摘要服务，生成最终的摘要文本。
package digest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iabetor/feeddigest/internal/llm"
	"github.com/iabetor/feeddigest/internal/logger"
	"github.com/iabetor/feeddigest/internal/rss"
)

// Digest 是一次运行产出的摘要。
type Digest struct {
	Text     string
	Fallback bool // 候选集为空、未调用摘要服务
}

// Requester 负责构造请求并调用摘要服务。
type Requester struct {
	gen llm.Generator
}

// NewRequester 创建摘要请求器。
func NewRequester(gen llm.Generator) *Requester {
	return &Requester{gen: gen}
}

// BuildPrompt 将固定规则与候选列表拼接为一次请求的完整输入。
func BuildPrompt(candidates []rss.Candidate) (string, error) {
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("[digest] 序列化候选条目失败: %w", err)
	}
	return rubric + string(data), nil
}

// Request 生成摘要。候选集为空时直接返回 FallbackMessage；
// 摘要服务失败时返回错误，调用方不应再投递任何内容。
func (r *Requester) Request(ctx context.Context, candidates []rss.Candidate) (Digest, error) {
	if len(candidates) == 0 {
		logger.Info("[digest] 候选集为空，使用兜底文案")
		return Digest{Text: FallbackMessage, Fallback: true}, nil
	}

	prompt, err := BuildPrompt(candidates)
	if err != nil {
		return Digest{}, err
	}

	logger.Infof("[digest] 请求摘要服务，候选 %d 条", len(candidates))
	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return Digest{}, fmt.Errorf("[digest] 生成摘要失败: %w", err)
	}
	return Digest{Text: text}, nil
}
