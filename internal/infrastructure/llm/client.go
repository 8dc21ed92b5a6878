package llm

import (
	"context"
)

// DefaultMaxTokens 调用方未指定时的生成长度上限
const DefaultMaxTokens = 500

// DefaultSystemMessage 默认人设：理财顾问
const DefaultSystemMessage = "You are a helpful financial advisor assistant. Analyze financial data and provide practical, actionable insights and recommendations. Always provide helpful responses to financial questions."

// GenerateRequest 一次文本生成请求。零值字段使用默认值。
type GenerateRequest struct {
	Prompt        string
	Model         string
	MaxTokens     int
	SystemMessage string
}

// Provider 定义了 LLM 的通用行为
type Provider interface {
	// Generate 返回模型的文本回复。凭证缺失、调用失败、模型拒答时返回 ("", false)，从不返回错误，
	// 由调用方自行兜底。
	Generate(ctx context.Context, req GenerateRequest) (string, bool)

	// DefaultModel 未显式指定模型时使用的模型名
	DefaultModel() string
}
