package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kiyon21/Finsight-AI/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// temperature 固定为非零值，避免模型给出过于保守的回答
const temperature = 0.7

// OpenAIConfig OpenAI 兼容接口（如 HuggingFace router）的连接参数
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient 基于 go-openai 的 Provider 实现
type OpenAIClient struct {
	apiKey    string
	modelName string
	timeout   time.Duration
	client    *openai.Client
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

func NewOpenAIClient(cfg OpenAIConfig, log zerolog.Logger, m *metrics.Metrics) *OpenAIClient {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if m == nil {
		m = metrics.Nop()
	}

	if cfg.APIKey == "" {
		log.Warn().Msg("LLM API key is not set; completion calls will return no result")
	}

	return &OpenAIClient{
		apiKey:    cfg.APIKey,
		modelName: cfg.Model,
		timeout:   timeout,
		client:    openai.NewClientWithConfig(config),
		log:       log.With().Str("component", "llm").Logger(),
		metrics:   m,
	}
}

func (o *OpenAIClient) DefaultModel() string {
	return o.modelName
}

func (o *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, bool) {
	model := req.Model
	if model == "" {
		model = o.modelName
	}

	if o.apiKey == "" {
		o.log.Error().Str("model", model).Msg("LLM API key is not set, skipping completion call")
		o.metrics.Completions.WithLabelValues(metrics.OutcomeNoCredentials).Inc()
		return "", false
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	sysMsg := req.SystemMessage
	if sysMsg == "" {
		sysMsg = DefaultSystemMessage
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sysMsg},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	o.metrics.CompletionLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		kind := classifyError(err)
		o.metrics.Completions.WithLabelValues(kind).Inc()
		switch kind {
		case metrics.OutcomeAuth:
			o.log.Error().Err(err).Str("model", model).
				Msg("authentication error calling model; check that the API key is valid and has the correct permissions")
		case metrics.OutcomeModelNotFound:
			o.log.Error().Err(err).Str("model", model).Msg("model not found; check the model name")
		default:
			o.log.Error().Err(err).Str("model", model).Msg("error calling model")
		}
		return "", false
	}

	if len(resp.Choices) == 0 {
		o.metrics.Completions.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return "", false
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		o.metrics.Completions.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return "", false
	}
	if IsRefusal(text) {
		o.log.Warn().Str("model", model).Str("response", truncate(text, 100)).Msg("model refused to respond")
		o.metrics.Completions.WithLabelValues(metrics.OutcomeRefused).Inc()
		return "", false
	}

	o.metrics.Completions.WithLabelValues(metrics.OutcomeOK).Inc()
	return text, true
}

// classifyError 仅用于日志和指标分类，不影响返回值
func classifyError(err error) string {
	var status int
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusUnauthorized:
		return metrics.OutcomeAuth
	case http.StatusNotFound:
		return metrics.OutcomeModelNotFound
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(msg, "401") || strings.Contains(msg, "Unauthorized") || strings.Contains(lower, "credentials") {
		return metrics.OutcomeAuth
	}
	if strings.Contains(msg, "404") || strings.Contains(lower, "not found") {
		return metrics.OutcomeModelNotFound
	}
	return metrics.OutcomeGeneric
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
