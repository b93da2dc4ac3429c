package chatbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	langopenai "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultMaxTokens   = 512
)

// OpenAIProvider 任意 OpenAI 兼容接口（含混元的兼容地址）
type OpenAIProvider struct {
	llm       llms.Model
	maxTokens int
	logger    *zap.Logger
}

func NewOpenAIProvider(token, model, baseURL string, maxTokens int, logger *zap.Logger) (*OpenAIProvider, error) {
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []langopenai.Option{
		langopenai.WithToken(token),
		langopenai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, langopenai.WithBaseURL(baseURL))
	}
	llm, err := langopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	logger.Info("OpenAI-compatible client initialized", zap.String("model", model), zap.String("baseURL", baseURL))
	return newOpenAIProvider(llm, maxTokens, logger), nil
}

func newOpenAIProvider(llm llms.Model, maxTokens int, logger *zap.Logger) *OpenAIProvider {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAIProvider{llm: llm, maxTokens: maxTokens, logger: logger}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Reply(ctx context.Context, preamble string, history []Turn, message string) (string, error) {
	content := make([]llms.MessageContent, 0, len(history)+2)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, preamble))
	for _, h := range history {
		if h.IsUser() {
			content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, h.Content))
		} else {
			content = append(content, llms.TextParts(llms.ChatMessageTypeAI, h.Content))
		}
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, message))

	resp, err := p.llm.GenerateContent(ctx, content, llms.WithMaxTokens(p.maxTokens))
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	reply := strings.TrimSpace(resp.Choices[0].Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
