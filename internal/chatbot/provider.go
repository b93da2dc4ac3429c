package chatbot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("chat provider not configured")
	ErrEmptyReply    = errors.New("empty reply from model")
)

// Turn 一条历史消息，sender 为 user 或 bot
type Turn struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

func (t Turn) IsUser() bool {
	return t.Sender == "user"
}

// Provider 大模型调用，一次请求一次应答，不做重试
type Provider interface {
	Name() string
	Reply(ctx context.Context, preamble string, history []Turn, message string) (string, error)
}

type ProviderConfig struct {
	Name string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIToken   string
	OpenAIModel   string
	OpenAIBaseURL string

	TencentSecretID  string
	TencentSecretKey string
	HunyuanModel     string

	MaxTokens int
}

// NewProvider 按配置创建模型客户端，缺少凭据时返回 ErrNotConfigured
func NewProvider(ctx context.Context, cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Name {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: missing GOOGLE_GEMINI_API_KEY", ErrNotConfigured)
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens, logger)
	case "openai":
		if cfg.OpenAIToken == "" {
			return nil, fmt.Errorf("%w: missing OPENAI_TOKEN", ErrNotConfigured)
		}
		return NewOpenAIProvider(cfg.OpenAIToken, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.MaxTokens, logger)
	case "hunyuan":
		if cfg.TencentSecretID == "" || cfg.TencentSecretKey == "" {
			return nil, fmt.Errorf("%w: missing TENCENTCLOUD_SECRETID/TENCENTCLOUD_SECRETKEY", ErrNotConfigured)
		}
		return NewHunyuanProvider(cfg.TencentSecretID, cfg.TencentSecretKey, cfg.HunyuanModel, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Name)
	}
}
