package chatbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	v20230901 "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/hunyuan/v20230901"
	"go.uber.org/zap"
)

const (
	defaultHunyuanModel = "hunyuan-lite"
	hunyuanEndpoint     = "hunyuan.ap-guangzhou.tencentcloudapi.com"
)

// HunyuanProvider 使用腾讯云官方Go SDK，非流式
type HunyuanProvider struct {
	client *v20230901.Client
	model  string
	logger *zap.Logger
}

func NewHunyuanProvider(secretID, secretKey, model string, logger *zap.Logger) (*HunyuanProvider, error) {
	if model == "" {
		model = defaultHunyuanModel
	}
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = hunyuanEndpoint
	client, err := v20230901.NewClient(credential, "", cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to create hunyuan client: %w", err)
	}
	logger.Info("Hunyuan client initialized", zap.String("model", model))
	return &HunyuanProvider{client: client, model: model, logger: logger}, nil
}

func (p *HunyuanProvider) Name() string { return "hunyuan" }

func (p *HunyuanProvider) Reply(ctx context.Context, preamble string, history []Turn, message string) (string, error) {
	req := v20230901.NewChatCompletionsRequest()
	req.Model = common.StringPtr(p.model)
	req.Messages = hunyuanMessages(preamble, history, message)
	req.Stream = common.BoolPtr(false)

	resp, err := p.client.ChatCompletionsWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("hunyuan API error: %w", err)
	}
	if resp == nil || resp.Response == nil || len(resp.Response.Choices) == 0 {
		return "", ErrEmptyReply
	}

	var b strings.Builder
	for _, choice := range resp.Response.Choices {
		if choice.Message != nil && choice.Message.Content != nil {
			b.WriteString(*choice.Message.Content)
		}
	}
	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func hunyuanMessages(preamble string, history []Turn, message string) []*v20230901.Message {
	messages := make([]*v20230901.Message, 0, len(history)+2)
	messages = append(messages, &v20230901.Message{
		Role:    common.StringPtr("system"),
		Content: common.StringPtr(preamble),
	})
	for _, h := range history {
		role := "assistant"
		if h.IsUser() {
			role = "user"
		}
		messages = append(messages, &v20230901.Message{
			Role:    common.StringPtr(role),
			Content: common.StringPtr(h.Content),
		})
	}
	messages = append(messages, &v20230901.Message{
		Role:    common.StringPtr("user"),
		Content: common.StringPtr(message),
	})
	return messages
}
