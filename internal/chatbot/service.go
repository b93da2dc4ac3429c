package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"studenthub-backend/internal/common"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

var (
	ErrMissingMessage = errors.New("missing message")
	ErrMessageTooLong = errors.New("message too long")
	ErrDailyLimit     = errors.New("daily chat limit reached")
	ErrUpstream       = errors.New("chat model error")
)

// AlertRaiser 危机告警入口
type AlertRaiser interface {
	Raise(ctx context.Context, userID string, trigger models.TriggerType, severity models.AlertSeverity, message string) (*models.CrisisAlert, error)
}

type Request struct {
	Message  string          `json:"message"`
	History  []Turn          `json:"history"`
	Language models.Language `json:"language"`
}

type Hotline struct {
	Number string `json:"number"`
	Label  string `json:"label"`
}

type Reply struct {
	Reply   string   `json:"reply"`
	Crisis  bool     `json:"crisis,omitempty"`
	Hotline *Hotline `json:"hotline,omitempty"`
	AlertID string   `json:"alertId,omitempty"`
}

type Options struct {
	MaxPerDay int
	MaxRunes  int
	Location  *time.Location
}

type Service struct {
	provider Provider
	chats    store.ChatStore
	detector *wellness.CrisisDetector
	alerts   AlertRaiser
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewService provider 为 nil 表示未配置模型，普通消息返回 ErrNotConfigured
func NewService(provider Provider, chats store.ChatStore, detector *wellness.CrisisDetector, alerts AlertRaiser, opts Options, logger *zap.Logger) *Service {
	if opts.MaxPerDay <= 0 {
		opts.MaxPerDay = 30
	}
	if opts.MaxRunes <= 0 {
		opts.MaxRunes = 1000
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		provider: provider,
		chats:    chats,
		detector: detector,
		alerts:   alerts,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Chat(ctx context.Context, user *models.User, req Request) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrMissingMessage
	}
	if utf8.RuneCountInString(message) > s.opts.MaxRunes {
		return nil, fmt.Errorf("%w: at most %d characters", ErrMessageTooLong, s.opts.MaxRunes)
	}

	lang := req.Language
	if lang == "" {
		lang = user.Language
	}
	lang = lang.Normalize()

	now := s.now().In(s.opts.Location)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.opts.Location)
	count, err := s.chats.CountUserChatsSince(ctx, user.ID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to count chats: %w", err)
	}
	if count >= s.opts.MaxPerDay {
		return nil, ErrDailyLimit
	}

	crisis := s.detector.Detect(message)
	if s.provider == nil && !crisis {
		return nil, ErrNotConfigured
	}

	history, err := s.history(ctx, user.ID, req.History)
	if err != nil {
		return nil, err
	}

	if err := s.chats.AppendChat(ctx, &models.ChatRecord{
		UserID:  user.ID,
		Content: message,
		IsUser:  true,
		Crisis:  crisis,
	}); err != nil {
		return nil, fmt.Errorf("failed to save chat: %w", err)
	}

	reply := &Reply{}
	if crisis {
		reply.Crisis = true
		reply.Hotline = &Hotline{Number: common.HotlineNumber, Label: common.HotlineLabel(lang)}
		if s.alerts != nil {
			alert, err := s.alerts.Raise(ctx, user.ID, models.TriggerChat, models.AlertCritical, "Crisis keywords detected in chat message")
			if err != nil {
				s.logger.Error("Failed to raise chat crisis alert", zap.String("userID", user.ID), zap.Error(err))
			} else {
				reply.AlertID = alert.ID
			}
		}
	}

	if s.provider != nil {
		text, err := s.provider.Reply(ctx, common.RolePrompt(lang), history, message)
		if err != nil {
			s.logger.Error("Chat model call failed",
				zap.String("provider", s.provider.Name()),
				zap.String("userID", user.ID),
				zap.Error(err))
			if !crisis {
				return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
			}
		} else {
			reply.Reply = text
		}
	}
	if reply.Reply == "" {
		reply.Reply = common.CrisisReply(lang)
	}

	if err := s.chats.AppendChat(ctx, &models.ChatRecord{UserID: user.ID, Content: reply.Reply}); err != nil {
		s.logger.Error("Failed to save chat reply", zap.String("userID", user.ID), zap.Error(err))
	}
	return reply, nil
}

// history 请求自带历史优先，否则取已存储的最近记录
func (s *Service) history(ctx context.Context, userID string, requested []Turn) ([]Turn, error) {
	if len(requested) > 0 {
		if len(requested) > common.ChatHistoryWindow {
			requested = requested[len(requested)-common.ChatHistoryWindow:]
		}
		return requested, nil
	}

	records, err := s.chats.ListChats(ctx, userID, common.ChatHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	turns := make([]Turn, 0, len(records))
	for _, r := range records {
		sender := "bot"
		if r.IsUser {
			sender = "user"
		}
		turns = append(turns, Turn{Sender: sender, Content: r.Content})
	}
	return turns, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]models.ChatRecord, error) {
	return s.chats.ListChats(ctx, userID, 0)
}

// Configured 是否配置了模型
func (s *Service) Configured() bool {
	return s.provider != nil
}
