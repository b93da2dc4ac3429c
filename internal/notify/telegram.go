package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studenthub-backend/internal/models"
)

// sender *tgbotapi.BotAPI 的发送能力，便于测试替换
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier 告警发到咨询师群，提醒发到学生绑定的会话
type TelegramNotifier struct {
	api             sender
	counselorChatID int64
	logger          *zap.Logger
}

func NewTelegramNotifier(token string, counselorChatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))
	return newTelegramNotifier(botAPI, counselorChatID, logger), nil
}

func newTelegramNotifier(api sender, counselorChatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{api: api, counselorChatID: counselorChatID, logger: logger}
}

func (n *TelegramNotifier) AlertCounselors(_ context.Context, alert *models.CrisisAlert, student *models.User) error {
	if n.counselorChatID == 0 {
		return ErrNoChannel
	}
	msg := tgbotapi.NewMessage(n.counselorChatID, CounselorAlertText(alert, student))
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send crisis alert", zap.String("alertID", alert.ID), zap.Error(err))
		return fmt.Errorf("failed to send crisis alert: %w", err)
	}
	n.logger.Info("Crisis alert sent to counselors", zap.String("alertID", alert.ID))
	return nil
}

func (n *TelegramNotifier) Remind(_ context.Context, to Recipient, text string) error {
	if to.ChatID == 0 {
		return ErrNoChannel
	}
	if _, err := n.api.Send(tgbotapi.NewMessage(to.ChatID, text)); err != nil {
		return fmt.Errorf("failed to send reminder to %s: %w", to.UserID, err)
	}
	return nil
}
