package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studenthub-backend/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func testAlert() *models.CrisisAlert {
	return &models.CrisisAlert{
		ID:          "alert-1",
		UserID:      "student-123",
		TriggerType: models.TriggerChat,
		Severity:    models.AlertCritical,
		Message:     "Crisis keywords detected in chat",
		CreatedAt:   time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC),
	}
}

// 测试告警消息内容
func TestCounselorAlertText(t *testing.T) {
	text := CounselorAlertText(testAlert(), &models.User{Name: "Alex Student", Campus: "IIT Delhi"})
	assert.Contains(t, text, "CRITICAL")
	assert.Contains(t, text, "Alex Student (IIT Delhi)")
	assert.Contains(t, text, "2024-03-15 21:00:00")

	text = CounselorAlertText(testAlert(), nil)
	assert.Contains(t, text, "student-123")
}

// 测试 Telegram 发送告警
func TestTelegramAlertCounselors(t *testing.T) {
	fake := &fakeSender{}
	n := newTelegramNotifier(fake, -1001, zap.NewNop())

	require.NoError(t, n.AlertCounselors(context.Background(), testAlert(), nil))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, int64(-1001), fake.sent[0].ChatID)

	fake.err = errors.New("network down")
	assert.Error(t, n.AlertCounselors(context.Background(), testAlert(), nil))

	none := newTelegramNotifier(&fakeSender{}, 0, zap.NewNop())
	assert.ErrorIs(t, none.AlertCounselors(context.Background(), testAlert(), nil), ErrNoChannel)
}

// 测试未绑定会话的提醒
func TestTelegramRemind(t *testing.T) {
	fake := &fakeSender{}
	n := newTelegramNotifier(fake, -1001, zap.NewNop())

	err := n.Remind(context.Background(), Recipient{UserID: "u1"}, "hi")
	assert.ErrorIs(t, err, ErrNoChannel)

	require.NoError(t, n.Remind(context.Background(), Recipient{UserID: "u1", ChatID: 42}, MoodReminderText(models.LangEN)))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, int64(42), fake.sent[0].ChatID)
}

// 测试日志通知器
func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(zap.NewNop())
	assert.ErrorIs(t, n.AlertCounselors(context.Background(), testAlert(), nil), ErrNoChannel)
	assert.ErrorIs(t, n.Remind(context.Background(), Recipient{UserID: "u1"}, "x"), ErrNoChannel)
}

// 测试预约提醒文本
func TestAppointmentReminderText(t *testing.T) {
	appt := &models.Appointment{ScheduledAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), Duration: 60}
	text := AppointmentReminderText(appt, "Dr. Sarah Counselor", time.UTC)
	assert.Contains(t, text, "Dr. Sarah Counselor")
	assert.Contains(t, text, "Fri 15 Mar 10:30")
	assert.Contains(t, text, "1800-599-0019")
}
