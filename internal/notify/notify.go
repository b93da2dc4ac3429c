package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/common"
	"studenthub-backend/internal/models"
)

// ErrNoChannel 接收方没有可用的通知渠道
var ErrNoChannel = errors.New("no notification channel for recipient")

// Recipient 提醒接收人，ChatID 为 0 表示未绑定 Telegram
type Recipient struct {
	UserID   string
	Name     string
	Language models.Language
	ChatID   int64
}

type Notifier interface {
	// AlertCounselors 把危机告警推送给值班咨询师
	AlertCounselors(ctx context.Context, alert *models.CrisisAlert, student *models.User) error
	Remind(ctx context.Context, to Recipient, text string) error
}

// CounselorAlertText 告警消息正文
func CounselorAlertText(alert *models.CrisisAlert, student *models.User) string {
	name := alert.UserID
	campus := ""
	if student != nil {
		name = student.Name
		campus = student.Campus
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Crisis alert [%s]\n", strings.ToUpper(string(alert.Severity)))
	fmt.Fprintf(&b, "Student: %s", name)
	if campus != "" {
		fmt.Fprintf(&b, " (%s)", campus)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Source: %s\n", alert.TriggerType)
	fmt.Fprintf(&b, "Detail: %s\n", alert.Message)
	fmt.Fprintf(&b, "Time: %s\n", alert.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Alert ID: %s", alert.ID)
	return b.String()
}

// MoodReminderText 每日心情打卡提醒
func MoodReminderText(lang models.Language) string {
	if lang.Normalize() == models.LangHI {
		return "आज आपने अपना मूड दर्ज नहीं किया है। अपनी स्ट्रीक बनाए रखने के लिए कुछ सेकंड निकालें।"
	}
	return "You haven't logged your mood today. Take a few seconds to check in and keep your streak going."
}

// AppointmentReminderText 预约提醒
func AppointmentReminderText(appt *models.Appointment, counselor string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("Reminder: your session with %s is at %s (%d min). Need help now? Call %s.",
		counselor, appt.ScheduledAt.In(loc).Format("Mon 02 Jan 15:04"), appt.Duration, common.HotlineNumber)
}

// LogNotifier 未配置 Telegram 时使用，只记录日志
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AlertCounselors(_ context.Context, alert *models.CrisisAlert, _ *models.User) error {
	n.logger.Warn("Crisis alert raised, no counselor channel configured",
		zap.String("alertID", alert.ID),
		zap.String("userID", alert.UserID),
		zap.String("severity", string(alert.Severity)),
		zap.String("trigger", string(alert.TriggerType)),
	)
	return ErrNoChannel
}

func (n *LogNotifier) Remind(_ context.Context, to Recipient, text string) error {
	n.logger.Info("Reminder not delivered, no channel configured",
		zap.String("userID", to.UserID),
		zap.String("text", text),
	)
	return ErrNoChannel
}
