package models

import (
	"time"
)

type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

type Language string

const (
	LangEN Language = "en"
	LangHI Language = "hi"
)

// Normalize 未识别的语言一律回落到英文
func (l Language) Normalize() Language {
	if l == LangHI {
		return LangHI
	}
	return LangEN
}

type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Email        string    `gorm:"size:128;uniqueIndex" json:"email"`
	Name         string    `gorm:"size:64" json:"name"`
	Role         Role      `gorm:"size:16" json:"role"`
	Campus       string    `gorm:"size:64" json:"campus"`
	Language     Language  `gorm:"size:4" json:"language"`
	PasswordHash string    `gorm:"size:128" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
}

// MoodEntry 每个用户每天最多一条，Day 为配置时区下的 yyyy-mm-dd
type MoodEntry struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"size:64;uniqueIndex:idx_mood_user_day,priority:1" json:"userId"`
	Day       string    `gorm:"size:10;uniqueIndex:idx_mood_user_day,priority:2" json:"day"`
	Mood      int       `json:"mood"`
	Emoji     string    `gorm:"size:16" json:"emoji"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	IsPrivate bool      `json:"isPrivate"`
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type JournalEntry struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	UserID           string    `gorm:"size:64;index" json:"userId"`
	Title            string    `gorm:"size:256" json:"title"`
	Content          string    `gorm:"type:text" json:"content"`
	Sentiment        Sentiment `gorm:"size:16" json:"sentiment"`
	FlagForCounselor bool      `json:"flagForCounselor"`
	IsEncrypted      bool      `json:"isEncrypted"`
	CreatedAt        time.Time `json:"createdAt"`
}

type QuizType string

const (
	QuizPHQ9       QuizType = "PHQ-9"
	QuizGAD7       QuizType = "GAD-7"
	QuizSleepIndex QuizType = "Sleep-Index"
)

type Severity string

const (
	SeverityMinimal  Severity = "minimal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// QuizResult Responses: 题目下标 -> 作答分值(0..3)
type QuizResult struct {
	ID                  string      `gorm:"primaryKey;size:64" json:"id"`
	UserID              string      `gorm:"size:64;index" json:"userId"`
	QuizType            QuizType    `gorm:"size:16" json:"quizType"`
	Score               int         `json:"score"`
	Severity            Severity    `gorm:"size:16" json:"severity"`
	Responses           map[int]int `gorm:"serializer:json" json:"responses"`
	CompletedAt         time.Time   `json:"completedAt"`
	EscalationTriggered bool        `json:"escalationTriggered"`
}

type Badge struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
	PointsRequired int    `json:"pointsRequired"`
	StreakRequired int    `json:"streakRequired,omitempty"`
	Category       string `json:"category"`
}

// UserProgress Badges 只存徽章ID
type UserProgress struct {
	UserID        string    `gorm:"primaryKey;size:64" json:"userId"`
	TotalPoints   int       `json:"totalPoints"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	Badges        []string  `gorm:"serializer:json" json:"badges"`
	Level         int       `json:"level"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type TriggerType string

const (
	TriggerQuiz    TriggerType = "quiz"
	TriggerJournal TriggerType = "journal"
	TriggerChat    TriggerType = "chat"
	TriggerMood    TriggerType = "mood"
)

type AlertSeverity string

const (
	AlertModerate AlertSeverity = "moderate"
	AlertHigh     AlertSeverity = "high"
	AlertCritical AlertSeverity = "critical"
)

type AlertStatus string

const (
	AlertPending      AlertStatus = "pending"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

type CrisisAlert struct {
	ID                string        `gorm:"primaryKey;size:64" json:"id"`
	UserID            string        `gorm:"size:64;index" json:"userId"`
	TriggerType       TriggerType   `gorm:"size:16" json:"triggerType"`
	Severity          AlertSeverity `gorm:"size:16" json:"severity"`
	Message           string        `gorm:"type:text" json:"message"`
	Status            AlertStatus   `gorm:"size:16;index" json:"status"`
	Resolved          bool          `json:"resolved"`
	CounselorNotified bool          `json:"counselorNotified"`
	AssignedTo        string        `gorm:"size:64" json:"assignedTo,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no-show"
)

type Appointment struct {
	ID           string            `gorm:"primaryKey;size:64" json:"id"`
	StudentID    string            `gorm:"size:64;index" json:"studentId"`
	CounselorID  string            `gorm:"size:64;index" json:"counselorId"`
	ScheduledAt  time.Time         `gorm:"index" json:"scheduledAt"`
	Duration     int               `json:"duration"`
	Status       AppointmentStatus `gorm:"size:16" json:"status"`
	Notes        string            `gorm:"type:text" json:"notes,omitempty"`
	IsEncrypted  bool              `json:"isEncrypted"`
	ReminderSent bool              `json:"reminderSent"`
}

// Counselor 咨询师目录为静态数据，Availability 为可预约的星期（英文全称）
type Counselor struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Specialties  []string `json:"specialties"`
	Availability []string `json:"availability"`
	Rating       float64  `json:"rating"`
	Languages    []string `json:"languages"`
}

type ForumThread struct {
	ID          string       `gorm:"primaryKey;size:64" json:"id"`
	AuthorID    string       `gorm:"size:64;index" json:"authorId"`
	Title       string       `gorm:"size:256" json:"title"`
	Content     string       `gorm:"type:text" json:"content"`
	IsAnonymous bool         `json:"isAnonymous"`
	Category    string       `gorm:"size:64;index" json:"category"`
	Replies     []ForumReply `gorm:"foreignKey:ThreadID" json:"replies"`
	Upvotes     int          `json:"upvotes"`
	IsModerated bool         `json:"isModerated"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type ForumReply struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	ThreadID    string    `gorm:"size:64;index" json:"threadId"`
	AuthorID    string    `gorm:"size:64" json:"authorId"`
	Content     string    `gorm:"type:text" json:"content"`
	IsAnonymous bool      `json:"isAnonymous"`
	Upvotes     int       `json:"upvotes"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Settings struct {
	UserID               string    `gorm:"primaryKey;size:64" json:"userId"`
	DataSharing          bool      `json:"dataSharing"`
	AnonymousMode        bool      `json:"anonymousMode"`
	EncryptJournal       bool      `json:"encryptJournal"`
	ShareWithCounselors  bool      `json:"shareWithCounselors"`
	EmailNotifications   bool      `json:"emailNotifications"`
	PushNotifications    bool      `json:"pushNotifications"`
	AppointmentReminders bool      `json:"appointmentReminders"`
	ForumReplies         bool      `json:"forumReplies"`
	MoodReminders        bool      `json:"moodReminders"`
	TelegramChatID       int64     `json:"telegramChatId,omitempty"`
	DisplayName          string    `gorm:"size:64" json:"displayName"`
	Campus               string    `gorm:"size:64" json:"campus"`
	Year                 string    `gorm:"size:16" json:"year"`
	DarkMode             bool      `json:"darkMode"`
	Language             Language  `gorm:"size:4" json:"language"`
	AutoSave             bool      `json:"autoSave"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// DefaultSettings 新用户的默认设置
func DefaultSettings(user *User) Settings {
	s := Settings{
		EncryptJournal:       true,
		EmailNotifications:   true,
		PushNotifications:    true,
		AppointmentReminders: true,
		ForumReplies:         true,
		MoodReminders:        true,
		Language:             LangEN,
		AutoSave:             true,
	}
	if user != nil {
		s.UserID = user.ID
		s.DisplayName = user.Name
		s.Campus = user.Campus
		s.Language = user.Language.Normalize()
	}
	return s
}

// ChatRecord 聊天记录表
// is_user: true 表示用户发言，false 表示AI回复
// crisis: 用户发言命中危机关键词
type ChatRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index" json:"userId"`
	Content   string    `gorm:"type:text" json:"content"`
	IsUser    bool      `json:"isUser"`
	Crisis    bool      `json:"crisis"`
	CreatedAt time.Time `json:"createdAt"`
}
