package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"studenthub-backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

// 各类数据的存储键，沿用前端 localStorage 时代的命名
const ForumThreadsKey = "forum-threads"

func MoodKey(day string) string            { return "mood-" + day }
func ProgressKey(userID string) string     { return "progress-" + userID }
func JournalKey(userID string) string      { return "journal-" + userID }
func QuizResultsKey(userID string) string  { return "quiz-results-" + userID }
func AppointmentsKey(userID string) string { return "appointments-" + userID }
func SettingsKey(userID string) string     { return "settings-" + userID }

// NewID 生成记录ID
func NewID() string {
	return uuid.New().String()
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	TouchUser(ctx context.Context, id string, at time.Time) error
}

// MoodStore 每个用户每天一条，同一天重复写入覆盖
type MoodStore interface {
	// UpsertMood 返回 created=false 表示覆盖了当天已有记录
	UpsertMood(ctx context.Context, entry *models.MoodEntry) (created bool, err error)
	GetMood(ctx context.Context, userID, day string) (*models.MoodEntry, error)
	// ListMoods 返回 [fromDay, toDay] 内的记录，按日期倒序
	ListMoods(ctx context.Context, userID, fromDay, toDay string) ([]models.MoodEntry, error)
	DeleteMoods(ctx context.Context, userID string) error
}

type JournalStore interface {
	CreateJournal(ctx context.Context, entry *models.JournalEntry) error
	ListJournals(ctx context.Context, userID string) ([]models.JournalEntry, error)
	DeleteJournals(ctx context.Context, userID string) error
}

type QuizStore interface {
	CreateQuizResult(ctx context.Context, result *models.QuizResult) error
	ListQuizResults(ctx context.Context, userID string) ([]models.QuizResult, error)
	DeleteQuizResults(ctx context.Context, userID string) error
}

// ProgressStore AddPoints 必须是原子的，并发累加不能丢失
type ProgressStore interface {
	// GetProgress 没有记录时返回初始进度（0分，1级）
	GetProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
	// SaveProgressStats 更新连续天数、徽章和等级，不改动积分
	SaveProgressStats(ctx context.Context, progress *models.UserProgress) error
	DeleteProgress(ctx context.Context, userID string) error
}

type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.CrisisAlert) error
	GetAlert(ctx context.Context, id string) (*models.CrisisAlert, error)
	UpdateAlert(ctx context.Context, alert *models.CrisisAlert) error
	// ListAlerts status 为空时返回全部，按时间倒序
	ListAlerts(ctx context.Context, status models.AlertStatus) ([]models.CrisisAlert, error)
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, appt *models.Appointment) error
	ListAppointments(ctx context.Context, studentID string) ([]models.Appointment, error)
	ListCounselorAppointments(ctx context.Context, counselorID string, from, to time.Time) ([]models.Appointment, error)
	// ListPendingReminders 返回 [from, to) 内尚未提醒的已预约记录
	ListPendingReminders(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	ListAllAppointments(ctx context.Context) ([]models.Appointment, error)
	DeleteAppointments(ctx context.Context, studentID string) error
}

type ForumStore interface {
	CreateThread(ctx context.Context, thread *models.ForumThread) error
	GetThread(ctx context.Context, id string) (*models.ForumThread, error)
	ListThreads(ctx context.Context) ([]models.ForumThread, error)
	AddReply(ctx context.Context, reply *models.ForumReply) error
	UpvoteThread(ctx context.Context, id string) (int, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
	DeleteSettings(ctx context.Context, userID string) error
}

type ChatStore interface {
	AppendChat(ctx context.Context, record *models.ChatRecord) error
	// ListChats 返回最近 limit 条，按时间正序；limit<=0 返回全部
	ListChats(ctx context.Context, userID string, limit int) ([]models.ChatRecord, error)
	CountUserChatsSince(ctx context.Context, userID string, since time.Time) (int, error)
	DeleteChats(ctx context.Context, userID string) error
}

// Store 业务层依赖的全部存储能力
type Store interface {
	UserStore
	MoodStore
	JournalStore
	QuizStore
	ProgressStore
	AlertStore
	AppointmentStore
	ForumStore
	SettingsStore
	ChatStore
}

// WithProgress 用独立的进度存储（如 Redis）替换 base 中的进度读写
func WithProgress(base Store, progress ProgressStore) Store {
	return &progressOverride{Store: base, progress: progress}
}

type progressOverride struct {
	Store
	progress ProgressStore
}

func (s *progressOverride) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	return s.progress.GetProgress(ctx, userID)
}

func (s *progressOverride) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	return s.progress.AddPoints(ctx, userID, delta)
}

func (s *progressOverride) SaveProgressStats(ctx context.Context, progress *models.UserProgress) error {
	return s.progress.SaveProgressStats(ctx, progress)
}

func (s *progressOverride) DeleteProgress(ctx context.Context, userID string) error {
	return s.progress.DeleteProgress(ctx, userID)
}
