package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
)

// Export 用户数据导出
type Export struct {
	User         *models.User          `json:"user"`
	ExportedAt   time.Time             `json:"exportedAt"`
	Moods        []models.MoodEntry    `json:"moods"`
	Journals     []models.JournalEntry `json:"journals"`
	QuizResults  []models.QuizResult   `json:"quizResults"`
	Progress     *models.UserProgress  `json:"progress"`
	Appointments []models.Appointment  `json:"appointments"`
	Settings     *models.Settings      `json:"settings"`
	Chats        []models.ChatRecord   `json:"chats"`
}

type AccountService struct {
	store        store.Store
	journals     *JournalService
	appointments *AppointmentService
	settings     *SettingsService
	progress     *ProgressService
	logger       *zap.Logger
	now          func() time.Time
}

func NewAccountService(s store.Store, journals *JournalService, appointments *AppointmentService, settings *SettingsService,
	progress *ProgressService, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:        s,
		journals:     journals,
		appointments: appointments,
		settings:     settings,
		progress:     progress,
		logger:       logger,
		now:          time.Now,
	}
}

// Export 日记和预约备注以明文导出
func (s *AccountService) Export(ctx context.Context, user *models.User) (*Export, error) {
	out := &Export{User: user, ExportedAt: s.now()}
	var err error
	if out.Moods, err = s.store.ListMoods(ctx, user.ID, "", "9999-12-31"); err != nil {
		return nil, fmt.Errorf("failed to export moods: %w", err)
	}
	if out.Journals, err = s.journals.List(ctx, user.ID, ""); err != nil {
		return nil, err
	}
	if out.QuizResults, err = s.store.ListQuizResults(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to export quiz results: %w", err)
	}
	if out.Progress, err = s.progress.Get(ctx, user.ID); err != nil {
		return nil, err
	}
	appts, err := s.appointments.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	out.Appointments = append(appts.Upcoming, appts.Past...)
	if out.Settings, err = s.settings.Get(ctx, user); err != nil {
		return nil, err
	}
	if out.Chats, err = s.store.ListChats(ctx, user.ID, 0); err != nil {
		return nil, fmt.Errorf("failed to export chats: %w", err)
	}
	return out, nil
}

// DeleteAll 删除用户的个人数据
// 危机告警和论坛帖子保留：前者是咨询师的处置记录，后者已公开且可匿名
func (s *AccountService) DeleteAll(ctx context.Context, userID string) error {
	steps := []struct {
		name string
		fn   func(context.Context, string) error
	}{
		{"moods", s.store.DeleteMoods},
		{"journals", s.store.DeleteJournals},
		{"quiz results", s.store.DeleteQuizResults},
		{"progress", s.store.DeleteProgress},
		{"appointments", s.store.DeleteAppointments},
		{"settings", s.store.DeleteSettings},
		{"chats", s.store.DeleteChats},
	}
	for _, step := range steps {
		if err := step.fn(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.name, err)
		}
	}
	s.logger.Info("User data deleted", zap.String("userID", userID))
	return nil
}
