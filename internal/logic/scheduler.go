package logic

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/notify"
	"studenthub-backend/internal/service"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

const appointmentLookahead = 24 * time.Hour

type SchedulerConfig struct {
	// 每日心情提醒时间
	ReminderHour   int
	ReminderMinute int
	// 预约提醒检查间隔
	AppointmentInterval time.Duration
	Location            *time.Location
}

// Scheduler 心情打卡提醒和预约提醒
type Scheduler struct {
	store        store.Store
	notifier     notify.Notifier
	appointments *service.AppointmentService
	cfg          SchedulerConfig
	logger       *zap.Logger
	now          func() time.Time
	wg           sync.WaitGroup
}

func NewScheduler(s store.Store, notifier notify.Notifier, appointments *service.AppointmentService, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.AppointmentInterval <= 0 {
		cfg.AppointmentInterval = 15 * time.Minute
	}
	return &Scheduler{
		store:        s,
		notifier:     notifier,
		appointments: appointments,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Start 启动定时任务，ctx 取消后退出
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting reminder scheduler",
		zap.Int("hour", s.cfg.ReminderHour),
		zap.Int("minute", s.cfg.ReminderMinute),
		zap.Duration("appointmentInterval", s.cfg.AppointmentInterval))

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		for {
			next := s.nextRun(s.now())
			wait := next.Sub(s.now())
			s.logger.Info("Next mood reminder check", zap.Time("at", next), zap.Duration("wait", wait))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.CheckAndSendMoodReminders(ctx)
			}
		}
	}()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.AppointmentInterval)
		defer ticker.Stop()
		s.SendAppointmentReminders(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SendAppointmentReminders(ctx)
			}
		}
	}()
}

// Wait 等待后台任务退出
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// nextRun 今天的提醒时间已过则顺延到明天
func (s *Scheduler) nextRun(now time.Time) time.Time {
	local := now.In(s.cfg.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.cfg.ReminderHour, s.cfg.ReminderMinute, 0, 0, s.cfg.Location)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.cfg.ReminderHour, s.cfg.ReminderMinute, 0, 0, s.cfg.Location)
	}
	return next
}

// CheckAndSendMoodReminders 提醒今天还没记录心情的学生
func (s *Scheduler) CheckAndSendMoodReminders(ctx context.Context) (reminded int) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.logger.Error("Failed to list users for mood reminders", zap.Error(err))
		return 0
	}
	today := wellness.DayKey(s.now(), s.cfg.Location)

	pending := 0
	for i := range users {
		user := &users[i]
		if user.Role != models.RoleStudent {
			continue
		}
		settings, err := s.settingsFor(ctx, user)
		if err != nil {
			s.logger.Error("Failed to load settings", zap.String("userID", user.ID), zap.Error(err))
			continue
		}
		if !settings.MoodReminders {
			continue
		}
		if _, err := s.store.GetMood(ctx, user.ID, today); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("Failed to check mood entry", zap.String("userID", user.ID), zap.Error(err))
			continue
		}

		pending++
		to := recipient(user, settings)
		if err := s.notifier.Remind(ctx, to, notify.MoodReminderText(to.Language)); err != nil {
			if !errors.Is(err, notify.ErrNoChannel) {
				s.logger.Warn("Failed to send mood reminder", zap.String("userID", user.ID), zap.Error(err))
			}
			continue
		}
		reminded++
	}
	s.logger.Info("Mood reminder check finished", zap.Int("pending", pending), zap.Int("sent", reminded))
	return reminded
}

// SendAppointmentReminders 24 小时内开始且未提醒过的预约
func (s *Scheduler) SendAppointmentReminders(ctx context.Context) (sent int) {
	now := s.now()
	appts, err := s.store.ListPendingReminders(ctx, now, now.Add(appointmentLookahead))
	if err != nil {
		s.logger.Error("Failed to list pending appointment reminders", zap.Error(err))
		return 0
	}

	for i := range appts {
		appt := &appts[i]
		student, err := s.store.GetUser(ctx, appt.StudentID)
		if err != nil {
			s.logger.Warn("Appointment student not found", zap.String("appointmentID", appt.ID), zap.Error(err))
			continue
		}
		settings, err := s.settingsFor(ctx, student)
		if err != nil {
			s.logger.Error("Failed to load settings", zap.String("userID", student.ID), zap.Error(err))
			continue
		}

		if settings.AppointmentReminders {
			counselorName := appt.CounselorID
			if c, err := s.appointments.Counselor(appt.CounselorID); err == nil {
				counselorName = c.Name
			}
			text := notify.AppointmentReminderText(appt, counselorName, s.cfg.Location)
			if err := s.notifier.Remind(ctx, recipient(student, settings), text); err != nil {
				if !errors.Is(err, notify.ErrNoChannel) {
					// 下个周期重试
					s.logger.Warn("Failed to send appointment reminder", zap.String("appointmentID", appt.ID), zap.Error(err))
					continue
				}
			} else {
				sent++
			}
		}

		appt.ReminderSent = true
		if err := s.store.UpdateAppointment(ctx, appt); err != nil {
			s.logger.Error("Failed to mark reminder sent", zap.String("appointmentID", appt.ID), zap.Error(err))
		}
	}
	if len(appts) > 0 {
		s.logger.Info("Appointment reminders processed", zap.Int("due", len(appts)), zap.Int("sent", sent))
	}
	return sent
}

func (s *Scheduler) settingsFor(ctx context.Context, user *models.User) (*models.Settings, error) {
	settings, err := s.store.GetSettings(ctx, user.ID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	def := models.DefaultSettings(user)
	return &def, nil
}

func recipient(user *models.User, settings *models.Settings) notify.Recipient {
	name := settings.DisplayName
	if name == "" {
		name = user.Name
	}
	return notify.Recipient{
		UserID:   user.ID,
		Name:     name,
		Language: settings.Language.Normalize(),
		ChatID:   settings.TelegramChatID,
	}
}
