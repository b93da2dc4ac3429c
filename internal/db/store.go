package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
)

// Store 基于 gorm 的 store.Store 实现
type Store struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

var _ store.Store = (*Store)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (s *Store) TouchUser(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_active", at).Error
}

// UpsertMood 同一用户同一天只保留一条，后写覆盖
func (s *Store) UpsertMood(ctx context.Context, entry *models.MoodEntry) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.MoodEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND day = ?", entry.UserID, entry.Day).
			Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(entry).Error
		}
		if err != nil {
			return err
		}
		entry.ID = existing.ID
		return tx.Model(&existing).
			Select("mood", "emoji", "note", "timestamp", "is_private").
			Updates(entry).Error
	})
	return created, err
}

func (s *Store) GetMood(ctx context.Context, userID, day string) (*models.MoodEntry, error) {
	var e models.MoodEntry
	if err := s.db.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).Take(&e).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *Store) ListMoods(ctx context.Context, userID, fromDay, toDay string) ([]models.MoodEntry, error) {
	var entries []models.MoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day >= ? AND day <= ?", userID, fromDay, toDay).
		Order("day DESC").
		Find(&entries).Error
	return entries, err
}

func (s *Store) DeleteMoods(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.MoodEntry{}).Error
}

func (s *Store) CreateJournal(ctx context.Context, entry *models.JournalEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) ListJournals(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (s *Store) DeleteJournals(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.JournalEntry{}).Error
}

func (s *Store) CreateQuizResult(ctx context.Context, result *models.QuizResult) error {
	return s.db.WithContext(ctx).Create(result).Error
}

func (s *Store) ListQuizResults(ctx context.Context, userID string) ([]models.QuizResult, error) {
	var results []models.QuizResult
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("completed_at DESC").Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz results: %w", err)
	}
	return results, nil
}

func (s *Store) DeleteQuizResults(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.QuizResult{}).Error
}

func (s *Store) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	var p models.UserProgress
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserProgress{UserID: userID, Level: 1, Badges: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	return &p, nil
}

// AddPoints INSERT ... ON DUPLICATE KEY UPDATE total_points = total_points + ?
func (s *Store) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := models.UserProgress{UserID: userID, TotalPoints: delta, Level: 1, Badges: []string{}, UpdatedAt: now}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_points": gorm.Expr("total_points + ?", delta),
				"updated_at":   now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.UserProgress{}).
			Where("user_id = ?", userID).
			Select("total_points").
			Scan(&total).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return total, nil
}

func (s *Store) SaveProgressStats(ctx context.Context, progress *models.UserProgress) error {
	row := *progress
	row.TotalPoints = 0
	row.UpdatedAt = time.Now()
	if row.Badges == nil {
		row.Badges = []string{}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_streak", "longest_streak", "badges", "level", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) DeleteProgress(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserProgress{}).Error
}

func (s *Store) CreateAlert(ctx context.Context, alert *models.CrisisAlert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *Store) GetAlert(ctx context.Context, id string) (*models.CrisisAlert, error) {
	var a models.CrisisAlert
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) UpdateAlert(ctx context.Context, alert *models.CrisisAlert) error {
	return s.db.WithContext(ctx).Model(&models.CrisisAlert{}).Where("id = ?", alert.ID).
		Select("status", "resolved", "counselor_notified", "assigned_to", "updated_at").
		Updates(alert).Error
}

func (s *Store) ListAlerts(ctx context.Context, status models.AlertStatus) ([]models.CrisisAlert, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var alerts []models.CrisisAlert
	err := q.Find(&alerts).Error
	return alerts, err
}

func (s *Store) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Create(appt).Error
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) UpdateAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", appt.ID).
		Select("status", "notes", "reminder_sent").
		Updates(appt).Error
}

func (s *Store) ListAppointments(ctx context.Context, studentID string) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Order("scheduled_at").Find(&appts).Error
	return appts, err
}

func (s *Store) ListCounselorAppointments(ctx context.Context, counselorID string, from, to time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Where("counselor_id = ? AND scheduled_at >= ? AND scheduled_at < ?", counselorID, from, to).
		Order("scheduled_at").
		Find(&appts).Error
	return appts, err
}

func (s *Store) ListPendingReminders(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = ? AND scheduled_at >= ? AND scheduled_at < ?",
			models.AppointmentScheduled, false, from, to).
		Order("scheduled_at").
		Find(&appts).Error
	return appts, err
}

func (s *Store) ListAllAppointments(ctx context.Context) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.db.WithContext(ctx).Order("scheduled_at").Find(&appts).Error
	return appts, err
}

func (s *Store) DeleteAppointments(ctx context.Context, studentID string) error {
	return s.db.WithContext(ctx).Where("student_id = ?", studentID).Delete(&models.Appointment{}).Error
}

func (s *Store) CreateThread(ctx context.Context, thread *models.ForumThread) error {
	return s.db.WithContext(ctx).Create(thread).Error
}

func (s *Store) GetThread(ctx context.Context, id string) (*models.ForumThread, error) {
	var t models.ForumThread
	err := s.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Where("id = ?", id).
		Take(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) ListThreads(ctx context.Context) ([]models.ForumThread, error) {
	var threads []models.ForumThread
	err := s.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Order("created_at DESC").
		Find(&threads).Error
	return threads, err
}

func (s *Store) AddReply(ctx context.Context, reply *models.ForumReply) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ForumThread{}).Where("id = ?", reply.ThreadID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return store.ErrNotFound
		}
		return tx.Create(reply).Error
	})
}

func (s *Store) UpvoteThread(ctx context.Context, id string) (int, error) {
	var upvotes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ForumThread{}).Where("id = ?", id).
			UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Model(&models.ForumThread{}).Where("id = ?", id).Select("upvotes").Scan(&upvotes).Error
	})
	return upvotes, err
}

func (s *Store) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	var st models.Settings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&st).Error; err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) error {
	return s.db.WithContext(ctx).Save(settings).Error
}

func (s *Store) DeleteSettings(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Settings{}).Error
}

func (s *Store) AppendChat(ctx context.Context, record *models.ChatRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *Store) ListChats(ctx context.Context, userID string, limit int) ([]models.ChatRecord, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var records []models.ChatRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	// 倒序取出后翻转为时间正序
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (s *Store) CountUserChatsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatRecord{}).
		Where("user_id = ? AND is_user = ? AND created_at >= ?", userID, true, since).
		Count(&count).Error
	return int(count), err
}

func (s *Store) DeleteChats(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ChatRecord{}).Error
}
