package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

const activeUserWindow = 7 * 24 * time.Hour

type Stats struct {
	TotalUsers        int     `json:"totalUsers"`
	ActiveUsers       int     `json:"activeUsers"`
	TotalSessions     int     `json:"totalSessions"`
	CrisisAlerts      int     `json:"crisisAlerts"`
	ForumPosts        int     `json:"forumPosts"`
	AppointmentsToday int     `json:"appointmentsToday"`
	AvgMoodScore      float64 `json:"avgMoodScore"`
	CompletionRate    float64 `json:"completionRate"`
}

type AdminService struct {
	store  store.Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

func NewAdminService(s store.Store, loc *time.Location, logger *zap.Logger) *AdminService {
	if loc == nil {
		loc = time.Local
	}
	return &AdminService{store: s, loc: loc, logger: logger, now: time.Now}
}

// Stats 管理端汇总数据
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	stats := &Stats{}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	stats.TotalUsers = len(users)
	from, to := wellness.DayBefore(now, moodHistoryDays-1, s.loc), wellness.DayKey(now, s.loc)
	moodTotal, moodCount := 0, 0
	for _, u := range users {
		if now.Sub(u.LastActive) <= activeUserWindow {
			stats.ActiveUsers++
		}
		moods, err := s.store.ListMoods(ctx, u.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to list moods: %w", err)
		}
		for _, m := range moods {
			moodTotal += m.Mood
			moodCount++
		}
	}
	if moodCount > 0 {
		stats.AvgMoodScore = round1(float64(moodTotal) / float64(moodCount))
	}

	alerts, err := s.store.ListAlerts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	for _, a := range alerts {
		if a.Status != models.AlertResolved {
			stats.CrisisAlerts++
		}
	}

	threads, err := s.store.ListThreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	stats.ForumPosts = len(threads)

	appts, err := s.store.ListAllAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	completed, noShow := 0, 0
	for _, a := range appts {
		switch a.Status {
		case models.AppointmentCancelled:
			continue
		case models.AppointmentCompleted:
			completed++
		case models.AppointmentNoShow:
			noShow++
		}
		stats.TotalSessions++
		if wellness.DayKey(a.ScheduledAt, s.loc) == to {
			stats.AppointmentsToday++
		}
	}
	if completed+noShow > 0 {
		stats.CompletionRate = round1(float64(completed) / float64(completed+noShow) * 100)
	}
	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
