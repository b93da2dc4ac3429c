package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/chatbot"
	"studenthub-backend/internal/common"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

// 连续低落天数达到该值时生成告警
const lowMoodAlertDays = 3

const moodHistoryDays = 30

type MoodLogResult struct {
	Entry         *models.MoodEntry    `json:"entry"`
	Created       bool                 `json:"created"`
	CurrentStreak int                  `json:"currentStreak"`
	PointsAwarded int                  `json:"pointsAwarded"`
	Progress      *models.UserProgress `json:"progress,omitempty"`
}

type MoodSummary struct {
	Average float64 `json:"average"`
	Entries int     `json:"entries"`
	Days    int     `json:"days"`
}

type MoodService struct {
	store    store.MoodStore
	progress *ProgressService
	alerts   chatbot.AlertRaiser
	streaks  *wellness.StreakCalculator
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewMoodService(s store.MoodStore, progress *ProgressService, alerts chatbot.AlertRaiser, streaks *wellness.StreakCalculator, logger *zap.Logger) *MoodService {
	if streaks == nil {
		streaks = wellness.NewStreakCalculator(0, nil)
	}
	return &MoodService{
		store:    s,
		progress: progress,
		alerts:   alerts,
		streaks:  streaks,
		loc:      streaks.Location,
		logger:   logger,
		now:      time.Now,
	}
}

// Log 记录今天的心情，同一天重复记录覆盖且不重复加分
func (s *MoodService) Log(ctx context.Context, userID string, mood int, note string, isPrivate bool) (*MoodLogResult, error) {
	if mood < 1 || mood > len(common.MoodEmojis) {
		return nil, fmt.Errorf("%w: mood must be between 1 and %d", ErrValidation, len(common.MoodEmojis))
	}
	now := s.now()
	today := wellness.DayKey(now, s.loc)

	previous, err := s.store.GetMood(ctx, userID, today)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load mood: %w", err)
	}

	entry := &models.MoodEntry{
		ID:        store.NewID(),
		UserID:    userID,
		Day:       today,
		Mood:      mood,
		Emoji:     common.MoodEmojis[mood-1],
		Note:      strings.TrimSpace(note),
		Timestamp: now,
		IsPrivate: isPrivate,
	}
	created, err := s.store.UpsertMood(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to save mood: %w", err)
	}

	streak, err := s.currentStreak(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	result := &MoodLogResult{Entry: entry, Created: created, CurrentStreak: streak}

	if created {
		result.PointsAwarded = common.PointsDailyMood + wellness.StreakBonus(streak)
		if _, err := s.progress.Award(ctx, userID, result.PointsAwarded); err != nil {
			return nil, err
		}
	}
	if result.Progress, err = s.progress.UpdateStreak(ctx, userID, streak); err != nil {
		return nil, err
	}

	if mood == 1 && (previous == nil || previous.Mood != 1) {
		s.checkLowMood(ctx, userID, now)
	}
	return result, nil
}

// checkLowMood 最近三天（含今天）心情都是 1 时告警
func (s *MoodService) checkLowMood(ctx context.Context, userID string, now time.Time) {
	from := wellness.DayBefore(now, lowMoodAlertDays-1, s.loc)
	entries, err := s.store.ListMoods(ctx, userID, from, wellness.DayKey(now, s.loc))
	if err != nil {
		s.logger.Error("Failed to load recent moods", zap.String("userID", userID), zap.Error(err))
		return
	}
	if len(entries) < lowMoodAlertDays {
		return
	}
	for _, e := range entries {
		if e.Mood != 1 {
			return
		}
	}
	if s.alerts == nil {
		return
	}
	msg := fmt.Sprintf("Lowest mood logged for %d consecutive days", lowMoodAlertDays)
	if _, err := s.alerts.Raise(ctx, userID, models.TriggerMood, models.AlertModerate, msg); err != nil {
		s.logger.Error("Failed to raise mood alert", zap.String("userID", userID), zap.Error(err))
	}
}

// List 最近 30 天，默认不含私密记录
func (s *MoodService) List(ctx context.Context, userID string, includePrivate bool) ([]models.MoodEntry, error) {
	now := s.now()
	entries, err := s.store.ListMoods(ctx, userID, wellness.DayBefore(now, moodHistoryDays-1, s.loc), wellness.DayKey(now, s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to list moods: %w", err)
	}
	if includePrivate {
		return entries, nil
	}
	visible := make([]models.MoodEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsPrivate {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

func (s *MoodService) Streak(ctx context.Context, userID string) (int, error) {
	return s.currentStreak(ctx, userID, s.now())
}

func (s *MoodService) currentStreak(ctx context.Context, userID string, now time.Time) (int, error) {
	from := wellness.DayBefore(now, s.streaks.Window, s.loc)
	entries, err := s.store.ListMoods(ctx, userID, from, wellness.DayKey(now, s.loc))
	if err != nil {
		return 0, fmt.Errorf("failed to load moods: %w", err)
	}
	days := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		days[e.Day] = struct{}{}
	}
	return s.streaks.Current(now, func(day string) bool {
		_, ok := days[day]
		return ok
	}), nil
}

// Summary 非私密记录的平均心情，保留一位小数
func (s *MoodService) Summary(ctx context.Context, userID string) (*MoodSummary, error) {
	entries, err := s.List(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	summary := &MoodSummary{Entries: len(entries), Days: moodHistoryDays}
	if len(entries) == 0 {
		return summary, nil
	}
	total := 0
	for _, e := range entries {
		total += e.Mood
	}
	summary.Average = round1(float64(total) / float64(len(entries)))
	return summary, nil
}

// ExportCSV 导出最近 30 天的全部记录
func (s *MoodService) ExportCSV(ctx context.Context, userID string) ([]byte, error) {
	entries, err := s.List(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", "Mood", "Emoji", "Note"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Day, strconv.Itoa(e.Mood), e.Emoji, e.Note}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}
