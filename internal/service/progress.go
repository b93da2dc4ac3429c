package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

// ProgressService 积分、等级、徽章
// 积分累加交给存储层原子完成，等级和徽章由积分与连续天数推导
type ProgressService struct {
	store  store.ProgressStore
	logger *zap.Logger
}

func NewProgressService(s store.ProgressStore, logger *zap.Logger) *ProgressService {
	return &ProgressService{store: s, logger: logger}
}

func (s *ProgressService) Get(ctx context.Context, userID string) (*models.UserProgress, error) {
	p, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	derive(p)
	return p, nil
}

// Award 加分并刷新等级与徽章
func (s *ProgressService) Award(ctx context.Context, userID string, points int) (*models.UserProgress, error) {
	if points == 0 {
		return s.Get(ctx, userID)
	}
	if _, err := s.store.AddPoints(ctx, userID, points); err != nil {
		return nil, fmt.Errorf("failed to add points: %w", err)
	}
	return s.refresh(ctx, userID, nil)
}

// UpdateStreak 记录当前连续天数，最长连续天数只增不减
func (s *ProgressService) UpdateStreak(ctx context.Context, userID string, current int) (*models.UserProgress, error) {
	return s.refresh(ctx, userID, &current)
}

func (s *ProgressService) refresh(ctx context.Context, userID string, streak *int) (*models.UserProgress, error) {
	p, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if streak != nil {
		p.CurrentStreak = *streak
	}
	derive(p)
	if err := s.store.SaveProgressStats(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	s.logger.Debug("Progress updated",
		zap.String("userID", userID),
		zap.Int("totalPoints", p.TotalPoints),
		zap.Int("level", p.Level),
		zap.Int("streak", p.CurrentStreak))
	return p, nil
}

func derive(p *models.UserProgress) {
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.Level = wellness.Level(p.TotalPoints)
	p.Badges = wellness.EarnedBadges(p.Badges, p.TotalPoints, p.LongestStreak)
}
