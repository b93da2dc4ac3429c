package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/chatbot"
	"studenthub-backend/internal/common"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

type QuizService struct {
	store    store.QuizStore
	progress *ProgressService
	alerts   chatbot.AlertRaiser
	logger   *zap.Logger
	now      func() time.Time
}

func NewQuizService(s store.QuizStore, progress *ProgressService, alerts chatbot.AlertRaiser, logger *zap.Logger) *QuizService {
	return &QuizService{store: s, progress: progress, alerts: alerts, logger: logger, now: time.Now}
}

// Submit 计分并保存，需要升级时生成告警
func (s *QuizService) Submit(ctx context.Context, userID string, quizType models.QuizType, responses map[int]int) (*models.QuizResult, error) {
	assessment, err := wellness.Score(quizType, responses)
	if err != nil {
		return nil, err
	}

	result := &models.QuizResult{
		ID:                  store.NewID(),
		UserID:              userID,
		QuizType:            quizType,
		Score:               assessment.Score,
		Severity:            assessment.Severity,
		Responses:           responses,
		CompletedAt:         s.now(),
		EscalationTriggered: assessment.Escalation,
	}
	if err := s.store.CreateQuizResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save quiz result: %w", err)
	}
	s.logger.Info("Quiz submitted",
		zap.String("userID", userID),
		zap.String("quiz", string(quizType)),
		zap.Int("score", assessment.Score),
		zap.String("severity", string(assessment.Severity)))

	if _, err := s.progress.Award(ctx, userID, common.PointsQuizCompletion); err != nil {
		return nil, err
	}

	if assessment.Escalation && s.alerts != nil {
		msg := fmt.Sprintf("High %s score detected", quizType)
		if _, err := s.alerts.Raise(ctx, userID, models.TriggerQuiz, assessment.AlertSeverity(), msg); err != nil {
			s.logger.Error("Failed to raise quiz alert", zap.String("userID", userID), zap.Error(err))
		}
	}
	return result, nil
}

func (s *QuizService) Results(ctx context.Context, userID string) ([]models.QuizResult, error) {
	results, err := s.store.ListQuizResults(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	return results, nil
}
