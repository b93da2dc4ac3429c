package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/notify"
	"studenthub-backend/internal/store"
)

// Broadcaster 告警实时推送（管理端 websocket）
type Broadcaster interface {
	Broadcast(alert *models.CrisisAlert)
}

type AlertStore interface {
	store.AlertStore
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type AlertService struct {
	store    AlertStore
	notifier notify.Notifier
	hub      Broadcaster
	logger   *zap.Logger
	now      func() time.Time
}

func NewAlertService(s AlertStore, notifier notify.Notifier, hub Broadcaster, logger *zap.Logger) *AlertService {
	return &AlertService{store: s, notifier: notifier, hub: hub, logger: logger, now: time.Now}
}

// Raise 创建告警，推送到管理端并通知咨询师
func (s *AlertService) Raise(ctx context.Context, userID string, trigger models.TriggerType, severity models.AlertSeverity, message string) (*models.CrisisAlert, error) {
	now := s.now()
	alert := &models.CrisisAlert{
		ID:          store.NewID(),
		UserID:      userID,
		TriggerType: trigger,
		Severity:    severity,
		Message:     message,
		Status:      models.AlertPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	s.logger.Warn("Crisis alert raised",
		zap.String("alertID", alert.ID),
		zap.String("userID", userID),
		zap.String("trigger", string(trigger)),
		zap.String("severity", string(severity)))

	if s.notifier != nil {
		student, err := s.store.GetUser(ctx, userID)
		if err != nil {
			student = nil
		}
		if err := s.notifier.AlertCounselors(ctx, alert, student); err != nil {
			if !errors.Is(err, notify.ErrNoChannel) {
				s.logger.Error("Failed to notify counselors", zap.String("alertID", alert.ID), zap.Error(err))
			}
		} else {
			alert.CounselorNotified = true
			if err := s.store.UpdateAlert(ctx, alert); err != nil {
				s.logger.Error("Failed to mark alert notified", zap.String("alertID", alert.ID), zap.Error(err))
			}
		}
	}

	s.broadcast(alert)
	return alert, nil
}

func (s *AlertService) List(ctx context.Context, status models.AlertStatus) ([]models.CrisisAlert, error) {
	switch status {
	case "", models.AlertPending, models.AlertAcknowledged, models.AlertResolved:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.store.ListAlerts(ctx, status)
}

// Acknowledge pending/acknowledged -> acknowledged，指派给操作人
func (s *AlertService) Acknowledge(ctx context.Context, id string, actor *models.User) (*models.CrisisAlert, error) {
	return s.transition(ctx, id, func(a *models.CrisisAlert) {
		a.Status = models.AlertAcknowledged
		a.AssignedTo = actor.Name
	})
}

// Resolve pending/acknowledged -> resolved
func (s *AlertService) Resolve(ctx context.Context, id string, actor *models.User) (*models.CrisisAlert, error) {
	return s.transition(ctx, id, func(a *models.CrisisAlert) {
		a.Status = models.AlertResolved
		a.Resolved = true
		if a.AssignedTo == "" {
			a.AssignedTo = actor.Name
		}
	})
}

func (s *AlertService) transition(ctx context.Context, id string, apply func(*models.CrisisAlert)) (*models.CrisisAlert, error) {
	alert, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.AlertResolved {
		return nil, fmt.Errorf("%w: alert already resolved", ErrConflict)
	}
	apply(alert)
	alert.UpdatedAt = s.now()
	if err := s.store.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	s.broadcast(alert)
	return alert, nil
}

func (s *AlertService) broadcast(alert *models.CrisisAlert) {
	if s.hub != nil {
		s.hub.Broadcast(alert)
	}
}
