package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
)

type SettingsService struct {
	store  store.SettingsStore
	logger *zap.Logger
	now    func() time.Time
}

func NewSettingsService(s store.SettingsStore, logger *zap.Logger) *SettingsService {
	return &SettingsService{store: s, logger: logger, now: time.Now}
}

// Get 没有保存过设置时返回默认值
func (s *SettingsService) Get(ctx context.Context, user *models.User) (*models.Settings, error) {
	settings, err := s.store.GetSettings(ctx, user.ID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	def := models.DefaultSettings(user)
	return &def, nil
}

// Update 把 patch 中出现的字段合并到当前设置上
func (s *SettingsService) Update(ctx context.Context, user *models.User, patch json.RawMessage) (*models.Settings, error) {
	current, err := s.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, current); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	current.UserID = user.ID
	if current.Language != models.LangEN && current.Language != models.LangHI {
		return nil, fmt.Errorf("%w: unsupported language %q", ErrValidation, current.Language)
	}
	current.UpdatedAt = s.now()
	if err := s.store.SaveSettings(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Debug("Settings updated", zap.String("userID", user.ID))
	return current, nil
}
