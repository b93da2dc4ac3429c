package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/chatbot"
	"studenthub-backend/internal/common"
	"studenthub-backend/internal/crypto"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

type JournalRequest struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	FlagForCounselor bool   `json:"flagForCounselor"`
	// IsEncrypted 为空时按用户设置决定
	IsEncrypted *bool `json:"isEncrypted"`
}

type JournalStore interface {
	store.JournalStore
	GetSettings(ctx context.Context, userID string) (*models.Settings, error)
}

type JournalService struct {
	store    JournalStore
	cipher   *crypto.Cipher
	detector *wellness.CrisisDetector
	tagger   *wellness.SentimentTagger
	progress *ProgressService
	alerts   chatbot.AlertRaiser
	logger   *zap.Logger
	now      func() time.Time
}

// NewJournalService cipher 为 nil 时日记一律明文保存
func NewJournalService(s JournalStore, cipher *crypto.Cipher, detector *wellness.CrisisDetector, tagger *wellness.SentimentTagger,
	progress *ProgressService, alerts chatbot.AlertRaiser, logger *zap.Logger) *JournalService {
	return &JournalService{
		store:    s,
		cipher:   cipher,
		detector: detector,
		tagger:   tagger,
		progress: progress,
		alerts:   alerts,
		logger:   logger,
		now:      time.Now,
	}
}

// Create 返回的条目为明文
func (s *JournalService) Create(ctx context.Context, userID string, req JournalRequest) (*models.JournalEntry, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	entry := &models.JournalEntry{
		ID:               store.NewID(),
		UserID:           userID,
		Title:            title,
		Content:          content,
		Sentiment:        s.tagger.Tag(content),
		FlagForCounselor: req.FlagForCounselor,
		CreatedAt:        s.now(),
	}
	crisis := s.detector.Detect(title + " " + content)
	if crisis {
		entry.FlagForCounselor = true
	}

	stored := *entry
	if s.shouldEncrypt(ctx, userID, req.IsEncrypted) {
		sealed, err := s.cipher.Encrypt(content)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt journal: %w", err)
		}
		stored.Content = sealed
		stored.IsEncrypted = true
		entry.IsEncrypted = true
	}
	if err := s.store.CreateJournal(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}

	if crisis && s.alerts != nil {
		if _, err := s.alerts.Raise(ctx, userID, models.TriggerJournal, models.AlertHigh, "Crisis language detected in journal entry"); err != nil {
			s.logger.Error("Failed to raise journal alert", zap.String("userID", userID), zap.Error(err))
		}
	}
	if _, err := s.progress.Award(ctx, userID, common.PointsJournalEntry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *JournalService) shouldEncrypt(ctx context.Context, userID string, requested *bool) bool {
	if s.cipher == nil {
		if requested != nil && *requested {
			s.logger.Warn("Journal encryption requested but no key configured", zap.String("userID", userID))
		}
		return false
	}
	if requested != nil {
		return *requested
	}
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		// 没有设置记录时按默认设置加密
		return errors.Is(err, store.ErrNotFound)
	}
	return settings.EncryptJournal
}

// List 解密后按 query 过滤标题和正文
func (s *JournalService) List(ctx context.Context, userID, query string) ([]models.JournalEntry, error) {
	entries, err := s.store.ListJournals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsEncrypted {
			if s.cipher == nil {
				return nil, fmt.Errorf("journal %s is encrypted but no key is configured", e.ID)
			}
			plain, err := s.cipher.Decrypt(e.Content)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt journal %s: %w", e.ID, err)
			}
			e.Content = plain
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Title), query) && !strings.Contains(strings.ToLower(e.Content), query) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
