package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/common"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
)

const (
	AnonymousAuthor = "anonymous"
	DefaultCategory = "General"
)

type ThreadRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type ReplyRequest struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type ForumService struct {
	store    store.ForumStore
	progress *ProgressService
	logger   *zap.Logger
	now      func() time.Time
}

func NewForumService(s store.ForumStore, progress *ProgressService, logger *zap.Logger) *ForumService {
	return &ForumService{store: s, progress: progress, logger: logger, now: time.Now}
}

// List 按关键词（标题/正文）和分类过滤，最新在前
func (s *ForumService) List(ctx context.Context, query, category string) ([]models.ForumThread, error) {
	threads, err := s.store.ListThreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)
	out := make([]models.ForumThread, 0, len(threads))
	for _, t := range threads {
		if category != "" && !strings.EqualFold(category, "all") && t.Category != category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) && !strings.Contains(strings.ToLower(t.Content), query) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *ForumService) Get(ctx context.Context, id string) (*models.ForumThread, error) {
	return s.store.GetThread(ctx, id)
}

func (s *ForumService) CreateThread(ctx context.Context, userID string, req ThreadRequest) (*models.ForumThread, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = DefaultCategory
	}
	if !validCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}

	thread := &models.ForumThread{
		ID:          store.NewID(),
		AuthorID:    author(userID, req.IsAnonymous),
		Title:       title,
		Content:     content,
		IsAnonymous: req.IsAnonymous,
		Category:    category,
		Replies:     []models.ForumReply{},
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to save thread: %w", err)
	}
	if _, err := s.progress.Award(ctx, userID, common.PointsForumPost); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *ForumService) Reply(ctx context.Context, userID, threadID string, req ReplyRequest) (*models.ForumReply, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	reply := &models.ForumReply{
		ID:          store.NewID(),
		ThreadID:    threadID,
		AuthorID:    author(userID, req.IsAnonymous),
		Content:     content,
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   s.now(),
	}
	if err := s.store.AddReply(ctx, reply); err != nil {
		return nil, err
	}
	if _, err := s.progress.Award(ctx, userID, common.PointsForumReply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *ForumService) Upvote(ctx context.Context, threadID string) (int, error) {
	return s.store.UpvoteThread(ctx, threadID)
}

func author(userID string, anonymous bool) string {
	if anonymous {
		return AnonymousAuthor
	}
	return userID
}

func validCategory(category string) bool {
	for _, c := range common.ForumCategories {
		if c == category {
			return true
		}
	}
	return false
}
