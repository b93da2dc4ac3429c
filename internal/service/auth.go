package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/auth"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
)

const DemoPassword = "password123"

// demoUsers 演示账号，启动时写入存储
var demoUsers = []models.User{
	{ID: "student-123", Email: "student@example.com", Name: "Alex Student", Role: models.RoleStudent, Campus: "IIT Delhi", Language: models.LangEN},
	{ID: "counselor-456", Email: "counselor@example.com", Name: "Dr. Sarah Counselor", Role: models.RoleCounselor, Campus: "IIT Delhi", Language: models.LangEN},
	{ID: "admin-789", Email: "admin@example.com", Name: "Admin User", Role: models.RoleAdmin, Campus: "IIT Delhi", Language: models.LangEN},
}

type SignUpData struct {
	Name     string          `json:"name"`
	Campus   string          `json:"campus"`
	Language models.Language `json:"language"`
}

type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type AuthService struct {
	users  store.UserStore
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users store.UserStore, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger, now: time.Now}
}

// SeedDemoUsers 已存在的账号跳过
func (s *AuthService) SeedDemoUsers(ctx context.Context) error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	for _, u := range demoUsers {
		if _, err := s.users.GetUser(ctx, u.ID); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to check demo user %s: %w", u.ID, err)
		}
		user := u
		user.PasswordHash = hash
		user.CreatedAt = s.now()
		user.LastActive = user.CreatedAt
		if err := s.users.CreateUser(ctx, &user); err != nil {
			return fmt.Errorf("failed to seed demo user %s: %w", u.ID, err)
		}
		s.logger.Info("Seeded demo user", zap.String("userID", user.ID), zap.String("role", string(user.Role)))
	}
	return nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Info("Sign in rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

// SignUp 只能注册学生账号
func (s *AuthService) SignUp(ctx context.Context, email, password string, data SignUpData) (*Session, error) {
	email = normalizeEmail(email)
	name := strings.TrimSpace(data.Name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		ID:           "user-" + store.NewID(),
		Email:        email,
		Name:         name,
		Role:         models.RoleStudent,
		Campus:       strings.TrimSpace(data.Campus),
		Language:     data.Language.Normalize(),
		PasswordHash: hash,
		CreatedAt:    now,
		LastActive:   now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User signed up", zap.String("userID", user.ID))
	return s.issue(ctx, user)
}

// SignOut 令牌无状态，这里只记录活跃时间
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return s.users.TouchUser(ctx, userID, s.now())
}

// Authenticate 解析令牌并加载当前用户
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	now := s.now()
	if err := s.users.TouchUser(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to update last active", zap.String("userID", user.ID), zap.Error(err))
	}
	user.LastActive = now
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
