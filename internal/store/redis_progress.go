package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"studenthub-backend/internal/models"
)

// RedisProgressStore 用户进度存在 hash progress-<userId> 中
// totalPoints 用 HINCRBY 累加，多实例部署下也不会丢失更新
type RedisProgressStore struct {
	client *redis.Client
}

func NewRedisProgressStore(client *redis.Client) *RedisProgressStore {
	return &RedisProgressStore{client: client}
}

var _ ProgressStore = (*RedisProgressStore)(nil)

const (
	fieldTotalPoints   = "totalPoints"
	fieldCurrentStreak = "currentStreak"
	fieldLongestStreak = "longestStreak"
	fieldBadges        = "badges"
	fieldLevel         = "level"
	fieldUpdatedAt     = "updatedAt"
)

func (s *RedisProgressStore) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	values, err := s.client.HGetAll(ctx, ProgressKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	p := initialProgress(userID)
	if len(values) == 0 {
		return &p, nil
	}

	if p.TotalPoints, err = intField(values, fieldTotalPoints); err != nil {
		return nil, err
	}
	if p.CurrentStreak, err = intField(values, fieldCurrentStreak); err != nil {
		return nil, err
	}
	if p.LongestStreak, err = intField(values, fieldLongestStreak); err != nil {
		return nil, err
	}
	if level, err := intField(values, fieldLevel); err != nil {
		return nil, err
	} else if level > 0 {
		p.Level = level
	}
	if raw := values[fieldBadges]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Badges); err != nil {
			return nil, fmt.Errorf("corrupted badges for %s: %w", userID, err)
		}
	}
	if raw := values[fieldUpdatedAt]; raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			p.UpdatedAt = ts
		}
	}
	return &p, nil
}

func (s *RedisProgressStore) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	key := ProgressKey(userID)
	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, fieldTotalPoints, int64(delta))
	pipe.HSet(ctx, key, fieldUpdatedAt, time.Now().Format(time.RFC3339))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisProgressStore) SaveProgressStats(ctx context.Context, progress *models.UserProgress) error {
	badges, err := json.Marshal(progress.Badges)
	if err != nil {
		return fmt.Errorf("failed to encode badges: %w", err)
	}
	err = s.client.HSet(ctx, ProgressKey(progress.UserID),
		fieldCurrentStreak, progress.CurrentStreak,
		fieldLongestStreak, progress.LongestStreak,
		fieldBadges, string(badges),
		fieldLevel, progress.Level,
		fieldUpdatedAt, time.Now().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func (s *RedisProgressStore) DeleteProgress(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, ProgressKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func intField(values map[string]string, field string) (int, error) {
	raw, ok := values[field]
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupted progress field %s: %w", field, err)
	}
	return n, nil
}
