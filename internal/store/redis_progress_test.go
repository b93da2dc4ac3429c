package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/models"
)

// 需要本地 Redis，未设置 REDIS_ADDR 时跳过
func newTestRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// 测试 Redis 并发加分
func TestRedisAddPointsConcurrent(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	s := NewRedisProgressStore(client)
	userID := "test-" + NewID()
	t.Cleanup(func() { _ = s.DeleteProgress(ctx, userID) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddPoints(ctx, userID, 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.NoError(t, s.SaveProgressStats(ctx, &models.UserProgress{
		UserID: userID, CurrentStreak: 2, LongestStreak: 5, Badges: []string{"first_steps"}, Level: 6,
	}))

	p, err := s.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 500, p.TotalPoints)
	assert.Equal(t, 5, p.LongestStreak)
	assert.Equal(t, []string{"first_steps"}, p.Badges)
}

// 测试进度存储替换
func TestWithProgressOverride(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	progress := NewMemoryStore()
	s := WithProgress(base, progress)

	_, err := s.AddPoints(ctx, "u1", 25)
	require.NoError(t, err)

	p, err := progress.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 25, p.TotalPoints)

	p, err = base.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.TotalPoints)

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "u1"}))
	_, err = base.GetUser(ctx, "u1")
	assert.NoError(t, err)
}
