package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
)

// 需要测试数据库，未设置 MYSQL_TEST_DSN 时跳过
func setupTestStore(t *testing.T) *Store {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	conn, err := InitDB(dsn, zap.NewNop())
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	return NewStore(conn)
}

// 测试空DSN
func TestInitDBEmptyDSN(t *testing.T) {
	conn, err := InitDB("", zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, conn)
}

// 测试同一天心情覆盖
func TestStoreUpsertMood(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "test-" + store.NewID()
	t.Cleanup(func() { _ = s.DeleteMoods(ctx, userID) })

	created, err := s.UpsertMood(ctx, &models.MoodEntry{ID: store.NewID(), UserID: userID, Day: "2024-01-15", Mood: 1, Timestamp: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.UpsertMood(ctx, &models.MoodEntry{ID: store.NewID(), UserID: userID, Day: "2024-01-15", Mood: 4, Timestamp: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)

	list, err := s.ListMoods(ctx, userID, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].Mood)
}

// 测试并发加分
func TestStoreAddPointsConcurrent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "test-" + store.NewID()
	t.Cleanup(func() { _ = s.DeleteProgress(ctx, userID) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddPoints(ctx, userID, 15)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := s.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 300, p.TotalPoints)
}

// 测试查询不存在的记录
func TestStoreNotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetAlert(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetThread(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.UpvoteThread(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
