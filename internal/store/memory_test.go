package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/models"
)

// 测试同一天重复记录心情只保留一条
func TestUpsertMoodSameDay(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.UpsertMood(ctx, &models.MoodEntry{ID: "a", UserID: "u1", Day: "2024-03-15", Mood: 2})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.UpsertMood(ctx, &models.MoodEntry{ID: "b", UserID: "u1", Day: "2024-03-15", Mood: 5})
	require.NoError(t, err)
	assert.False(t, created)

	list, err := s.ListMoods(ctx, "u1", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Mood)
	assert.Equal(t, "a", list[0].ID)
}

// 测试心情按日期范围倒序
func TestListMoodsRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, day := range []string{"2024-03-10", "2024-03-12", "2024-03-11", "2024-02-01"} {
		_, err := s.UpsertMood(ctx, &models.MoodEntry{ID: NewID(), UserID: "u1", Day: day, Mood: 3})
		require.NoError(t, err)
	}
	_, _ = s.UpsertMood(ctx, &models.MoodEntry{ID: NewID(), UserID: "u2", Day: "2024-03-11", Mood: 3})

	list, err := s.ListMoods(ctx, "u1", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-03-12", list[0].Day)
	assert.Equal(t, "2024-03-10", list[2].Day)

	_, err = s.GetMood(ctx, "u1", "2024-03-13")
	assert.ErrorIs(t, err, ErrNotFound)
}

// 测试并发加分不丢失
func TestAddPointsConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddPoints(ctx, "u1", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := s.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1000, p.TotalPoints)
}

// 测试更新统计不影响积分
func TestSaveProgressStatsKeepsPoints(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p, err := s.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.TotalPoints)

	_, err = s.AddPoints(ctx, "u1", 120)
	require.NoError(t, err)
	require.NoError(t, s.SaveProgressStats(ctx, &models.UserProgress{
		UserID: "u1", TotalPoints: 0, CurrentStreak: 3, LongestStreak: 4, Badges: []string{"first_steps"}, Level: 2,
	}))

	p, err = s.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 120, p.TotalPoints)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, []string{"first_steps"}, p.Badges)
}

// 测试告警状态过滤
func TestAlertsFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateAlert(ctx, &models.CrisisAlert{ID: "1", Status: models.AlertPending}))
	require.NoError(t, s.CreateAlert(ctx, &models.CrisisAlert{ID: "2", Status: models.AlertResolved}))

	all, err := s.ListAlerts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "2", all[0].ID)

	pending, err := s.ListAlerts(ctx, models.AlertPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	pending[0].Status = models.AlertAcknowledged
	require.NoError(t, s.UpdateAlert(ctx, &pending[0]))
	got, err := s.GetAlert(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, got.Status)

	assert.ErrorIs(t, s.UpdateAlert(ctx, &models.CrisisAlert{ID: "x"}), ErrNotFound)
}

// 测试论坛回复和点赞
func TestForumRepliesAndUpvotes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateThread(ctx, &models.ForumThread{ID: "t1", Title: "exam stress"}))

	require.NoError(t, s.AddReply(ctx, &models.ForumReply{ID: "r1", ThreadID: "t1", Content: "same here"}))
	assert.ErrorIs(t, s.AddReply(ctx, &models.ForumReply{ID: "r2", ThreadID: "nope"}), ErrNotFound)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.UpvoteThread(ctx, "t1")
		}()
	}
	wg.Wait()

	thread, err := s.GetThread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 20, thread.Upvotes)
	assert.Len(t, thread.Replies, 1)
}

// 测试待提醒的预约
func TestPendingReminders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	appts := []models.Appointment{
		{ID: "soon", StudentID: "u1", ScheduledAt: now.Add(2 * time.Hour), Status: models.AppointmentScheduled},
		{ID: "sent", StudentID: "u1", ScheduledAt: now.Add(3 * time.Hour), Status: models.AppointmentScheduled, ReminderSent: true},
		{ID: "later", StudentID: "u1", ScheduledAt: now.Add(48 * time.Hour), Status: models.AppointmentScheduled},
		{ID: "cancel", StudentID: "u2", ScheduledAt: now.Add(time.Hour), Status: models.AppointmentCancelled},
	}
	for i := range appts {
		require.NoError(t, s.CreateAppointment(ctx, &appts[i]))
	}

	due, err := s.ListPendingReminders(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "soon", due[0].ID)
}

// 测试聊天记录窗口和计数
func TestChats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	start := time.Now()
	for i := 0; i < 6; i++ {
		require.NoError(t, s.AppendChat(ctx, &models.ChatRecord{UserID: "u1", Content: "m", IsUser: i%2 == 0}))
	}

	recent, err := s.ListChats(ctx, "u1", 4)
	require.NoError(t, err)
	assert.Len(t, recent, 4)
	assert.Equal(t, uint(6), recent[3].ID)

	n, err := s.CountUserChatsSince(ctx, "u1", start.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.DeleteChats(ctx, "u1"))
	recent, _ = s.ListChats(ctx, "u1", 0)
	assert.Empty(t, recent)
}

// 测试存储键命名
func TestKeys(t *testing.T) {
	assert.Equal(t, "mood-2024-03-15", MoodKey("2024-03-15"))
	assert.Equal(t, "progress-u1", ProgressKey("u1"))
	assert.Equal(t, "journal-u1", JournalKey("u1"))
	assert.Equal(t, "quiz-results-u1", QuizResultsKey("u1"))
	assert.Equal(t, "appointments-u1", AppointmentsKey("u1"))
	assert.Equal(t, "settings-u1", SettingsKey("u1"))
	assert.Equal(t, "forum-threads", ForumThreadsKey)
}
