package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/models"
)

// 测试管理端汇总
func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "s1", models.RoleStudent)
	idle := f.user(t, "s2", models.RoleStudent)
	idle.LastActive = f.now.AddDate(0, 0, -10)
	require.NoError(t, f.store.CreateUser(ctx, idle))
	counselor := f.user(t, "c1", models.RoleCounselor)

	_, err := f.mood.Log(ctx, "s1", 5, "", false)
	require.NoError(t, err)
	_, err = f.mood.Log(ctx, "s2", 2, "", true)
	require.NoError(t, err)

	_, err = f.forum.CreateThread(ctx, "s1", ThreadRequest{Title: "hi", Content: "there"})
	require.NoError(t, err)

	a1, err := f.alerts.Raise(ctx, "s1", models.TriggerChat, models.AlertCritical, "x")
	require.NoError(t, err)
	_, err = f.alerts.Raise(ctx, "s2", models.TriggerMood, models.AlertModerate, "y")
	require.NoError(t, err)
	_, err = f.alerts.Resolve(ctx, a1.ID, counselor)
	require.NoError(t, err)

	today, err := f.appointments.Book(ctx, "s1", BookingRequest{CounselorID: "counselor-1", ScheduledAt: at(2, 15, 0)})
	require.NoError(t, err)
	later, err := f.appointments.Book(ctx, "s2", BookingRequest{CounselorID: "counselor-1", ScheduledAt: at(3, 9, 0)})
	require.NoError(t, err)
	dropped, err := f.appointments.Book(ctx, "s2", BookingRequest{CounselorID: "counselor-2", ScheduledAt: at(3, 9, 0)})
	require.NoError(t, err)
	_, err = f.appointments.SetStatus(ctx, today.ID, models.AppointmentCompleted)
	require.NoError(t, err)
	_, err = f.appointments.SetStatus(ctx, later.ID, models.AppointmentNoShow)
	require.NoError(t, err)
	_, err = f.appointments.Cancel(ctx, "s2", dropped.ID)
	require.NoError(t, err)

	stats, err := f.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.CrisisAlerts)
	assert.Equal(t, 1, stats.ForumPosts)
	assert.Equal(t, 1, stats.AppointmentsToday)
	assert.InDelta(t, 3.5, stats.AvgMoodScore, 0.001)
	assert.InDelta(t, 50.0, stats.CompletionRate, 0.001)
}
