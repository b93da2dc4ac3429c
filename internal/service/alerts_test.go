package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/notify"
	"studenthub-backend/internal/store"
)

// 测试告警创建后通知咨询师并推送
func TestRaiseNotifiesAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "student-1", models.RoleStudent)

	alert, err := f.alerts.Raise(ctx, "student-1", models.TriggerChat, models.AlertCritical, "crisis")
	require.NoError(t, err)
	assert.Equal(t, models.AlertPending, alert.Status)
	assert.True(t, alert.CounselorNotified)
	assert.Len(t, f.notifier.alerts, 1)
	require.Len(t, f.hub.events, 1)
	assert.Equal(t, alert.ID, f.hub.events[0].ID)

	stored, err := f.store.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, stored.CounselorNotified)
}

// 测试没有通知渠道时告警仍然保存
func TestRaiseWithoutChannel(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = notify.ErrNoChannel

	alert, err := f.alerts.Raise(context.Background(), "ghost", models.TriggerMood, models.AlertModerate, "low")
	require.NoError(t, err)
	assert.False(t, alert.CounselorNotified)

	list, err := f.alerts.List(context.Background(), models.AlertPending)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// 测试确认、解决以及重复处理已解决告警
func TestAlertLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	counselor := f.user(t, "counselor-1", models.RoleCounselor)

	alert, err := f.alerts.Raise(ctx, "student-1", models.TriggerQuiz, models.AlertHigh, "High PHQ-9 score detected")
	require.NoError(t, err)

	acked, err := f.alerts.Acknowledge(ctx, alert.ID, counselor)
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, acked.Status)
	assert.Equal(t, counselor.Name, acked.AssignedTo)

	resolved, err := f.alerts.Resolve(ctx, alert.ID, counselor)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, resolved.Status)
	assert.True(t, resolved.Resolved)

	_, err = f.alerts.Acknowledge(ctx, alert.ID, counselor)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.alerts.Resolve(ctx, alert.ID, counselor)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.alerts.Resolve(ctx, "missing", counselor)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.alerts.List(ctx, "closed")
	assert.ErrorIs(t, err, ErrValidation)
}
