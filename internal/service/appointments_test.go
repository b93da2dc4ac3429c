package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 6, day, hour, minute, 0, 0, time.UTC)
}

// 测试可预约时段只在咨询师工作日且晚于当前时间
func TestAppointmentSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slots, err := f.appointments.Slots(ctx, "counselor-1", "2025-06-02")
	require.NoError(t, err)
	require.Len(t, slots, 13)
	assert.Equal(t, at(2, 10, 30), slots[0])
	assert.Equal(t, at(2, 16, 30), slots[len(slots)-1])

	slots, err = f.appointments.Slots(ctx, "counselor-2", "2025-06-02")
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = f.appointments.Slots(ctx, "counselor-1", "06/02/2025")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.appointments.Slots(ctx, "counselor-9", "2025-06-02")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// 测试预约冲突和非法时段
func TestAppointmentBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.appointments.Book(ctx, "s1", BookingRequest{CounselorID: "counselor-1", ScheduledAt: at(3, 11, 0), Notes: "exam anxiety"})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentScheduled, appt.Status)
	assert.Equal(t, DefaultAppointmentMinutes, appt.Duration)
	assert.Equal(t, "exam anxiety", appt.Notes)

	stored, err := f.store.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEncrypted)
	assert.NotEqual(t, "exam anxiety", stored.Notes)

	_, err = f.appointments.Book(ctx, "s2", BookingRequest{CounselorID: "counselor-1", ScheduledAt: at(3, 11, 0)})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.appointments.Book(ctx, "s2", BookingRequest{CounselorID: "counselor-1", ScheduledAt: at(3, 11, 30)})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.appointments.Book(ctx, "s2", BookingRequest{CounselorID: "counselor-1", ScheduledAt: at(3, 12, 0)})
	require.NoError(t, err)

	invalid := []time.Time{
		at(3, 11, 15), // 不在半点
		at(3, 8, 30),  // 早于开始
		at(3, 17, 0),  // 晚于结束
		at(5, 11, 0),  // 周四不出诊
		at(2, 9, 0),   // 已过去
	}
	for _, ts := range invalid {
		_, err = f.appointments.Book(ctx, "s2", BookingRequest{CounselorID: "counselor-1", ScheduledAt: ts})
		assert.ErrorIs(t, err, ErrValidation, ts.String())
	}

	slots, err := f.appointments.Slots(ctx, "counselor-1", "2025-06-03")
	require.NoError(t, err)
	assert.Len(t, slots, 16-5)
}

// 测试取消和状态变更
func TestAppointmentCancelAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.appointments.Book(ctx, "s1", BookingRequest{CounselorID: "counselor-3", ScheduledAt: at(4, 9, 0)})
	require.NoError(t, err)

	list, err := f.appointments.List(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list.Upcoming, 1)
	assert.Empty(t, list.Past)

	_, err = f.appointments.Cancel(ctx, "s2", appt.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	cancelled, err := f.appointments.Cancel(ctx, "s1", appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)

	_, err = f.appointments.Cancel(ctx, "s1", appt.ID)
	assert.ErrorIs(t, err, ErrConflict)

	list, err = f.appointments.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list.Upcoming)
	assert.Len(t, list.Past, 1)

	again, err := f.appointments.Book(ctx, "s2", BookingRequest{CounselorID: "counselor-3", ScheduledAt: at(4, 9, 0)})
	require.NoError(t, err)

	_, err = f.appointments.SetStatus(ctx, again.ID, models.AppointmentCancelled)
	assert.ErrorIs(t, err, ErrValidation)
	done, err := f.appointments.SetStatus(ctx, again.ID, models.AppointmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, done.Status)
	_, err = f.appointments.SetStatus(ctx, again.ID, models.AppointmentNoShow)
	assert.ErrorIs(t, err, ErrConflict)
}
