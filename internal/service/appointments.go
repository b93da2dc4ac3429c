package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/crypto"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

const (
	DefaultAppointmentMinutes = 60
	slotStep                  = 30 * time.Minute
	firstSlotMinute           = 9 * 60
	lastSlotMinute            = 16*60 + 30
)

// counselors 咨询师目录
var counselors = []models.Counselor{
	{
		ID:           "counselor-1",
		Name:         "Dr. Sarah Johnson",
		Title:        "Clinical Psychologist",
		Specialties:  []string{"Anxiety", "Depression", "Academic Stress"},
		Availability: []string{"Monday", "Tuesday", "Wednesday", "Friday"},
		Rating:       4.9,
		Languages:    []string{"English", "Hindi"},
	},
	{
		ID:           "counselor-2",
		Name:         "Dr. Rajesh Kumar",
		Title:        "Counseling Psychologist",
		Specialties:  []string{"Career Counseling", "Relationship Issues", "Self-esteem"},
		Availability: []string{"Tuesday", "Thursday", "Saturday"},
		Rating:       4.8,
		Languages:    []string{"Hindi", "English"},
	},
	{
		ID:           "counselor-3",
		Name:         "Dr. Priya Sharma",
		Title:        "Mental Health Counselor",
		Specialties:  []string{"Trauma", "PTSD", "Mindfulness"},
		Availability: []string{"Monday", "Wednesday", "Thursday", "Friday"},
		Rating:       4.9,
		Languages:    []string{"English", "Hindi"},
	},
}

type BookingRequest struct {
	CounselorID string    `json:"counselorId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes"`
}

type AppointmentList struct {
	Upcoming []models.Appointment `json:"upcoming"`
	Past     []models.Appointment `json:"past"`
}

type AppointmentService struct {
	store  store.AppointmentStore
	cipher *crypto.Cipher
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	// 串行化预约，避免同一时段被重复预约
	bookMu sync.Mutex
}

func NewAppointmentService(s store.AppointmentStore, cipher *crypto.Cipher, loc *time.Location, logger *zap.Logger) *AppointmentService {
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentService{store: s, cipher: cipher, loc: loc, logger: logger, now: time.Now}
}

func (s *AppointmentService) Counselors() []models.Counselor {
	out := make([]models.Counselor, len(counselors))
	copy(out, counselors)
	return out
}

func (s *AppointmentService) Counselor(id string) (*models.Counselor, error) {
	for _, c := range counselors {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("counselor %s: %w", id, store.ErrNotFound)
}

// Slots 指定日期的空闲时段（半小时一档，09:00-16:30）
func (s *AppointmentService) Slots(ctx context.Context, counselorID, date string) ([]time.Time, error) {
	c, err := s.Counselor(counselorID)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(wellness.DayLayout, date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if !availableOn(c, day.Weekday()) {
		return []time.Time{}, nil
	}

	booked, err := s.store.ListCounselorAppointments(ctx, counselorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	now := s.now()
	slots := make([]time.Time, 0, (lastSlotMinute-firstSlotMinute)/30+1)
	for m := firstSlotMinute; m <= lastSlotMinute; m += int(slotStep / time.Minute) {
		slot := time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, s.loc)
		if !slot.After(now) || overlaps(booked, slot, DefaultAppointmentMinutes) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Book 预约必须落在咨询师的可用时段上且在未来
func (s *AppointmentService) Book(ctx context.Context, studentID string, req BookingRequest) (*models.Appointment, error) {
	c, err := s.Counselor(req.CounselorID)
	if err != nil {
		return nil, err
	}
	at := req.ScheduledAt.In(s.loc)
	if !at.After(s.now()) {
		return nil, fmt.Errorf("%w: appointment must be in the future", ErrValidation)
	}
	if !s.validSlot(c, at) {
		return nil, fmt.Errorf("%w: %s is not an available slot", ErrValidation, at.Format("Mon 2006-01-02 15:04"))
	}

	appt := &models.Appointment{
		ID:          store.NewID(),
		StudentID:   studentID,
		CounselorID: c.ID,
		ScheduledAt: at,
		Duration:    DefaultAppointmentMinutes,
		Status:      models.AppointmentScheduled,
	}
	notes := strings.TrimSpace(req.Notes)
	if notes != "" && s.cipher != nil {
		sealed, err := s.cipher.Encrypt(notes)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt notes: %w", err)
		}
		appt.Notes = sealed
		appt.IsEncrypted = true
	} else {
		appt.Notes = notes
	}

	s.bookMu.Lock()
	defer s.bookMu.Unlock()
	y, m, d := at.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	booked, err := s.store.ListCounselorAppointments(ctx, c.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	if overlaps(booked, at, appt.Duration) {
		return nil, fmt.Errorf("%w: slot already booked", ErrConflict)
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to save appointment: %w", err)
	}
	s.logger.Info("Appointment booked",
		zap.String("appointmentID", appt.ID),
		zap.String("studentID", studentID),
		zap.String("counselorID", c.ID),
		zap.Time("scheduledAt", at))

	appt.Notes = notes
	return appt, nil
}

// List 学生的预约，分为即将进行和历史两组
func (s *AppointmentService) List(ctx context.Context, studentID string) (*AppointmentList, error) {
	appts, err := s.store.ListAppointments(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	now := s.now()
	out := &AppointmentList{Upcoming: []models.Appointment{}, Past: []models.Appointment{}}
	for _, a := range appts {
		if err := s.open(&a); err != nil {
			return nil, err
		}
		if a.Status == models.AppointmentScheduled && a.ScheduledAt.After(now) {
			out.Upcoming = append(out.Upcoming, a)
		} else {
			out.Past = append(out.Past, a)
		}
	}
	return out, nil
}

// Cancel 只能取消自己的、仍为 scheduled 的预约
func (s *AppointmentService) Cancel(ctx context.Context, studentID, id string) (*models.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.StudentID != studentID {
		return nil, store.ErrNotFound
	}
	return s.transition(ctx, appt, models.AppointmentCancelled)
}

// SetStatus 咨询师标记完成或爽约
func (s *AppointmentService) SetStatus(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	if status != models.AppointmentCompleted && status != models.AppointmentNoShow {
		return nil, fmt.Errorf("%w: status must be %s or %s", ErrValidation, models.AppointmentCompleted, models.AppointmentNoShow)
	}
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, appt, status)
}

func (s *AppointmentService) transition(ctx context.Context, appt *models.Appointment, status models.AppointmentStatus) (*models.Appointment, error) {
	if appt.Status != models.AppointmentScheduled {
		return nil, fmt.Errorf("%w: appointment is %s", ErrConflict, appt.Status)
	}
	appt.Status = status
	if err := s.store.UpdateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	s.logger.Info("Appointment status changed", zap.String("appointmentID", appt.ID), zap.String("status", string(status)))
	if err := s.open(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// open 解密备注
func (s *AppointmentService) open(appt *models.Appointment) error {
	if !appt.IsEncrypted {
		return nil
	}
	if s.cipher == nil {
		return fmt.Errorf("appointment %s notes are encrypted but no key is configured", appt.ID)
	}
	plain, err := s.cipher.Decrypt(appt.Notes)
	if err != nil {
		return fmt.Errorf("failed to decrypt appointment notes: %w", err)
	}
	appt.Notes = plain
	appt.IsEncrypted = false
	return nil
}

func (s *AppointmentService) validSlot(c *models.Counselor, at time.Time) bool {
	if !availableOn(c, at.Weekday()) || at.Second() != 0 || at.Nanosecond() != 0 {
		return false
	}
	minute := at.Hour()*60 + at.Minute()
	return minute >= firstSlotMinute && minute <= lastSlotMinute && (minute-firstSlotMinute)%30 == 0
}

func availableOn(c *models.Counselor, day time.Weekday) bool {
	for _, d := range c.Availability {
		if d == day.String() {
			return true
		}
	}
	return false
}

// overlaps 已预约（scheduled）的时段与 [start, start+minutes) 是否重叠
func overlaps(booked []models.Appointment, start time.Time, minutes int) bool {
	end := start.Add(time.Duration(minutes) * time.Minute)
	for _, a := range booked {
		if a.Status != models.AppointmentScheduled {
			continue
		}
		aEnd := a.ScheduledAt.Add(time.Duration(a.Duration) * time.Minute)
		if a.ScheduledAt.Before(end) && start.Before(aEnd) {
			return true
		}
	}
	return false
}
