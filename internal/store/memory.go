package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"studenthub-backend/internal/models"
)

// MemoryStore 进程内存储，用于本地开发和测试
type MemoryStore struct {
	mu sync.RWMutex

	users        map[string]models.User
	moods        map[string]map[string]models.MoodEntry // userID -> mood-<day>
	journals     map[string][]models.JournalEntry
	quizResults  map[string][]models.QuizResult
	progress     map[string]models.UserProgress
	alerts       []models.CrisisAlert
	appointments map[string][]models.Appointment
	threads      map[string][]models.ForumThread
	settings     map[string]models.Settings
	chats        map[string][]models.ChatRecord
	chatSeq      uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]models.User),
		moods:        make(map[string]map[string]models.MoodEntry),
		journals:     make(map[string][]models.JournalEntry),
		quizResults:  make(map[string][]models.QuizResult),
		progress:     make(map[string]models.UserProgress),
		appointments: make(map[string][]models.Appointment),
		threads:      make(map[string][]models.ForumThread),
		settings:     make(map[string]models.Settings),
		chats:        make(map[string][]models.ChatRecord),
	}
}

var _ Store = (*MemoryStore)(nil)

// ---- users ----

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) TouchUser(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastActive = at
	s.users[id] = u
	return nil
}

// ---- moods ----

func (s *MemoryStore) UpsertMood(_ context.Context, entry *models.MoodEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay, ok := s.moods[entry.UserID]
	if !ok {
		byDay = make(map[string]models.MoodEntry)
		s.moods[entry.UserID] = byDay
	}
	key := MoodKey(entry.Day)
	old, exists := byDay[key]
	if exists {
		entry.ID = old.ID
	}
	byDay[key] = *entry
	return !exists, nil
}

func (s *MemoryStore) GetMood(_ context.Context, userID, day string) (*models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.moods[userID][MoodKey(day)]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) ListMoods(_ context.Context, userID, fromDay, toDay string) ([]models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MoodEntry
	for _, e := range s.moods[userID] {
		if e.Day >= fromDay && e.Day <= toDay {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	return out, nil
}

func (s *MemoryStore) DeleteMoods(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.moods, userID)
	return nil
}

// ---- journals ----

func (s *MemoryStore) CreateJournal(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := JournalKey(entry.UserID)
	s.journals[key] = append(s.journals[key], *entry)
	return nil
}

func (s *MemoryStore) ListJournals(_ context.Context, userID string) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.journals[JournalKey(userID)]
	out := make([]models.JournalEntry, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}

func (s *MemoryStore) DeleteJournals(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.journals, JournalKey(userID))
	return nil
}

// ---- quiz results ----

func (s *MemoryStore) CreateQuizResult(_ context.Context, result *models.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := QuizResultsKey(result.UserID)
	r := *result
	r.Responses = copyResponses(result.Responses)
	s.quizResults[key] = append(s.quizResults[key], r)
	return nil
}

func (s *MemoryStore) ListQuizResults(_ context.Context, userID string) ([]models.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.quizResults[QuizResultsKey(userID)]
	out := make([]models.QuizResult, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		r := src[i]
		r.Responses = copyResponses(r.Responses)
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) DeleteQuizResults(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quizResults, QuizResultsKey(userID))
	return nil
}

func copyResponses(src map[int]int) map[int]int {
	dst := make(map[int]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ---- progress ----

func initialProgress(userID string) models.UserProgress {
	return models.UserProgress{UserID: userID, Level: 1, Badges: []string{}}
}

func (s *MemoryStore) GetProgress(_ context.Context, userID string) (*models.UserProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[ProgressKey(userID)]
	if !ok {
		p = initialProgress(userID)
	}
	p.Badges = append([]string{}, p.Badges...)
	return &p, nil
}

// AddPoints 在写锁内完成读-改-写
func (s *MemoryStore) AddPoints(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ProgressKey(userID)
	p, ok := s.progress[key]
	if !ok {
		p = initialProgress(userID)
	}
	p.TotalPoints += delta
	p.UpdatedAt = time.Now()
	s.progress[key] = p
	return p.TotalPoints, nil
}

func (s *MemoryStore) SaveProgressStats(_ context.Context, progress *models.UserProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ProgressKey(progress.UserID)
	p, ok := s.progress[key]
	if !ok {
		p = initialProgress(progress.UserID)
	}
	p.CurrentStreak = progress.CurrentStreak
	p.LongestStreak = progress.LongestStreak
	p.Badges = append([]string{}, progress.Badges...)
	p.Level = progress.Level
	p.UpdatedAt = time.Now()
	s.progress[key] = p
	return nil
}

func (s *MemoryStore) DeleteProgress(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, ProgressKey(userID))
	return nil
}

// ---- alerts ----

func (s *MemoryStore) CreateAlert(_ context.Context, alert *models.CrisisAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, *alert)
	return nil
}

func (s *MemoryStore) GetAlert(_ context.Context, id string) (*models.CrisisAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateAlert(_ context.Context, alert *models.CrisisAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == alert.ID {
			s.alerts[i] = *alert
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListAlerts(_ context.Context, status models.AlertStatus) ([]models.CrisisAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CrisisAlert, 0, len(s.alerts))
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if status == "" || s.alerts[i].Status == status {
			out = append(out, s.alerts[i])
		}
	}
	return out, nil
}

// ---- appointments ----

func (s *MemoryStore) CreateAppointment(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := AppointmentsKey(appt.StudentID)
	s.appointments[key] = append(s.appointments[key], *appt)
	return nil
}

func (s *MemoryStore) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.appointments {
		for _, a := range list {
			if a.ID == id {
				a := a
				return &a, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateAppointment(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.appointments[AppointmentsKey(appt.StudentID)]
	for i := range list {
		if list[i].ID == appt.ID {
			list[i] = *appt
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListAppointments(_ context.Context, studentID string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Appointment{}, s.appointments[AppointmentsKey(studentID)]...)
	sortAppointments(out)
	return out, nil
}

func (s *MemoryStore) ListCounselorAppointments(_ context.Context, counselorID string, from, to time.Time) ([]models.Appointment, error) {
	return s.filterAppointments(func(a models.Appointment) bool {
		return a.CounselorID == counselorID && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to)
	}), nil
}

func (s *MemoryStore) ListPendingReminders(_ context.Context, from, to time.Time) ([]models.Appointment, error) {
	return s.filterAppointments(func(a models.Appointment) bool {
		return a.Status == models.AppointmentScheduled && !a.ReminderSent &&
			!a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to)
	}), nil
}

func (s *MemoryStore) ListAllAppointments(_ context.Context) ([]models.Appointment, error) {
	return s.filterAppointments(func(models.Appointment) bool { return true }), nil
}

func (s *MemoryStore) filterAppointments(keep func(models.Appointment) bool) []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, list := range s.appointments {
		for _, a := range list {
			if keep(a) {
				out = append(out, a)
			}
		}
	}
	sortAppointments(out)
	return out
}

func sortAppointments(list []models.Appointment) {
	sort.Slice(list, func(i, j int) bool { return list[i].ScheduledAt.Before(list[j].ScheduledAt) })
}

func (s *MemoryStore) DeleteAppointments(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.appointments, AppointmentsKey(studentID))
	return nil
}

// ---- forum ----

func (s *MemoryStore) CreateThread(_ context.Context, thread *models.ForumThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *thread
	t.Replies = append([]models.ForumReply{}, thread.Replies...)
	s.threads[ForumThreadsKey] = append(s.threads[ForumThreadsKey], t)
	return nil
}

func (s *MemoryStore) GetThread(_ context.Context, id string) (*models.ForumThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.threads[ForumThreadsKey] {
		if t.ID == id {
			t.Replies = append([]models.ForumReply{}, t.Replies...)
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListThreads(_ context.Context) ([]models.ForumThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.threads[ForumThreadsKey]
	out := make([]models.ForumThread, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		t := src[i]
		t.Replies = append([]models.ForumReply{}, t.Replies...)
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryStore) AddReply(_ context.Context, reply *models.ForumReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.threads[ForumThreadsKey]
	for i := range list {
		if list[i].ID == reply.ThreadID {
			list[i].Replies = append(list[i].Replies, *reply)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) UpvoteThread(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.threads[ForumThreadsKey]
	for i := range list {
		if list[i].ID == id {
			list[i].Upvotes++
			return list[i].Upvotes, nil
		}
	}
	return 0, ErrNotFound
}

// ---- settings ----

func (s *MemoryStore) GetSettings(_ context.Context, userID string) (*models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[SettingsKey(userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (s *MemoryStore) SaveSettings(_ context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[SettingsKey(settings.UserID)] = *settings
	return nil
}

func (s *MemoryStore) DeleteSettings(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, SettingsKey(userID))
	return nil
}

// ---- chat ----

func (s *MemoryStore) AppendChat(_ context.Context, record *models.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatSeq++
	record.ID = s.chatSeq
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	s.chats[record.UserID] = append(s.chats[record.UserID], *record)
	return nil
}

func (s *MemoryStore) ListChats(_ context.Context, userID string, limit int) ([]models.ChatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.chats[userID]
	if limit > 0 && len(src) > limit {
		src = src[len(src)-limit:]
	}
	return append([]models.ChatRecord{}, src...), nil
}

func (s *MemoryStore) CountUserChatsSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.chats[userID] {
		if r.IsUser && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteChats(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, userID)
	return nil
}
