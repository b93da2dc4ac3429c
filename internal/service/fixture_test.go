package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"studenthub-backend/internal/auth"
	"studenthub-backend/internal/crypto"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/notify"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

type fakeNotifier struct {
	mu      sync.Mutex
	alerts  []*models.CrisisAlert
	reminds []string
	err     error
}

func (n *fakeNotifier) AlertCounselors(_ context.Context, alert *models.CrisisAlert, _ *models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *fakeNotifier) Remind(_ context.Context, to notify.Recipient, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminds = append(n.reminds, text)
	return nil
}

type fakeHub struct {
	mu     sync.Mutex
	events []models.CrisisAlert
}

func (h *fakeHub) Broadcast(alert *models.CrisisAlert) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, *alert)
}

type fixture struct {
	now      time.Time
	store    *store.MemoryStore
	notifier *fakeNotifier
	hub      *fakeHub
	cipher   *crypto.Cipher

	auth         *AuthService
	progress     *ProgressService
	alerts       *AlertService
	mood         *MoodService
	journal      *JournalService
	quiz         *QuizService
	forum        *ForumService
	appointments *AppointmentService
	settings     *SettingsService
	account      *AccountService
	admin        *AdminService
}

// 2025-06-02 是周一
var fixtureNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		now:      fixtureNow,
		store:    store.NewMemoryStore(),
		notifier: &fakeNotifier{},
		hub:      &fakeHub{},
		cipher:   cipher,
	}
	clock := func() time.Time { return f.now }
	detector := wellness.NewCrisisDetector(nil)
	streaks := wellness.NewStreakCalculator(30, time.UTC)

	f.auth = NewAuthService(f.store, auth.NewTokenManager("test-secret", time.Hour), logger)
	f.progress = NewProgressService(f.store, logger)
	f.alerts = NewAlertService(f.store, f.notifier, f.hub, logger)
	f.mood = NewMoodService(f.store, f.progress, f.alerts, streaks, logger)
	f.journal = NewJournalService(f.store, cipher, detector, wellness.NewSentimentTagger(nil), f.progress, f.alerts, logger)
	f.quiz = NewQuizService(f.store, f.progress, f.alerts, logger)
	f.forum = NewForumService(f.store, f.progress, logger)
	f.appointments = NewAppointmentService(f.store, cipher, time.UTC, logger)
	f.settings = NewSettingsService(f.store, logger)
	f.account = NewAccountService(f.store, f.journal, f.appointments, f.settings, f.progress, logger)
	f.admin = NewAdminService(f.store, time.UTC, logger)

	f.auth.now = clock
	f.alerts.now = clock
	f.mood.now = clock
	f.journal.now = clock
	f.quiz.now = clock
	f.forum.now = clock
	f.appointments.now = clock
	f.settings.now = clock
	f.account.now = clock
	f.admin.now = clock
	return f
}

func (f *fixture) user(t *testing.T, id string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		ID:         id,
		Email:      id + "@university.edu",
		Name:       "User " + id,
		Role:       role,
		Language:   models.LangEN,
		CreatedAt:  f.now,
		LastActive: f.now,
	}
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}
