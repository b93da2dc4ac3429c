package logic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studenthub-backend/internal/chatbot"
	"studenthub-backend/internal/models"
	"studenthub-backend/internal/service"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

// Deps 路由依赖的业务服务
type Deps struct {
	Auth         *service.AuthService
	Progress     *service.ProgressService
	Alerts       *service.AlertService
	Mood         *service.MoodService
	Journal      *service.JournalService
	Quiz         *service.QuizService
	Forum        *service.ForumService
	Appointments *service.AppointmentService
	Settings     *service.SettingsService
	Account      *service.AccountService
	Admin        *service.AdminService
	Chat         *chatbot.Service
	Hub          *AlertHub
	Logger       *zap.Logger
}

type handler struct {
	*Deps
}

// SetupRouter 路由入口
func SetupRouter(d *Deps) *gin.Engine {
	h := &handler{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Logger), CORS())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.POST("/auth", h.AuthHandler)
	api.GET("/quizzes", h.QuizzesHandler)
	api.GET("/badges", h.BadgesHandler)

	authed := api.Group("", AuthRequired(d.Auth))
	{
		authed.GET("/forums", h.ListThreadsHandler)
		authed.POST("/forums", h.CreateThreadHandler)
		authed.GET("/forums/:id", h.GetThreadHandler)
		authed.POST("/forums/:id/replies", h.ReplyHandler)
		authed.POST("/forums/:id/upvote", h.UpvoteHandler)

		authed.GET("/counselors", h.CounselorsHandler)
		authed.GET("/counselors/:id/slots", h.SlotsHandler)

		authed.GET("/settings", h.GetSettingsHandler)
		authed.PUT("/settings", h.UpdateSettingsHandler)

		authed.GET("/me/export", h.ExportHandler)
		authed.DELETE("/me/data", h.DeleteDataHandler)

		authed.POST("/chatbot", h.ChatHandler)
		authed.GET("/chatbot/history", h.ChatHistoryHandler)
	}

	student := api.Group("", AuthRequired(d.Auth), RequireRole(models.RoleStudent))
	{
		student.POST("/mood", h.LogMoodHandler)
		student.GET("/mood", h.ListMoodHandler)
		student.GET("/mood/streak", h.StreakHandler)
		student.GET("/mood/summary", h.MoodSummaryHandler)
		student.GET("/mood/export", h.MoodExportHandler)

		student.POST("/journal", h.CreateJournalHandler)
		student.GET("/journal", h.ListJournalHandler)

		student.GET("/quizzes/results", h.QuizResultsHandler)
		student.POST("/quizzes/:type", h.SubmitQuizHandler)

		student.GET("/progress", h.ProgressHandler)

		student.POST("/appointments", h.BookHandler)
		student.GET("/appointments", h.ListAppointmentsHandler)
		student.POST("/appointments/:id/cancel", h.CancelAppointmentHandler)
	}

	admin := api.Group("/admin", AuthRequired(d.Auth), RequireRole(models.RoleCounselor, models.RoleAdmin))
	{
		admin.GET("/stats", h.StatsHandler)
		admin.GET("/alerts", h.ListAlertsHandler)
		admin.POST("/alerts/:id/acknowledge", h.AcknowledgeAlertHandler)
		admin.POST("/alerts/:id/resolve", h.ResolveAlertHandler)
		admin.POST("/appointments/:id/status", h.AppointmentStatusHandler)
		if d.Hub != nil {
			admin.GET("/alerts/ws", d.Hub.ServeWS)
		}
	}

	return r
}

// respondError 业务错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, wellness.ErrInvalidResponses),
		errors.Is(err, chatbot.ErrMessageTooLong):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, wellness.ErrUnknownQuiz):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrEmailTaken):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, chatbot.ErrDailyLimit):
		status, msg = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, chatbot.ErrNotConfigured):
		msg = "Server misconfigured: " + err.Error()
	case errors.Is(err, chatbot.ErrUpstream):
		msg = "Failed to get a reply from the assistant"
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// ---- auth ----

type authRequest struct {
	Action   string             `json:"action"`
	Email    string             `json:"email"`
	Password string             `json:"password"`
	UserData service.SignUpData `json:"userData"`
}

// AuthHandler signin/signup/signout
func (h *handler) AuthHandler(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	ctx := c.Request.Context()

	switch req.Action {
	case "signin":
		session, err := h.Auth.SignIn(ctx, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": session.User, "token": session.Token, "expiresAt": session.ExpiresAt})
	case "signup":
		session, err := h.Auth.SignUp(ctx, req.Email, req.Password, req.UserData)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "user": session.User, "token": session.Token, "expiresAt": session.ExpiresAt})
	case "signout":
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token != "" {
			if user, err := h.Auth.Authenticate(ctx, token); err == nil {
				if err := h.Auth.SignOut(ctx, user.ID); err != nil {
					h.Logger.Warn("Sign out bookkeeping failed", zap.String("userID", user.ID), zap.Error(err))
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	default:
		badRequest(c, "Invalid action")
	}
}

// ---- mood ----

func (h *handler) LogMoodHandler(c *gin.Context) {
	var req struct {
		Mood      int    `json:"mood"`
		Note      string `json:"note"`
		IsPrivate bool   `json:"isPrivate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.Mood.Log(c.Request.Context(), mustUser(c).ID, req.Mood, req.Note, req.IsPrivate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) ListMoodHandler(c *gin.Context) {
	entries, err := h.Mood.List(c.Request.Context(), mustUser(c).ID, c.Query("includePrivate") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *handler) StreakHandler(c *gin.Context) {
	streak, err := h.Mood.Streak(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentStreak": streak})
}

func (h *handler) MoodSummaryHandler(c *gin.Context) {
	summary, err := h.Mood.Summary(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handler) MoodExportHandler(c *gin.Context) {
	data, err := h.Mood.ExportCSV(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("mood-export-%s.csv", time.Now().Format(wellness.DayLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ---- journal ----

func (h *handler) CreateJournalHandler(c *gin.Context) {
	var req service.JournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	entry, err := h.Journal.Create(c.Request.Context(), mustUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *handler) ListJournalHandler(c *gin.Context) {
	entries, err := h.Journal.List(c.Request.Context(), mustUser(c).ID, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ---- quizzes & progress ----

func (h *handler) QuizzesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quizzes": wellness.Quizzes(models.Language(c.Query("lang")))})
}

func (h *handler) SubmitQuizHandler(c *gin.Context) {
	var req struct {
		Responses json.RawMessage `json:"responses"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	responses, err := parseResponses(req.Responses)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := h.Quiz.Submit(c.Request.Context(), mustUser(c).ID, models.QuizType(c.Param("type")), responses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseResponses 作答既可以是数组，也可以是 {"题目下标": 分值}
func parseResponses(raw json.RawMessage) (map[int]int, error) {
	if len(raw) == 0 {
		return nil, errors.New("responses are required")
	}
	var list []int
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make(map[int]int, len(list))
		for i, v := range list {
			out[i] = v
		}
		return out, nil
	}
	var byIndex map[int]int
	if err := json.Unmarshal(raw, &byIndex); err != nil {
		return nil, errors.New("responses must be an array or an object of question index to score")
	}
	return byIndex, nil
}

func (h *handler) QuizResultsHandler(c *gin.Context) {
	results, err := h.Quiz.Results(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *handler) ProgressHandler(c *gin.Context) {
	progress, err := h.Progress.Get(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *handler) BadgesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"badges": wellness.BadgeList()})
}

// ---- forums ----

func (h *handler) ListThreadsHandler(c *gin.Context) {
	threads, err := h.Forum.List(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

func (h *handler) GetThreadHandler(c *gin.Context) {
	thread, err := h.Forum.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *handler) CreateThreadHandler(c *gin.Context) {
	var req service.ThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	thread, err := h.Forum.CreateThread(c.Request.Context(), mustUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (h *handler) ReplyHandler(c *gin.Context) {
	var req service.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	reply, err := h.Forum.Reply(c.Request.Context(), mustUser(c).ID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (h *handler) UpvoteHandler(c *gin.Context) {
	votes, err := h.Forum.Upvote(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upvotes": votes})
}

// ---- counselors & appointments ----

func (h *handler) CounselorsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"counselors": h.Appointments.Counselors()})
}

func (h *handler) SlotsHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		badRequest(c, "date is required")
		return
	}
	slots, err := h.Appointments.Slots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

func (h *handler) BookHandler(c *gin.Context) {
	var req service.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	appt, err := h.Appointments.Book(c.Request.Context(), mustUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *handler) ListAppointmentsHandler(c *gin.Context) {
	list, err := h.Appointments.List(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) CancelAppointmentHandler(c *gin.Context) {
	appt, err := h.Appointments.Cancel(c.Request.Context(), mustUser(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// ---- settings & account ----

func (h *handler) GetSettingsHandler(c *gin.Context) {
	settings, err := h.Settings.Get(c.Request.Context(), mustUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *handler) UpdateSettingsHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		badRequest(c, "Invalid request body")
		return
	}
	settings, err := h.Settings.Update(c.Request.Context(), mustUser(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *handler) ExportHandler(c *gin.Context) {
	export, err := h.Account.Export(c.Request.Context(), mustUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, export)
}

func (h *handler) DeleteDataHandler(c *gin.Context) {
	if err := h.Account.DeleteAll(c.Request.Context(), mustUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- chatbot ----

func (h *handler) ChatHandler(c *gin.Context) {
	var req chatbot.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: missing message")
		return
	}
	reply, err := h.Chat.Chat(c.Request.Context(), mustUser(c), req)
	if err != nil {
		if errors.Is(err, chatbot.ErrMissingMessage) {
			badRequest(c, "Invalid request: missing message")
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *handler) ChatHistoryHandler(c *gin.Context) {
	records, err := h.Chat.History(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

// ---- admin ----

func (h *handler) StatsHandler(c *gin.Context) {
	stats, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handler) ListAlertsHandler(c *gin.Context) {
	alerts, err := h.Alerts.List(c.Request.Context(), models.AlertStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *handler) AcknowledgeAlertHandler(c *gin.Context) {
	alert, err := h.Alerts.Acknowledge(c.Request.Context(), c.Param("id"), mustUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *handler) ResolveAlertHandler(c *gin.Context) {
	alert, err := h.Alerts.Resolve(c.Request.Context(), c.Param("id"), mustUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *handler) AppointmentStatusHandler(c *gin.Context) {
	var req struct {
		Status models.AppointmentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	appt, err := h.Appointments.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}
