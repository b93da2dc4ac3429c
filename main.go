package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"studenthub-backend/internal/auth"
	"studenthub-backend/internal/chatbot"
	"studenthub-backend/internal/config"
	"studenthub-backend/internal/crypto"
	"studenthub-backend/internal/db"
	"studenthub-backend/internal/logger"
	"studenthub-backend/internal/logic"
	"studenthub-backend/internal/notify"
	"studenthub-backend/internal/service"
	"studenthub-backend/internal/store"
	"studenthub-backend/internal/wellness"
)

// 未配置 JWT_SECRET 时的开发环境密钥，生产环境会在配置校验时拒绝
const devJWTSecret = "studenthub-dev-secret"

func main() {
	// 加载配置
	conf, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	// 初始化日志
	zl, err := logger.New(conf.LogDir, conf.IsProduction())
	if err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, _ := conf.Location()
	hour, minute, _ := conf.ReminderClock()

	st, cleanup, err := openStore(ctx, conf, zl)
	if err != nil {
		zl.Fatal("无法初始化存储", zap.Error(err))
	}
	defer cleanup()

	lex, err := wellness.LoadLexicon(conf.CrisisKeywordsFile)
	if err != nil {
		zl.Fatal("无法加载关键词表", zap.String("file", conf.CrisisKeywordsFile), zap.Error(err))
	}
	detector := wellness.NewCrisisDetector(lex)
	tagger := wellness.NewSentimentTagger(lex)
	streaks := wellness.NewStreakCalculator(conf.StreakWindowDays, loc)

	var cipher *crypto.Cipher
	if conf.JournalKey != "" {
		if cipher, err = crypto.NewCipherFromBase64(conf.JournalKey); err != nil {
			zl.Fatal("JOURNAL_KEY 无效", zap.Error(err))
		}
	} else {
		zl.Warn("JOURNAL_KEY not set, journals are stored in plaintext")
	}

	notifier := newNotifier(conf, zl)

	provider, err := chatbot.NewProvider(ctx, chatbot.ProviderConfig{
		Name:             conf.ChatProvider,
		GeminiAPIKey:     conf.GeminiAPIKey,
		GeminiModel:      conf.GeminiModel,
		OpenAIToken:      conf.OpenAIToken,
		OpenAIModel:      conf.OpenAIModel,
		OpenAIBaseURL:    conf.OpenAIBaseURL,
		TencentSecretID:  conf.TencentSecretID,
		TencentSecretKey: conf.TencentSecretKey,
		HunyuanModel:     conf.HunyuanModel,
	}, zl)
	if err != nil {
		if !errors.Is(err, chatbot.ErrNotConfigured) {
			zl.Fatal("无法初始化聊天模型", zap.Error(err))
		}
		zl.Warn("Chatbot disabled", zap.Error(err))
		provider = nil
	} else {
		zl.Info("Chatbot provider ready", zap.String("provider", provider.Name()))
		if closer, ok := provider.(io.Closer); ok {
			defer closer.Close()
		}
	}

	secret := conf.JWTSecret
	if secret == "" {
		zl.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	hub := logic.NewAlertHub(zl)
	authSvc := service.NewAuthService(st, auth.NewTokenManager(secret, auth.DefaultTokenTTL), zl)
	if err := authSvc.SeedDemoUsers(ctx); err != nil {
		zl.Fatal("无法写入演示账号", zap.Error(err))
	}
	progress := service.NewProgressService(st, zl)
	alerts := service.NewAlertService(st, notifier, hub, zl)
	journal := service.NewJournalService(st, cipher, detector, tagger, progress, alerts, zl)
	appointments := service.NewAppointmentService(st, cipher, loc, zl)
	settings := service.NewSettingsService(st, zl)

	deps := &logic.Deps{
		Auth:         authSvc,
		Progress:     progress,
		Alerts:       alerts,
		Mood:         service.NewMoodService(st, progress, alerts, streaks, zl),
		Journal:      journal,
		Quiz:         service.NewQuizService(st, progress, alerts, zl),
		Forum:        service.NewForumService(st, progress, zl),
		Appointments: appointments,
		Settings:     settings,
		Account:      service.NewAccountService(st, journal, appointments, settings, progress, zl),
		Admin:        service.NewAdminService(st, loc, zl),
		Chat: chatbot.NewService(provider, st, detector, alerts, chatbot.Options{
			MaxPerDay: conf.ChatMaxPerDay,
			MaxRunes:  conf.ChatMaxRunes,
			Location:  loc,
		}, zl),
		Hub:    hub,
		Logger: zl,
	}

	go hub.Run(ctx)

	// 启动定时任务调度器
	scheduler := logic.NewScheduler(st, notifier, appointments, logic.SchedulerConfig{
		ReminderHour:        hour,
		ReminderMinute:      minute,
		AppointmentInterval: conf.AppointmentReminderInterval,
		Location:            loc,
	}, zl)
	scheduler.Start(ctx)

	if conf.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    ":" + conf.ServerPort,
		Handler: logic.SetupRouter(deps),
	}

	go func() {
		zl.Info("启动服务器", zap.String("port", conf.ServerPort), zap.String("storage", conf.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号以实现优雅关闭
	<-ctx.Done()
	zl.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("服务器关闭失败", zap.Error(err))
	}

	scheduler.Wait()
	zl.Info("服务器已关闭")
}

// openStore 按配置选择内存或 MySQL 存储，配置了 Redis 时进度改存 Redis
func openStore(ctx context.Context, conf *config.Config, zl *zap.Logger) (store.Store, func(), error) {
	var (
		st      store.Store
		closers []func()
	)
	switch conf.StorageDriver {
	case "mysql":
		conn, err := db.InitDB(conf.MySQLDSN, zl)
		if err != nil {
			return nil, nil, err
		}
		if sqlDB, err := conn.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		st = db.NewStore(conn)
	default:
		st = store.NewMemoryStore()
		zl.Warn("Using in-memory storage, data is lost on restart")
	}

	if conf.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		st = store.WithProgress(st, store.NewRedisProgressStore(client))
		zl.Info("Progress counters stored in Redis", zap.String("addr", conf.RedisAddr))
	}

	return st, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func newNotifier(conf *config.Config, zl *zap.Logger) notify.Notifier {
	if conf.TelegramBotToken == "" {
		zl.Warn("TELEGRAM_BOT_TOKEN not set, notifications are only logged")
		return notify.NewLogNotifier(zl)
	}
	tg, err := notify.NewTelegramNotifier(conf.TelegramBotToken, conf.TelegramCounselorChatID, zl)
	if err != nil {
		zl.Error("Failed to start Telegram notifier, falling back to logs", zap.Error(err))
		return notify.NewLogNotifier(zl)
	}
	return tg
}
