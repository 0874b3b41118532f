package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"lifequest_miniapp/internal/api"
	"lifequest_miniapp/internal/metrics"
	"lifequest_miniapp/internal/notify"
	"lifequest_miniapp/internal/reminder"
	"lifequest_miniapp/internal/repository"
	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/pkg/auth"
	"lifequest_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	notifier, err := notify.NewTelegramNotifier(cfg.TelegramAuth.TelegramBotToken)
	if err != nil {
		zapLogger.Fatal("Failed to initialize telegram notifier", zap.Error(err))
	}
	avatarTrigger := notify.NewWebhookAvatarTrigger(cfg.Avatar.WebhookURL)
	effects := notify.NewDispatcher()
	eventHub := api.NewEventHub()

	userService := service.NewUserService(repo, repo, repo, avatarTrigger, effects)
	questService := service.NewQuestService(repo, repo, repo, repo, notifier, avatarTrigger, effects, eventHub)
	goalService := service.NewGoalService(repo, repo, notifier, effects)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	m := metrics.New()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(m.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewHealthRoutes(a, repo)
	a.GET("/metrics", m.Handler())
	api.NewUserRoutes(a, userService, telegramAuth)
	api.NewQuestRoutes(a, questService, telegramAuth)
	api.NewGoalRoutes(a, goalService, telegramAuth)
	api.NewWebhookRoutes(a, userService)
	api.NewEventRoutes(a, eventHub, telegramAuth)

	if cfg.Reminder.Enabled {
		scheduler := reminder.NewScheduler(repo, notifier, cfg.Reminder.CronSpec)
		if err := scheduler.Start(); err != nil {
			zapLogger.Fatal("Failed to start reminder scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
