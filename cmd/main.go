package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/driftchat/realtime/internal/config"
	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/internal/events"
	"github.com/driftchat/realtime/internal/handler"
	"github.com/driftchat/realtime/internal/hub"
	"github.com/driftchat/realtime/internal/registry"
	"github.com/driftchat/realtime/internal/repository"
	"github.com/driftchat/realtime/internal/service"
	"github.com/driftchat/realtime/pkg/database"
	"github.com/driftchat/realtime/pkg/jwt"
	"github.com/driftchat/realtime/pkg/log"
	"github.com/driftchat/realtime/pkg/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting realtime service")

	if cfg.JWT.Secret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.Conversation{},
		&domain.Message{},
		&domain.Friendship{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	store, err := storage.NewLocalStorage(cfg.Upload.Local)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise storage")
	}

	verifier := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Duration, cfg.JWT.Issuer)

	convRepo := repository.NewGormConversationRepository(db)
	msgRepo := repository.NewGormMessageRepository(db)
	friendRepo := repository.NewGormFriendshipRepository(db)

	bus := events.NewBus()
	reg := registry.New()

	wsHub := hub.New()
	go wsHub.Run()

	chatSvc := service.NewChatService(wsHub, reg, convRepo, msgRepo, friendRepo, verifier, bus)
	friendsSvc := service.NewFriendsService(friendRepo, bus)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(logger))

	authMW := handler.RequireAuth(verifier)

	handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket).RegisterRoutes(router)
	handler.NewHTTPHandler(convRepo, msgRepo, friendsSvc).RegisterRoutes(router, authMW)
	handler.NewUploadHandler(store, cfg.Upload).RegisterRoutes(router, authMW)

	router.Static("/uploads", cfg.Upload.Local.BasePath)
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("stopped")
}
