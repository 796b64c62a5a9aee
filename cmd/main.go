package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/junho-l/pickup-system/config"
	"github.com/junho-l/pickup-system/db"
	"github.com/junho-l/pickup-system/handlers"
	"github.com/junho-l/pickup-system/places"
	"github.com/junho-l/pickup-system/realtime"
	"github.com/junho-l/pickup-system/repositories"
	api "github.com/junho-l/pickup-system/routes"
	"github.com/junho-l/pickup-system/services"
	"github.com/junho-l/pickup-system/storage"
)

const schedulerInterval = 30 * time.Second // How often the scheduler runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Клиент поиска площадок (Kakao Local API)
	placeSearcher := places.NewKakaoClient(cfg.KakaoRESTAPIKey, cfg.RequestTimeout)

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	txRunner := repositories.NewSQLTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	userSportRepo := repositories.NewPostgresUserSportRepository(dbConn)
	roomRepo := repositories.NewPostgresRoomRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	favoritePlaceRepo := repositories.NewPostgresFavoritePlaceRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	userService := services.NewUserService(userRepo, roomRepo, participantRepo, cloudflareUploader)
	sportService := services.NewSportService(sportRepo)
	userSportService := services.NewUserSportService(txRunner, userSportRepo)
	notificationService := services.NewNotificationService(notificationRepo, wsHub)
	roomService := services.NewRoomService(roomRepo, sportRepo, participantRepo)
	participationService := services.NewParticipationService(
		txRunner,
		roomRepo,
		participantRepo,
		userRepo,
		notificationService,
		wsHub,
		logger,
	)
	statusService := services.NewStatusService(
		roomRepo,
		participantRepo,
		notificationService,
		wsHub,
		logger,
	)
	favoritePlaceService := services.NewFavoritePlaceService(favoritePlaceRepo)
	logger.Info("Services initialized")

	// Запуск планировщика завершения комнат с прошедшей датой игры
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("room completion scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker
		if err := statusService.CompleteExpiredRooms(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := statusService.CompleteExpiredRooms(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, userSportService)
	sportHandler := handlers.NewSportHandler(sportService)
	roomHandler := handlers.NewRoomHandler(roomService, statusService)
	participantHandler := handlers.NewParticipantHandler(participationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	placeHandler := handlers.NewPlaceHandler(placeSearcher, favoritePlaceService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		cfg.RequestTimeout,
		authHandler,
		userHandler,
		sportHandler,
		roomHandler,
		participantHandler,
		notificationHandler,
		placeHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
