package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/findperson-backend/internal/config"
	"github.com/ignatzorin/findperson-backend/internal/db"
	"github.com/ignatzorin/findperson-backend/internal/geocode"
	httpHandlers "github.com/ignatzorin/findperson-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/findperson-backend/internal/http/router"
	"github.com/ignatzorin/findperson-backend/internal/logger"
	"github.com/ignatzorin/findperson-backend/internal/repository"
	"github.com/ignatzorin/findperson-backend/internal/service"
	"github.com/ignatzorin/findperson-backend/internal/storage"
	"github.com/ignatzorin/findperson-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Postgres: пользователи и сессии.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// MongoDB: заявки с геопривязкой.
	mongoDB, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("main: ошибка подключения к mongodb: %v", err)
	}
	defer func() {
		if err := db.CloseMongo(context.Background(), mongoDB); err != nil {
			log.Printf("main: ошибка закрытия mongodb: %v", err)
		}
	}()

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder, cfg.MaxUploadSizeMB, cfg.UploadTimeout)
	if err != nil {
		log.Fatalf("main: не удалось подготовить хранилище фотографий: %v", err)
	}

	geocoder := geocode.NewClient(cfg.OpenCageBaseURL, cfg.OpenCageAPIKey, cfg.GeocodeTimeout)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	reportRepo := repository.NewReportRepository(mongoDB)

	// Индексы объявляются до приёма трафика: без 2dsphere гео-запросы не работают.
	if err := reportRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("main: ошибка создания индексов: %v", err)
	}

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	reportService := service.NewReportService(reportRepo, geocoder, photoStorage)

	// Вебсокеты: лента новых заявок.
	hub := ws.NewHub()
	go hub.Run()
	reportService.SetNotifier(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	reportHandler := httpHandlers.NewReportHandler(reportService, photoStorage.MaxUploadBytes(), cfg.Env == "development")
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, mongoDB.Client())

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, reportHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
