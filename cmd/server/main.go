package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/handymanapp/handyman-backend/internal/config"
	"github.com/handymanapp/handyman-backend/internal/db"
	"github.com/handymanapp/handyman-backend/internal/goroutine"
	httpHandlers "github.com/handymanapp/handyman-backend/internal/http/handlers"
	httpRouter "github.com/handymanapp/handyman-backend/internal/http/router"
	"github.com/handymanapp/handyman-backend/internal/logger"
	"github.com/handymanapp/handyman-backend/internal/pricing"
	"github.com/handymanapp/handyman-backend/internal/repository"
	"github.com/handymanapp/handyman-backend/internal/service"
	"github.com/handymanapp/handyman-backend/internal/storage"
	"github.com/handymanapp/handyman-backend/internal/weather"
	"github.com/handymanapp/handyman-backend/internal/ws"
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
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции. Геопоиск требует PostGIS.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	if err := db.EnsurePostGIS(ctx, dbConn); err != nil {
		log.Fatalf("main: PostGIS недоступен: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	locationRepo := repository.NewLocationRepository(dbConn)

	// Первичное назначение администраторов из ADMIN_EMAILS.
	if len(cfg.AdminEmails) > 0 {
		promoted, err := userRepo.PromoteAdmins(ctx, cfg.AdminEmails)
		if err != nil {
			log.Fatalf("main: не удалось назначить администраторов: %v", err)
		}
		if promoted > 0 {
			log.Printf("main: назначено администраторов: %d", promoted)
		}
	}
	providerRepo := repository.NewProviderRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	verificationRepo := repository.NewVerificationRepository(dbConn)

	// Ценообразование и погода.
	pricingEngine := pricing.NewEngine(cfg.SurgeMultiplierMax)
	weatherSource := weather.NewCachedSource(weather.NewClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey), 10*time.Minute)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, providerRepo, tokenManager)
	providerService := service.NewProviderService(providerRepo, tokenManager)
	locationService := service.NewLocationService(locationRepo)
	verificationService := service.NewVerificationService(verificationRepo)
	jobService := service.NewJobService(jobRepo, locationRepo, providerRepo, pricingEngine, weatherSource, hub, cfg.DefaultSearchRadiusKM, cfg.JobExpiry)

	// Фоновое закрытие просроченных заявок.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		jobService.RunExpirySweeper(ctx, cfg.ExpirySweepInterval)
	})

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	jobHandler := httpHandlers.NewJobHandler(jobService, mediaStorage)
	providerHandler := httpHandlers.NewProviderHandler(providerService, jobService, verificationService, mediaStorage)
	locationHandler := httpHandlers.NewLocationHandler(locationService)
	adminHandler := httpHandlers.NewAdminHandler(providerService, verificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, jobHandler, providerHandler, locationHandler, adminHandler, wsHandler, healthHandler, tokenManager)

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
