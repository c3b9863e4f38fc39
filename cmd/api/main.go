package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/api"
	"github.com/sanosuguru/go-ticket-sales/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-ticket-sales/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/config"
	"github.com/sanosuguru/go-ticket-sales/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-ticket-sales/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/metrics"
	"github.com/sanosuguru/go-ticket-sales/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer func() { _ = log.Sync() }()

	// PostgreSQL 接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続エラー", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		log.Fatal("マイグレーションエラー", zap.Error(err))
	}

	// Redis 接続（任意。落ちていてもキャッシュなしで起動する）
	var (
		vacancyCache *redisinfra.VacancyCache
		lockManager  *redisinfra.LockManager
	)
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis接続エラー（キャッシュなしで続行）", zap.Error(err))
	} else {
		defer redisClient.Close()
		vacancyCache = redisinfra.NewVacancyCache(redisClient)
		lockManager = redisinfra.NewLockManager(redisClient)
	}

	// メトリクス初期化
	m := metrics.Init()

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)

	// アプリケーションサービス
	allocationService := application.NewAllocationService(txManager, eventRepo, inventoryRepo, reservationRepo, m)
	eventService := application.NewEventService(txManager, eventRepo, inventoryRepo)
	reportService := application.NewReportService(eventRepo, reservationRepo, vacancyCache, lockManager, cfg.Worker.CacheTTL, m)

	// ハンドラー
	reservationHandler := handler.NewReservationHandler(allocationService)
	eventHandler := handler.NewEventHandler(eventService, reportService)
	reportHandler := handler.NewReportHandler(reportService)
	healthHandler := handler.NewHealthHandler(func(ctx context.Context) error {
		return postgres.Ping(ctx, db)
	})

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	e.GET("/events", eventHandler.ListPublic)
	e.GET("/events/:id", eventHandler.GetByID)
	e.POST("/events/:id/actions/reserve", reservationHandler.Reserve)
	e.DELETE("/events/:id/sheets/:rank/:num/reservation", reservationHandler.Cancel)
	e.GET("/users/:id", reportHandler.GetUser)

	admin := e.Group("/admin")
	admin.GET("/events", eventHandler.ListAdmin)
	admin.POST("/events", eventHandler.Create)
	admin.GET("/events/:id", eventHandler.GetAdmin)
	admin.POST("/events/:id/actions/edit", eventHandler.Edit)
	admin.GET("/reports/events/:id/sales", reportHandler.EventSales)
	admin.GET("/reports/sales", reportHandler.AllSales)

	// 残席キャッシュのリフレッシュワーカー（Redis がある場合のみ）
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var refresher *worker.VacancyRefreshWorker
	if vacancyCache != nil {
		refresher = worker.NewVacancyRefreshWorker(reportService, cfg.Worker.RefreshInterval)
		go refresher.Start(workerCtx)
	}

	// サーバー起動
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()
	log.Info("サーバー起動", zap.String("port", cfg.Server.Port))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("シャットダウン開始")

	if refresher != nil {
		refresher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	log.Info("サーバーが正常にシャットダウンしました")
}
