package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // scheduler timezones on minimal images

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/taskearn/ledger/docs"
	"github.com/taskearn/ledger/internal/audit"
	"github.com/taskearn/ledger/internal/config"
	"github.com/taskearn/ledger/internal/database"
	"github.com/taskearn/ledger/internal/handlers"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/metrics"
	mW "github.com/taskearn/ledger/internal/middleware"
	"github.com/taskearn/ledger/internal/services"
	"go.uber.org/zap"
)

// @title TaskEarn Ledger API
// @version 1.0
// @description Commission and wallet ledger for the referral task-earning platform
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	config.Init()
	cfg := config.Load()

	logger, err := logging.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	rates, err := config.LoadRateTables()
	if err != nil {
		logger.Fatal("Failed to load commission rate tables", zap.Error(err))
	}
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		logger.Fatal("Invalid scheduler timezone", zap.String("timezone", cfg.Scheduler.Timezone), zap.Error(err))
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port

	ctx := context.Background()
	db := database.InitDatabase(ctx, logger)
	defer db.Close()

	redisClient := database.InitRedis(ctx, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Without redis there is no event bus and failed upgrade rewards wait for the repair schedule.
	var (
		events services.EventPublisher
		queue  services.RetryQueue
	)
	if redisClient != nil {
		events = services.NewRedisEventPublisher(redisClient, cfg.Events.Channel)
		queue = services.NewRedisRetryQueue(redisClient, cfg.Events.RetryQueue)
	}

	ledger := services.NewLedgerService(db, audit.NewAuditLogger(logger), logger, m)
	catalog := services.NewPositionCatalog(db)
	hierarchy := services.NewHierarchyService(db, logger)
	rateTable := services.NewConfigRateTable(rates)
	gate := services.NewTaskGate(db, catalog, loc)

	taskIncome := services.NewTaskIncomeService(services.TaskIncomeDeps{
		DB:            db,
		Ledger:        ledger,
		Hierarchy:     hierarchy,
		Rates:         rateTable,
		Positions:     catalog,
		Gate:          gate,
		Events:        events,
		Logger:        logger,
		Metrics:       m,
		MinWatchRatio: cfg.Task.MinWatchRatio,
	})
	upgrades := services.NewUpgradeService(services.UpgradeDeps{
		DB:             db,
		Ledger:         ledger,
		Hierarchy:      hierarchy,
		Rates:          rateTable,
		Positions:      catalog,
		Queue:          queue,
		Events:         events,
		Logger:         logger,
		Metrics:        m,
		InitialBackoff: cfg.Repair.InitialBackoff,
	})
	topups := services.NewTopupService(db, ledger, cfg.Topup.BonusPercent, logger)
	withdrawals := services.NewWithdrawalService(db, ledger, events, cfg.Withdrawal.MinAmount, logger)
	refunds := services.NewRefundService(db)
	referrals := services.NewReferralService(db, redisClient, hierarchy, cfg.Referral.InviteBaseURL)
	authService := services.NewAuthService(db, redisClient, hierarchy, logger)

	repair := services.NewRepairService(db, taskIncome, upgrades, queue, cfg.Repair, logger, m)
	if err := repair.Start(); err != nil {
		logger.Fatal("Failed to start repair worker", zap.String("schedule", cfg.Repair.Schedule), zap.Error(err))
	}
	defer repair.Stop()

	mW.InitAuthMiddleware(redisClient)

	api := handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService, logger),
		Tasks:     handlers.NewTaskHandler(taskIncome, logger),
		Positions: handlers.NewPositionHandler(upgrades, gate, catalog, logger),
		Wallet:    handlers.NewWalletHandler(ledger, topups, withdrawals, refunds, logger),
		Referrals: handlers.NewReferralHandler(referrals, logger),
		Admin:     handlers.NewAdminHandler(topups, withdrawals, refunds, ledger, logger),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(m.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", api.Mount)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
