package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/simpananku/simpananku/internal/app"
	"github.com/simpananku/simpananku/internal/auth"
	"github.com/simpananku/simpananku/internal/classes"
	"github.com/simpananku/simpananku/internal/debts"
	"github.com/simpananku/simpananku/internal/deposits"
	"github.com/simpananku/simpananku/internal/platform/cache"
	"github.com/simpananku/simpananku/internal/platform/db"
	"github.com/simpananku/simpananku/internal/rbac"
	"github.com/simpananku/simpananku/internal/savings"
	"github.com/simpananku/simpananku/internal/shared"
	"github.com/simpananku/simpananku/internal/stats"
	"github.com/simpananku/simpananku/internal/students"
	"github.com/simpananku/simpananku/internal/users"
	"github.com/simpananku/simpananku/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := shared.NewTokenManager(redisClient, "simpananku:token", cfg.TokenTTL)
	rbacMiddleware := rbac.Middleware{Tokens: tokens, Logger: logger}

	studentsRepo := students.NewRepository(dbpool)
	studentsService := students.NewService(studentsRepo)
	studentsImporter := students.NewImporter(studentsService)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens, studentsService)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	classesRepo := classes.NewRepository(dbpool)
	classesService := classes.NewService(classesRepo)
	classesHandler := classes.NewHandler(logger, classesService)

	savingsRepo := savings.NewRepository(dbpool)
	savingsService := savings.NewService(savingsRepo)
	savingsHandler := savings.NewHandler(logger, savingsService)

	debtsRepo := debts.NewRepository(dbpool)
	debtsService := debts.NewService(debtsRepo, debtsRepo)
	debtsHandler := debts.NewHandler(logger, debtsService)

	depositsRepo := deposits.NewRepository(dbpool)
	depositsService := deposits.NewService(depositsRepo)
	depositsHandler := deposits.NewHandler(logger, depositsService)

	statsRepo := stats.NewRepository(dbpool)
	statsService := stats.NewService(statsRepo)
	statsHandler := stats.NewHandler(logger, statsService)

	studentsHandler := students.NewHandler(logger, studentsService, studentsImporter, savingsService, debtsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		StudentsHandler: studentsHandler,
		ClassesHandler:  classesHandler,
		SavingsHandler:  savingsHandler,
		DebtsHandler:    debtsHandler,
		DepositsHandler: depositsHandler,
		StatsHandler:    statsHandler,
		JobsHandler:     jobsHandler,
		RBACMiddleware:  rbacMiddleware,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
