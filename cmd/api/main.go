package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-platform/internal/audit"
	"crm-platform/internal/auth"
	"crm-platform/internal/authz"
	"crm-platform/internal/config"
	"crm-platform/internal/fields"
	"crm-platform/internal/httpapi"
	"crm-platform/pkg/logger"
	"crm-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Policy is loaded once and immutable afterwards; everything downstream
	// shares this value.
	policy := authz.DefaultPolicy()
	if cfg.Authz.PolicyFile != "" {
		policy, err = authz.LoadPolicyFile(cfg.Authz.PolicyFile)
		if err != nil {
			log.Error("policy load failed", "err", err)
			os.Exit(1)
		}
		log.Info("policy overrides loaded", "file", cfg.Authz.PolicyFile)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	auditRepo := audit.NewPostgresRepo(db)
	recorder := audit.NewRecorder(auditRepo, log)
	auditQuery := audit.NewQuery(auditRepo, recorder, rdb, log, cfg.Audit.StatsCacheTTL)

	h := httpapi.Handlers{
		Auth:     authManager,
		Policy:   policy,
		Fields:   fields.NewResolver(policy),
		Entities: httpapi.NewMemoryEntityStore(),

		Recorder:   recorder,
		AuditQuery: auditQuery,

		RDB:              rdb,
		ExportRateLimit:  cfg.Audit.ExportRateLimit,
		ExportRateWindow: cfg.Audit.ExportRateWindow,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, policy, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
