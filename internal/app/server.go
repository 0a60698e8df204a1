// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vigilance-service/internal/config"
	"vigilance-service/internal/db"
	"vigilance-service/internal/domain/auth"
	authHandler "vigilance-service/internal/handlers/auth"
	checklistHandler "vigilance-service/internal/handlers/checklist"
	condoHandler "vigilance-service/internal/handlers/condominium"
	exportHandler "vigilance-service/internal/handlers/export"
	fleetHandler "vigilance-service/internal/handlers/fleet"
	wsHandler "vigilance-service/internal/handlers/websocket"
	"vigilance-service/internal/imaging"
	"vigilance-service/internal/middleware"
	"vigilance-service/internal/pkg/jwt"
	"vigilance-service/internal/pkg/retry"
	"vigilance-service/internal/pkg/session"
	"vigilance-service/internal/report"
	"vigilance-service/internal/repository/postgres"
	redisrepo "vigilance-service/internal/repository/redis"
	authUsecase "vigilance-service/internal/service/auth"
	checklistUsecase "vigilance-service/internal/service/checklist"
	condoUsecase "vigilance-service/internal/service/condominium"
	exportUsecase "vigilance-service/internal/service/export"
	fleetUsecase "vigilance-service/internal/service/fleet"
	"vigilance-service/internal/websocket"
	wsHandlers "vigilance-service/internal/websocket/handler"
)

type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	httpServer  *http.Server
	pool        *pgxpool.Pool
	redisClient *redis.Client
	stopHub     context.CancelFunc
	authService *authUsecase.AuthService
}

func NewServer(logger *zap.Logger) *Server {
	cfg := config.Load()
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine, logger: logger}
}

// Start wires every component and serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	ctx := context.Background()
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	if err := db.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("postgres connected")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return err
	}
	s.redisClient = redisClient
	logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	condoRepo := postgres.NewCondominiumRepository(pool)
	vigilanteRepo := postgres.NewVigilanteRepository(pool)
	motorcycleRepo := postgres.NewMotorcycleRepository(pool)
	checklistRepo := postgres.NewChecklistRepository(pool)
	draftStore := redisrepo.NewDraftStore(redisClient, s.cfg.DraftTTL)
	downloadStore := redisrepo.NewDownloadStore(redisClient, s.cfg.DownloadTTL)

	// ----- Report Generator -----
	generator, err := s.newGenerator()
	if err != nil {
		return err
	}

	// ----- Services (Usecases) -----
	condoService := condoUsecase.NewCondominiumService(condoRepo, vigilanteRepo, logger)

	// The hub authenticates through the auth service, which notifies the hub.
	var authService *authUsecase.AuthService
	hub := websocket.NewHub(websocket.AuthenticatorFunc(func(ctx context.Context, token string) (*auth.Principal, error) {
		return authService.Authenticate(ctx, token)
	}), condoRepo, logger)

	authService = authUsecase.NewAuthService(
		userRepo,
		jwtManager,
		sessionManager,
		rateLimiter,
		hub,
		s.cfg.AdminEmails,
		logger,
	)
	s.authService = authService

	fleetService := fleetUsecase.NewFleetService(condoService, vigilanteRepo, motorcycleRepo, authService, logger)
	checklistService := checklistUsecase.NewChecklistService(
		checklistRepo,
		draftStore,
		condoService,
		vigilanteRepo,
		motorcycleRepo,
		generator,
		hub,
		logger,
	)
	exportService := exportUsecase.NewExportService(
		checklistRepo,
		checklistService,
		condoService,
		generator,
		hub,
		s.cfg.ExportSettleDelay,
		logger,
	)

	// ----- WebSocket Hub -----
	hub.RegisterHandler(wsHandlers.NewChecklistHandler(checklistService))
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Bootstrap Admin -----
	if err := s.bootstrapAdmin(); err != nil {
		logger.Error("failed to bootstrap admin", zap.Error(err))
	}

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.PrometheusMiddleware(),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:        authHandler.NewAuthHandler(authService, logger),
		CondominiumHandler: condoHandler.NewCondominiumHandler(condoService),
		FleetHandler:       fleetHandler.NewFleetHandler(fleetService),
		ChecklistHandler:   checklistHandler.NewChecklistHandler(checklistService, logger),
		ExportHandler:      exportHandler.NewExportHandler(exportService, downloadStore, s.cfg.PublicBaseURL, logger),
		WSHandler:          wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, logger),
		AuthMiddleware:     authMiddleware,
		Health:             s.health,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) newGenerator() (*report.Generator, error) {
	loc, err := time.LoadLocation(s.cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report timezone %q: %w", s.cfg.ReportTimezone, err)
	}

	opts := report.Options{Location: loc, Compress: true}
	if s.cfg.ReportDefaultLogo != "" {
		logo, err := imaging.LoadLogo(s.cfg.ReportDefaultLogo)
		if err != nil {
			s.logger.Warn("default report logo unreadable, using built-in",
				zap.String("path", s.cfg.ReportDefaultLogo),
				zap.Error(err),
			)
		} else {
			opts.DefaultLogo = &logo
		}
	}

	return report.NewGenerator(report.NewHTTPLoader(s.cfg.ReportImageTimeout, retry.Default), s.logger, opts)
}

// bootstrapAdmin creates the first admin from env when one is configured.
func (s *Server) bootstrapAdmin() error {
	if s.cfg.BootstrapAdminEmail == "" || s.cfg.BootstrapAdminPassword == "" {
		s.logger.Info("BOOTSTRAP_ADMIN_EMAIL not set, skipping admin bootstrap")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.authService.EnsureAdminExists(ctx,
		s.cfg.BootstrapAdminEmail,
		s.cfg.BootstrapAdminPassword,
		s.cfg.BootstrapAdminName,
	)
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "postgres": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := s.pool.Ping(ctx); err != nil {
		status["postgres"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
	}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// Shutdown stops accepting requests, closes websocket clients and releases pools.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}
