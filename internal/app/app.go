package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lancafe/internal/cache"
	"lancafe/internal/config"
	"lancafe/internal/db"
	httpserver "lancafe/internal/http"
	"lancafe/internal/http/handlers"
	"lancafe/internal/http/middleware"
	"lancafe/internal/metrics"
	"lancafe/internal/password"
	redisclient "lancafe/internal/redis"
	"lancafe/internal/repository"
	"lancafe/internal/service"
	"lancafe/internal/ws"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// App wires lancafe dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	watcher     *service.ExpiryWatcher
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	var redisClient *redis.Client
	var activeSessions cache.ActiveSessions
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		activeSessions = cache.NewRedis(redisClient, cfg.CacheTTL())
	default:
		activeSessions = cache.NewMemory()
	}

	accountRepo := repository.NewAccountRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	ledgerRepo := repository.NewLedgerRepository(sqlDB)
	workstationRepo := repository.NewWorkstationRepository(sqlDB)

	hub := ws.NewHub(wsPingInterval, logger)
	wsServer := ws.NewServer(hub, wsWriteTimeout, logger)

	engine := service.NewSessionEngine(service.SessionEngineParams{
		Accounts:     accountRepo,
		Sessions:     sessionRepo,
		Ledger:       ledgerRepo,
		Workstations: workstationRepo,
		Cache:        activeSessions,
		Notifier:     hub,
		GraceWindow:  cfg.GraceWindow(),
		StartBuffer:  cfg.StartBuffer(),
		Logger:       logger,
	})
	watcher := service.NewExpiryWatcher(engine, cfg.SweepInterval(), logger)

	ledgerService := service.NewLedgerService(accountRepo, ledgerRepo, hub, logger)
	tokenService := service.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	authService := service.NewAuthService(accountRepo, ledgerRepo, hasher, tokenService, cfg.Session.WelcomeBonus, logger)

	routes := httpserver.Routes{
		Signup: handlers.NewSignupHandler(authService),
		Login:  handlers.NewLoginHandler(authService),

		SessionStart:   handlers.NewSessionStartHandler(engine),
		SessionExtend:  handlers.NewSessionExtendHandler(engine),
		SessionEnd:     handlers.NewSessionEndHandler(engine),
		ActiveSession:  handlers.NewActiveSessionHandler(engine),
		TransactionsMe: handlers.NewTransactionsMeHandler(ledgerService),
		WS:             handlers.NewWSHandler(wsServer),

		AdminAddCredits:     handlers.NewAdminAddCreditsHandler(ledgerService),
		AdminActiveSessions: handlers.NewAdminActiveSessionsHandler(engine),
		AdminStats:          handlers.NewAdminStatsHandler(engine),
		AdminTransactions:   handlers.NewAdminTransactionsHandler(ledgerService),
		AdminWorkstations:   handlers.NewAdminWorkstationsHandler(workstationRepo),

		Health:  handlers.NewHealthHandler(),
		Metrics: metrics.Handler(),
	}

	router := httpserver.NewRouter(routes, middleware.RequireAuth(tokenService), middleware.RequireAdmin)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		hub:         hub,
		watcher:     watcher,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the background loops and the HTTP server, returning when the
// server stops.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	go a.watcher.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
