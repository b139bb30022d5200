package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/eshop/internal/codecache"
	"github.com/nkiryanov/eshop/internal/db"
	"github.com/nkiryanov/eshop/internal/handlers"
	"github.com/nkiryanov/eshop/internal/logger"
	"github.com/nkiryanov/eshop/internal/mailer"
	"github.com/nkiryanov/eshop/internal/repository/postgres"
	"github.com/nkiryanov/eshop/internal/service/auth"
	"github.com/nkiryanov/eshop/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/eshop/internal/service/janitor"
	"github.com/nkiryanov/eshop/internal/service/passwordreset"
	"github.com/nkiryanov/eshop/internal/service/user"
)

type codeCache interface {
	passwordreset.CodeCache
	DeleteExpired(ctx context.Context) (int64, error)
}

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	pool       *pgxpool.Pool
	dispatcher *mailer.Dispatcher
	janitor    *janitor.Janitor
	logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if err := initSentry(c.SentryDSN, c.Environment); err != nil {
		return nil, fmt.Errorf("error while initializing sentry. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	app, err := newServerApp(c, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return app, nil
}

func newServerApp(c *Config, pool *pgxpool.Pool, logger logger.Logger) (*ServerApp, error) {
	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize mail delivery
	var sender mailer.Sender
	if c.SMTPHost != "" {
		smtpSender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("error while creating smtp sender. Err: %w", err)
		}
		sender = smtpSender
	} else {
		logger.Warn("SMTP host is not set, mails will be written to log")
		sender = mailer.NewLogSender(logger)
	}
	dispatcher := mailer.NewDispatcher(mailer.DispatcherConfig{CountWorkers: c.MailWorkers}, sender, logger)

	// Reset codes live in unlogged table by default
	var codes codeCache
	switch c.CodeCache {
	case CodeCachePostgres:
		codes = storage.Codes()
	case CodeCacheMemory:
		codes = codecache.NewMemory(nil)
	default:
		return nil, fmt.Errorf("unknown code cache %q", c.CodeCache)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(user.DefaultHasher, storage)
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	resetService := passwordreset.NewService(
		passwordreset.Config{ReusableCodes: !c.OTPSingleUse},
		userService,
		codes,
		dispatcher,
		authService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    handlers.NewRouter(authService, userService, resetService, logger),
		pool:       pool,
		dispatcher: dispatcher,
		janitor:    janitor.New(c.CleanupInterval, codes, storage.Refresh(), logger),
		logger:     logger,
	}, nil
}

// Run starts http server with background workers and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	mailerStopped := s.dispatcher.Run(srvCtx)
	janitorStopped := s.janitor.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-mailerStopped
	<-janitorStopped

	s.pool.Close()
	flushSentry()

	return err
}
