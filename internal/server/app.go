// Package server wires configuration, storage, services and transports into
// a runnable user service. It starts the HTTP API and the gRPC health
// endpoint and stops both on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kazna/user-service/internal/cryptox"
	"github.com/kazna/user-service/internal/dbx"
	"github.com/kazna/user-service/internal/logging"
	"github.com/kazna/user-service/internal/server/auth"
	"github.com/kazna/user-service/internal/server/config"
	"github.com/kazna/user-service/internal/server/repositories/memory"
	"github.com/kazna/user-service/internal/server/repositories/repomanager"
	"github.com/kazna/user-service/internal/server/services"

	gs "github.com/kazna/user-service/internal/server/grpc"
	hs "github.com/kazna/user-service/internal/server/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	authService *services.AuthService
}

// Store bundles what the services need from persistence. db is nil for the
// in-memory driver.
type Store struct {
	Repos repomanager.RepositoryManager
	Conn  dbx.Transactor
	DB    *sql.DB
}

// OpenStore connects to the configured database and applies migrations.
func OpenStore(ctx context.Context, c *config.Config) (*Store, error) {
	if c.DatabaseDriver == config.DriverMemory {
		m := memory.NewStore()
		return &Store{Repos: m, Conn: m}, nil
	}

	rm, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	db, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Repos: rm, Conn: dbx.NewSQLTransactor(db), DB: db}, nil
}

func newTokenIssuer(c *config.Config, s *Store) (auth.TokenIssuer, error) {
	switch c.TokenBackend {
	case config.TokenBackendDB:
		return auth.NewDBTokenIssuer(s.Repos, s.Conn), nil
	case config.TokenBackendJWT:
		return auth.NewJWTTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration), nil
	default:
		return nil, fmt.Errorf("unsupported token backend %q", c.TokenBackend)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	store, err := OpenStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	issuer, err := newTokenIssuer(c, store)
	if err != nil {
		if store.DB != nil {
			_ = store.DB.Close()
		}
		return nil, err
	}

	hasher := cryptox.NewArgon2Hasher(cryptox.DefaultParams)
	us := services.NewUserService(store.Conn, store.Repos, hasher, c)
	as := services.NewAuthService(store.Conn, store.Repos, hasher, issuer)

	return &App{config: c, logger: logger, db: store.DB, userService: us, authService: as}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) probe(ctx context.Context) error {
	if app.db == nil {
		return nil
	}
	return app.db.PingContext(ctx)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := hs.NewRouter(app.userService, app.authService, app.logger)
	s := hs.NewHTTPServer(app.config.HTTPAddress, app.logger, router)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddress, app.logger, app.probe)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "db_driver", app.config.DatabaseDriver, "token_backend", app.config.TokenBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
