// Package server initializes and runs the bankapi server: it opens the
// database, applies migrations, seeds startup accounts and serves the HTTP
// API until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/cryptox"
	"github.com/dmitrijs2005/bankapi/internal/logging"
	"github.com/dmitrijs2005/bankapi/internal/server/auth"
	"github.com/dmitrijs2005/bankapi/internal/server/config"
	"github.com/dmitrijs2005/bankapi/internal/server/httpserver"
	"github.com/dmitrijs2005/bankapi/internal/server/metrics"
	"github.com/dmitrijs2005/bankapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bankapi/internal/server/revocation"
	"github.com/dmitrijs2005/bankapi/internal/server/services"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	closers    []io.Closer
	httpServer *httpserver.HTTPServer
	limiter    *httpserver.RateLimiter
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: c, logger: logger, db: db, closers: []io.Closer{db}}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	clock := clockwork.NewRealClock()

	revoked, err := app.revocationStore(ctx, clock)
	if err != nil {
		app.close()
		return nil, err
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration, clock)
	us := services.NewUserService(db, rm, tokens, cryptox.NewHasher(bcrypt.DefaultCost), revoked, logger)
	ts := services.NewTransferService(db, rm, c.TransferTimeout, logger)

	n, err := us.Seed(ctx, services.SeedUsers(c))
	if err != nil {
		app.close()
		return nil, fmt.Errorf("seed error: %w", err)
	}
	logger.Info(ctx, "Startup accounts seeded", "created", n)

	m := metrics.New()
	app.limiter = httpserver.NewRateLimiter(c.SignInRatePerSecond, c.SignInBurst, clock, m, logger)
	app.httpServer = httpserver.NewHTTPServer(c.EndpointAddrHTTP, logger, us, ts, m, app.limiter, c.ShutdownTimeout)

	return app, nil
}

func (app *App) revocationStore(ctx context.Context, clock clockwork.Clock) (revocation.Store, error) {
	if app.config.RedisURL == "" {
		app.logger.Info(ctx, "Token revocations kept in memory")
		return revocation.NewMemoryStore(clock), nil
	}

	rdb, err := revocation.Dial(ctx, app.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, rdb)
	app.logger.Info(ctx, "Token revocations kept in redis")
	return revocation.NewRedisStore(rdb), nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.limiter.RunPruner(ctx, time.Minute, 10*time.Minute)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
