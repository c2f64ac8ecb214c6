// Package httpserver exposes the bank API over HTTP: routing, the auth gate,
// request logging, metrics and sign-in rate limiting.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/logging"
	"github.com/dmitrijs2005/bankapi/internal/server/auth"
	"github.com/dmitrijs2005/bankapi/internal/server/metrics"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Users is the account side of the API.
type Users interface {
	Register(ctx context.Context, login, password string) (*models.User, error)
	SignIn(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	SignOut(ctx context.Context, p auth.Principal) error
	Balance(ctx context.Context, login string) (decimal.Decimal, error)
}

// Transfers moves funds between accounts.
type Transfers interface {
	Transfer(ctx context.Context, sender, recipient string, amount decimal.Decimal) error
}

type HTTPServer struct {
	address         string
	users           Users
	transfers       Transfers
	metrics         *metrics.Metrics
	signInLimiter   *RateLimiter
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewHTTPServer(a string, l logging.Logger, us Users, ts Transfers, m *metrics.Metrics,
	signInLimiter *RateLimiter, shutdownTimeout time.Duration) *HTTPServer {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServer{
		address:         a,
		logger:          l.With("module", "http_server"),
		users:           us,
		transfers:       ts,
		metrics:         m,
		signInLimiter:   signInLimiter,
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler builds the router with all middleware attached.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware, s.metricsMiddleware, s.authGate)

	signIn := http.Handler(http.HandlerFunc(s.handleSignIn))
	if s.signInLimiter != nil {
		signIn = s.signInLimiter.Handler(signIn)
	}

	r.HandleFunc("/signup", s.handleSignUp).Methods(http.MethodPost)
	r.Handle("/signin", signIn).Methods(http.MethodPost)
	r.Handle("/signout", s.requireAuth(s.handleSignOut)).Methods(http.MethodPost)
	r.Handle("/money", s.requireAuth(s.handleGetBalance)).Methods(http.MethodGet)
	r.Handle("/money", s.requireAuth(s.handleTransfer)).Methods(http.MethodPost)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
