package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/elstracker/elstracker/internal/actions"
	"github.com/elstracker/elstracker/internal/config"
	"github.com/elstracker/elstracker/internal/database"
	"github.com/elstracker/elstracker/internal/database/migrations"
	"github.com/elstracker/elstracker/internal/revalidate"
)

// Server is the HTTP API in front of the query layer and the mutation actions.
type Server struct {
	httpServer       *http.Server
	log              *slog.Logger
	cfg              *config.Config
	db               *database.DBImpl
	revalidator      revalidate.Revalidator
	closeRevalidator func()
}

func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		log:              logger,
		cfg:              cfg,
		closeRevalidator: func() {},
	}
}

// Config returns the server's configuration.
func (s *Server) Config() *config.Config {
	return s.cfg
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.log
}

// DB returns the server's database instance.
func (s *Server) DB() *database.DBImpl {
	return s.db
}

func (s *Server) Actions() *actions.Actions {
	return actions.New(s.db, s.revalidator, s.log.With("component", "actions"))
}

// Run connects the dependencies, migrates the schema and serves until a
// shutdown signal arrives.
func Run(cfg *config.Config, logger *slog.Logger) error {
	var wg sync.WaitGroup

	// create a context for graceful shutdown
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	srv := NewServer(cfg, logger)

	if err := srv.CreateDBConnection(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	//nolint:errcheck // closed on shutdown
	defer srv.DB().Close()

	if err := migrations.Migrate(ctx, srv.DB().BunDB(), logger); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	if err := srv.CreateRevalidator(); err != nil {
		return fmt.Errorf("failed to set up revalidation: %w", err)
	}
	defer srv.closeRevalidator()

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", fmt.Sprintf(":%d", cfg.ServerPort))
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	srv.httpServer = srv.newHTTPServer(ctx)

	wg.Add(1)
	go srv.Serve(&wg, listener)

	return srv.WaitForShutdown(cancelCtx, &wg)
}

func (s *Server) newHTTPServer(ctx context.Context) *http.Server {
	return &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(s.Config().ServerReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.Config().ServerWriteTimeoutSeconds) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

// Serve blocks serving HTTP on the listener until the server is shut down.
func (s *Server) Serve(wg *sync.WaitGroup, listener net.Listener) {
	defer wg.Done()

	s.Logger().Info("server listening", "address", listener.Addr().String())

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger().Error("http server stopped unexpectedly", "error", err)
	}
}

func (s *Server) WaitForShutdown(cancelCtx context.CancelFunc, wg *sync.WaitGroup) error {
	// setup signal handling
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// block until signal received
	sig := <-signalChannel
	s.Logger().Info("shutdown signal received", "signal", sig.String())

	timeout := time.Duration(s.Config().ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	// stop accepting requests and let in-flight ones finish
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.Logger().Error("failed to shut down http server", "error", err)
		}
	}

	// cancel context to signal all goroutines to stop
	cancelCtx()

	// wait for all goroutines to finish
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.Logger().Info("all goroutines have finished")
		return nil
	case <-shutdownCtx.Done():
		s.Logger().Warn("shutdown timeout reached, forcing exit")
		return fmt.Errorf("shutdown timeout reached")
	}
}
