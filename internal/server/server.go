package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/mclass/internal/bootstrap"
	"github.com/yigit/mclass/internal/config"
	"github.com/yigit/mclass/internal/db"
)

// Server holds the state for the HTTP server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	database db.Database
	deps     *bootstrap.Dependencies
	logger   zerolog.Logger
	http     *http.Server
	// stopWorkers cancels the janitors started by BuildDependencies
	stopWorkers context.CancelFunc
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	database, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	deps, err := bootstrap.BuildDependencies(workerCtx, cfg, database, lgr)
	if err != nil {
		stopWorkers()
		database.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		config:      cfg,
		router:      bootstrap.SetupRouter(cfg, deps, lgr),
		database:    database,
		deps:        deps,
		logger:      lgr,
		stopWorkers: stopWorkers,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops accepting requests, drains the write queue, then closes the
// database. Queued writes finish before their connection goes away.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = errors.Join(errs, err)
		}
	}

	if s.deps != nil {
		if err := s.deps.Close(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Dependency shutdown error")
			errs = errors.Join(errs, err)
		}
	}
	if s.stopWorkers != nil {
		s.stopWorkers()
	}

	if s.database != nil {
		s.logger.Info().Msg("Closing database connection...")
		s.database.Close()
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if errs != nil {
		return fmt.Errorf("server shutdown completed with errors: %w", errs)
	}
	return nil
}
