// Package server exposes the chatbot over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xaenox/bizchat/internal/bot"
	"github.com/xaenox/bizchat/internal/knowledge"
	"github.com/xaenox/bizchat/internal/session"
	"go.uber.org/zap"
)

// DefaultCORSOriginPattern admits browser frontends served from localhost on
// any port.
const DefaultCORSOriginPattern = `^https?://(localhost|127\.0\.0\.1)(:\d+)?$`

// Config holds the HTTP listener settings.
type Config struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	CORSOriginPattern string
}

// Catalog exposes the process-level knowledge base.
type Catalog interface {
	Current() *knowledge.Base
}

// Server is the HTTP API of the assistant.
type Server struct {
	config   Config
	bot      *bot.Chatbot
	sessions *session.Manager
	catalog  Catalog
	origins  *regexp.Regexp
	logger   *zap.Logger
}

func New(cfg Config, chatbot *bot.Chatbot, sessions *session.Manager, catalog Catalog, logger *zap.Logger) (*Server, error) {
	pattern := cfg.CORSOriginPattern
	if pattern == "" {
		pattern = DefaultCORSOriginPattern
	}
	origins, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid CORS origin pattern: %w", err)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	return &Server{
		config:   cfg,
		bot:      chatbot,
		sessions: sessions,
		catalog:  catalog,
		origins:  origins,
		logger:   logger,
	}, nil
}

// Handler builds the chi router with all routes wired.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.cors)

	r.Get("/", s.handleRoot)
	r.Get("/intents", s.handleIntents)
	r.Post("/chat", s.handleChat)
	r.Post("/clear-history", s.handleClearHistory)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}
