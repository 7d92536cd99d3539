package main

import (
	"context"
	"fmt"

	"github.com/xaenox/bizchat/internal/bot"
	"github.com/xaenox/bizchat/internal/classifier"
	"github.com/xaenox/bizchat/internal/embedding"
	"github.com/xaenox/bizchat/internal/knowledge"
	"github.com/xaenox/bizchat/internal/session"
	"github.com/xaenox/bizchat/internal/storage"
	"github.com/xaenox/bizchat/pkg/config"
	"go.uber.org/zap"
)

// app holds the wired components shared by the commands.
type app struct {
	source   storage.CatalogSource
	embedder embedding.Embedder
	registry *knowledge.Registry
	sessions *session.Manager
	chatbot  *bot.Chatbot
}

func (a *app) Close() error {
	return a.source.Close()
}

func databaseConfig(cfg config.DatabaseConfig) storage.DatabaseConfig {
	return storage.DatabaseConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
	}
}

func openSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.CatalogSource, error) {
	switch cfg.Knowledge.Source {
	case config.SourcePostgres:
		logger.Info("Using PostgreSQL catalog")
		return storage.NewPostgresSource(ctx, databaseConfig(cfg.Database), logger)
	default:
		logger.Info("Using file catalog", zap.String("path", cfg.Knowledge.Path))
		return storage.NewFileSource(cfg.Knowledge.Path), nil
	}
}

func newEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (embedding.Embedder, error) {
	e, err := embedding.New(cfg.Embedding(), logger)
	if err != nil {
		return nil, err
	}
	if err := embedding.Probe(ctx, e); err != nil {
		return nil, fmt.Errorf("embedding provider is not usable: %w", err)
	}
	return e, nil
}

// newApp wires catalog, embedder, sessions and the conversation engine.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	e, err := newEmbedder(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}

	source, err := openSource(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	registry, err := knowledge.NewRegistry(ctx, source, e, logger)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("compiling knowledge base: %w", err)
	}

	newBase := func(context.Context) (*knowledge.Base, error) {
		return registry.Current(), nil
	}
	if cfg.Session.CatalogMode == config.CatalogPerSession {
		newBase = registry.Build
	}
	sessions := session.NewManager(newBase, cfg.Session.MaxHistory, logger)

	chatbot := bot.New(sessions, e,
		classifier.NewMatcher(e, cfg.Matcher.Threshold, logger),
		classifier.NewLexical(cfg.Matcher.Threshold, logger),
		bot.Options{
			Messages: bot.Messages{
				EmptyInput: cfg.Messages.EmptyInput,
				Apology:    cfg.Messages.Apology,
			},
			ContextTurns: cfg.Session.ContextTurns,
		},
		logger,
	)

	return &app{
		source:   source,
		embedder: e,
		registry: registry,
		sessions: sessions,
		chatbot:  chatbot,
	}, nil
}
