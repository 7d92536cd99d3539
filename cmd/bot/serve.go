package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xaenox/bizchat/internal/knowledge"
	"github.com/xaenox/bizchat/internal/server"
	"github.com/xaenox/bizchat/internal/telegram"
	"github.com/xaenox/bizchat/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the Telegram bot when enabled)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		Addr:              cfg.Server.Addr,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		CORSOriginPattern: cfg.Server.CORSOriginPattern,
	}, a.chatbot, a.sessions, a.registry, logger)
	if err != nil {
		logger.Fatal("Failed to create HTTP server", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	if cfg.Knowledge.Watch && cfg.Knowledge.Source == config.SourceFile {
		w, err := knowledge.NewWatcher(cfg.Knowledge.Path, a.registry, logger)
		if err != nil {
			logger.Fatal("Failed to watch catalog", zap.Error(err))
		}
		defer w.Close()
		g.Go(func() error {
			w.Run(ctx)
			return nil
		})
	}

	if cfg.Telegram.Enabled {
		tg, err := telegram.New(cfg.Telegram.Token, a.chatbot, a.sessions, logger)
		if err != nil {
			logger.Fatal("Failed to create Telegram bot", zap.Error(err))
		}
		g.Go(func() error { return tg.Start(ctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Service stopped", zap.Error(err))
		return err
	}
	logger.Info("Service stopped")
	return nil
}
