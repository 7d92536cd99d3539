package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xaenox/bizchat/internal/storage"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the configured catalog with the intents of a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	file := storage.NewFileSource(args[0])
	intents, err := file.LoadIntents(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	target, err := openSource(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer target.Close()

	writer, ok := target.(storage.CatalogWriter)
	if !ok {
		return fmt.Errorf("catalog %s does not accept imports", target.Describe())
	}
	if err := writer.ReplaceIntents(cmd.Context(), intents); err != nil {
		return fmt.Errorf("importing catalog: %w", err)
	}

	logger.Info("Catalog imported",
		zap.String("from", file.Describe()),
		zap.String("to", target.Describe()),
		zap.Int("intents", len(intents)))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d intents\n", len(intents))
	return nil
}
