package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xaenox/bizchat/internal/knowledge"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "intents",
		Short: "List the intents of the configured catalog",
		Args:  cobra.NoArgs,
		RunE:  runIntents,
	})
}

func runIntents(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	source, err := openSource(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer source.Close()

	intents := knowledge.Load(cmd.Context(), source, logger)
	logger.Debug("Catalog loaded", zap.String("source", source.Describe()), zap.Int("intents", len(intents)))

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tPATTERNS\tRESPONSES")
	for _, in := range intents {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", in.Tag, len(in.Patterns), len(in.Responses))
	}
	return tw.Flush()
}
