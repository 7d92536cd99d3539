package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "match <text>",
		Short: "Show which intent a message resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMatch,
	})
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.chatbot.Classify(cmd.Context(), strings.Join(args, " "), a.registry.Current())
	if err != nil {
		return fmt.Errorf("classifying: %w", err)
	}

	out := cmd.OutOrStdout()
	if !m.Found() {
		fmt.Fprintf(out, "no match (best %q, score %.4f)\n", m.BestTag, m.Score)
		return nil
	}
	fmt.Fprintf(out, "tag:      %s\nscore:    %.4f\nfallback: %t\n", m.Intent.Tag, m.Score, m.Fallback)
	if m.Fallback && m.BestTag != "" {
		fmt.Fprintf(out, "closest:  %s\n", m.BestTag)
	}
	return nil
}
