package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Manage learned merchant patterns",
		Long: `Inspect and curate the merchant patterns the engine has learned from
manual categorizations. Patterns are matched after rules, most-used first.`,
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsDeleteCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns for a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sessionID, _ := cmd.Flags().GetString("session")
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}

			db, cleanup, err := getDatabase()
			if err != nil {
				return err
			}
			defer cleanup()

			patterns, err := db.ListLearnedPatterns(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to list learned patterns: %w", err)
			}

			if len(patterns) == 0 {
				slog.Info("No learned patterns found", "session", sessionID)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTYPE\tVALUE\tCATEGORY\tCONFIDENCE\tUSE COUNT\tENABLED")
			_, _ = fmt.Fprintln(w, "──\t────\t─────\t────────\t──────────\t─────────\t───────")

			for _, pat := range patterns {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.0f%%\t%d\t%t\n",
					pat.ID,
					pat.PatternType,
					truncateString(pat.PatternValue, 30),
					pat.Category,
					pat.Confidence*100,
					pat.UseCount,
					pat.Enabled)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringP("session", "s", "", "Session ID")
	return cmd
}

func patternsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a learned pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pattern ID: %s", args[0])
			}

			db, cleanup, err := getDatabase()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.DeleteLearnedPattern(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete pattern: %w", err)
			}

			slog.Info("Pattern deleted", "id", id)
			return nil
		},
	}
}
