package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/pattern"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Manage categorization rules",
		Long: `Manage keyword-based categorization rules. Rules match transaction
descriptions against keywords and optional conditions, and assign a
category (and optionally a merchant) when they hit.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesCreateCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesEnableCmd())
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules for a session",
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

			rules, err := db.ListRules(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				slog.Info("No rules found", "session", sessionID)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tKEYWORDS\tCATEGORY\tPRIORITY\tENABLED\tAUTO")
			_, _ = fmt.Fprintln(w, "──\t────\t────────\t────────\t────────\t───────\t────")

			for _, rule := range rules {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%t\t%t\n",
					rule.ID,
					truncateString(rule.Name, 20),
					truncateString(strings.Join(rule.Keywords, ","), 30),
					rule.Category,
					rule.Priority,
					rule.Enabled,
					rule.AutoApply)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringP("session", "s", "", "Session ID")
	return cmd
}

func rulesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a rule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sessionID, _ := cmd.Flags().GetString("session")
			name, _ := cmd.Flags().GetString("name")
			category, _ := cmd.Flags().GetString("category")
			keywords, _ := cmd.Flags().GetStringSlice("keywords")
			priority, _ := cmd.Flags().GetInt("priority")
			autoApply, _ := cmd.Flags().GetBool("auto-apply")
			compound, _ := cmd.Flags().GetBool("compound-words")

			db, cleanup, err := getDatabase()
			if err != nil {
				return err
			}
			defer cleanup()

			rule := &model.Rule{
				SessionID:          sessionID,
				Name:               name,
				Category:           category,
				Keywords:           keywords,
				Priority:           priority,
				Enabled:            true,
				AutoApply:          autoApply,
				MatchCompoundWords: compound,
			}

			if err := db.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			slog.Info("Rule created", "id", rule.ID, "name", rule.Name, "category", rule.Category)
			return nil
		},
	}

	cmd.Flags().StringP("session", "s", "", "Session ID")
	cmd.Flags().StringP("name", "n", "", "Rule name")
	cmd.Flags().StringP("category", "c", "", "Category to assign")
	cmd.Flags().StringSliceP("keywords", "k", nil, "Keywords to match (comma separated)")
	cmd.Flags().IntP("priority", "p", 0, "Rule priority (lower wins)")
	cmd.Flags().Bool("auto-apply", false, "Apply automatically on ingest")
	cmd.Flags().Bool("compound-words", false, "Match keywords inside larger words")
	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule ID: %s", args[0])
			}

			db, cleanup, err := getDatabase()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.DeleteRule(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			slog.Info("Rule deleted", "id", id)
			return nil
		},
	}
}

func rulesEnableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable or disable a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule ID: %s", args[0])
			}
			disable, _ := cmd.Flags().GetBool("off")

			db, cleanup, err := getDatabase()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.SetRuleEnabled(cmd.Context(), id, !disable); err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			slog.Info("Rule updated", "id", id, "enabled", !disable)
			return nil
		},
	}

	cmd.Flags().Bool("off", false, "Disable instead of enable")
	return cmd
}

func rulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <description>",
		Short: "Test which rule matches a description",
		Long:  `Run a sample transaction description through the session's rules and report the first match.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			rules, err := db.ListRules(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			txn := model.Transaction{Description: args[0]}
			matcher := pattern.NewMatcher()

			for _, rule := range rules {
				result := matcher.MatchRule(txn, rule)
				if result.Matched {
					slog.Info("Rule matched",
						"rule", rule.Name,
						"id", rule.ID,
						"category", result.Category,
						"fragment", result.Fragment)
					return nil
				}
			}

			slog.Info("No rule matched", "description", args[0])
			return nil
		},
	}

	cmd.Flags().StringP("session", "s", "", "Session ID")
	return cmd
}
