package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/internal/presentation/tui"
	"github.com/aretw0/ultracard/pkg/document"
)

var planCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Show which rows, columns and modules a card would display",
	Long: `Validates a card and evaluates every visibility rule and state-triggered animation
against recorded states (--states) or a live Home Assistant (--hass-url).`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addProviderFlags(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}
	format, err := formatFrom(cmd)
	if err != nil {
		return err
	}
	provider, err := providerFrom(cmd, logger)
	if err != nil {
		return err
	}

	cfg, err := document.ReadFile(args[0])
	if err != nil {
		return err
	}

	sess := ultracard.New(ultracard.WithLogger(logger), ultracard.WithStateProvider(provider))
	defer sess.Close()

	ctx := cmd.Context()
	res := sess.Validate(ctx, cfg)
	plan := sess.Plan(ctx, res.Config, ultracard.Detached())

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"validation": res, "plan": plan})
	}
	if !res.Valid {
		if err := tui.Write(out, tui.ValidationReport(args[0], res)); err != nil {
			return err
		}
	}
	if err := tui.Write(out, tui.PlanReport(plan)); err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("%s: %w", args[0], errInvalid)
	}
	return nil
}
