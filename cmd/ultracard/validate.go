package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/internal/presentation/tui"
	"github.com/aretw0/ultracard/pkg/document"
)

var errInvalid = errors.New("card has structural errors")

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a card document for structural errors",
	Long: `Validates a JSON or YAML card document, reporting structural errors and the repairs
applied (missing IDs, duplicate IDs, missing defaults). With --fix the repaired
document is written back.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("fix", false, "Write the repaired document back to the file")
	validateCmd.Flags().StringP("output", "o", "", "Write the repaired document here instead (implies --fix)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}
	format, err := formatFrom(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	cfg, err := document.ReadFile(path)
	if err != nil {
		return err
	}

	sess := ultracard.New(ultracard.WithLogger(logger))
	defer sess.Close()
	res := sess.Validate(cmd.Context(), cfg)

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		if err := tui.Write(out, tui.ValidationReport(path, res)); err != nil {
			return err
		}
	}

	fix, _ := cmd.Flags().GetBool("fix")
	target, _ := cmd.Flags().GetString("output")
	if target == "" && fix {
		target = path
	}
	if target != "" && res.Valid {
		if err := document.WriteFile(target, res.Config); err != nil {
			return err
		}
		if format == "text" {
			fmt.Fprintln(out, tui.Status(out, true, "wrote "+target))
		}
	}

	if !res.Valid {
		return fmt.Errorf("%s: %w", path, errInvalid)
	}
	return nil
}
