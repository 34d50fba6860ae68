package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/internal/presentation/tui"
)

var modulesCmd = &cobra.Command{
	Use:   "modules [term]",
	Short: "List or search the registered module types",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formatFrom(cmd)
		if err != nil {
			return err
		}
		var term string
		if len(args) > 0 {
			term = args[0]
		}

		sess := ultracard.New()
		defer sess.Close()
		mods := sess.Registry().Search(term)

		out := cmd.OutOrStdout()
		if format == "json" {
			return json.NewEncoder(out).Encode(mods)
		}
		return tui.Write(out, tui.ModulesReport(mods))
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}
