package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/internal/presentation/graph"
	"github.com/aretw0/ultracard/pkg/document"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Visualize a card layout as a Mermaid diagram",
	Long: `Prints the row, column and module tree of a card as a Mermaid flowchart.
With --overlay, nodes are styled by their plan decision (hidden, animating).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := loggerFrom(cmd)
		if err != nil {
			return err
		}
		cfg, err := document.ReadFile(args[0])
		if err != nil {
			return err
		}

		provider, err := providerFrom(cmd, logger)
		if err != nil {
			return err
		}

		sess := ultracard.New(ultracard.WithLogger(logger), ultracard.WithStateProvider(provider))
		defer sess.Close()
		cfg = sess.Validate(cmd.Context(), cfg).Config

		var overlay *graph.Overlay
		if show, _ := cmd.Flags().GetBool("overlay"); show {
			overlay = graph.FromPlan(sess.Plan(cmd.Context(), cfg, ultracard.Detached()))
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(cfg, overlay))
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("overlay", false, "Style nodes by their plan decision")
	addProviderFlags(graphCmd)
}
