package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/ultracard"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ultracard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ultracard version %s\n", strings.TrimSpace(ultracard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
