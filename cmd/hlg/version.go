package main

import (
	"fmt"
	"strings"

	"github.com/Lenny-the-burger/hlg"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hlg",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hlg version %s\n", strings.TrimSpace(hlg.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
