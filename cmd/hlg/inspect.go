package main

import (
	"github.com/Lenny-the-burger/hlg/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the loaded models and trace a sample generation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in cli.InspectOptions
		in.Prompts, _ = cmd.Flags().GetStringArray("prompt")
		in.Raw, _ = cmd.Flags().GetBool("raw")
		in.Mermaid, _ = cmd.Flags().GetBool("mermaid")
		return cli.RunInspect(cmd.Context(), runOptions(cmd), in)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringArrayP("prompt", "p", nil, "Prompt to condition the sample on (repeatable)")
	inspectCmd.Flags().Bool("raw", false, "Print markdown without terminal rendering")
	inspectCmd.Flags().Bool("mermaid", false, "Print the sample's derivation as a Mermaid flowchart")
}
