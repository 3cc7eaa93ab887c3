package main

import (
	"github.com/Lenny-the-burger/hlg/internal/cli"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one sentence",
	Long:  `Feeds every --prompt to a fresh conversation, then generates one sentence.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var gen cli.GenerateOptions
		gen.Prompts, _ = cmd.Flags().GetStringArray("prompt")
		gen.Capacity, _ = cmd.Flags().GetInt("capacity")
		gen.Metrics, _ = cmd.Flags().GetBool("metrics")
		return cli.RunGenerate(cmd.Context(), runOptions(cmd), gen)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringArrayP("prompt", "p", nil, "Prompt to add before generating (repeatable)")
	generateCmd.Flags().Int("capacity", 0, "Output buffer size in bytes, terminator included (0 = unbounded)")
	generateCmd.Flags().Bool("metrics", false, "Print Prometheus metrics after generating")
}
