package main

import (
	"github.com/Lenny-the-burger/hlg/internal/cli"
	"github.com/spf13/cobra"
)

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Manage embedding tables",
}

var embeddingsConvertCmd = &cobra.Command{
	Use:   "convert <glove.txt> <out.bin>",
	Short: "Convert GloVe text vectors to the binary table format",
	Long: `Keeps words made of letters, digits and hyphens, plus single characters.
Repeated words keep their first vector.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunConvert(runOptions(cmd), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(embeddingsCmd)
	embeddingsCmd.AddCommand(embeddingsConvertCmd)
}
