package main

import (
	"github.com/Lenny-the-burger/hlg/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the generator",
	Long: `Reads prompts line by line and answers each with a generated sentence.
With --session the conversation is persisted in the selected store and
resumed on the next run. Type /history, /reset or /quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		return cli.RunChat(runOptions(cmd), cli.ChatOptions{SessionID: sessionID})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Conversation id to persist and resume")
}
