// Package cmd is the command line host for the CV dialogue core.
package cmd

import (
	"github.com/spf13/cobra"
)

const app = "voicecv"

var (
	// Used for flags.
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "voicecv builds a CV through a guided conversation",
		Long: `voicecv collects CV details through a conversation with a language model
and keeps the structured record in the configured session store.

Configuration is read from environment variables, optionally loaded from a .env file.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(chatCmd, sessionCmd, voiceCmd, generateCmd)
}
