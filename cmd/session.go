package cmd

import (
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Create and inspect sessions",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty session and print it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication(cmd.Context(), envFile)
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.service.CreateSession(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), session)
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a stored session with its turns and CV record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context(), envFile)
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.service.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), session)
	},
}

func init() {
	sessionCmd.AddCommand(sessionNewCmd, sessionShowCmd)
}
