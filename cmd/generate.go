package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <session-id>",
	Short: "Refine a collected CV and print the final record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context(), envFile)
		if err != nil {
			return err
		}
		defer a.Close()

		resp := a.service.Refine(cmd.Context(), args[0])
		if resp.Failed() {
			return errors.New(resp.Error)
		}
		out := cmd.OutOrStdout()
		if resp.Note != "" {
			fmt.Fprintf(out, "note: %s\n", resp.Note)
		}
		return printJSON(out, resp.CV)
	},
}
