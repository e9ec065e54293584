package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var voiceMimeType string

var voiceCmd = &cobra.Command{
	Use:   "voice <session-id> <audio-file>",
	Short: "Send a recorded answer as one turn",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		audio, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		mimeType := voiceMimeType
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(args[1]))
		}

		a, err := newApplication(cmd.Context(), envFile)
		if err != nil {
			return err
		}
		defer a.Close()

		resp := a.service.HandleVoiceTurn(cmd.Context(), args[0], audio, mimeType)
		if resp.Failed() {
			return fmt.Errorf("voice turn: %s", resp.Error)
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	voiceCmd.Flags().StringVar(&voiceMimeType, "mime", "", "audio MIME type (default: from the file extension)")
}
