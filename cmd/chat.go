package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/voicecv-core/server/internal/agent/model"
)

const (
	chatQuit     = "/quit"
	chatShowCV   = "/cv"
	chatGenerate = "/generate"
)

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Talk to the CV assistant in the terminal",
	Long: `Start an interactive conversation. Without a session id a new session is created.

Type /cv to print the current record, /generate to refine it and /quit to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApplication(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var sessionID string
	if len(args) == 1 {
		session, err := a.service.GetSession(ctx, args[0])
		if err != nil {
			return err
		}
		sessionID = session.ID
		if last := session.LastAgentText(); last != "" {
			fmt.Fprintf(out, "assistant: %s\n", last)
		}
	} else {
		session, err := a.service.CreateSession(ctx)
		if err != nil {
			return err
		}
		sessionID = session.ID
		fmt.Fprintf(out, "session: %s\n", sessionID)
		fmt.Fprintln(out, "assistant: Hi! I will help you build your CV. Tell me a little about yourself, starting with your name.")
	}

	prompt := promptui.Prompt{Label: "you"}
	for {
		text, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(text) {
		case "":
			continue
		case chatQuit:
			return nil
		case chatShowCV:
			session, err := a.service.GetSession(ctx, sessionID)
			if err != nil {
				return err
			}
			if err := printJSON(out, session.CV); err != nil {
				return err
			}
			continue
		case chatGenerate:
			resp := a.service.Refine(ctx, sessionID)
			printResponse(out, resp)
			if !resp.Failed() {
				if err := printJSON(out, resp.CV); err != nil {
					return err
				}
			}
			continue
		}

		resp := a.service.HandleTurn(ctx, sessionID, text)
		printResponse(out, resp)
	}
}

func printResponse(out io.Writer, resp model.TurnResponse) {
	if resp.Failed() {
		fmt.Fprintf(out, "error: %s\n", resp.Error)
		return
	}
	if resp.Transcript != "" {
		fmt.Fprintf(out, "you said: %s\n", resp.Transcript)
	}
	if resp.AgentText != "" {
		fmt.Fprintf(out, "assistant: %s\n", resp.AgentText)
	}
	if resp.Note != "" {
		fmt.Fprintf(out, "note: %s\n", resp.Note)
	}
	if resp.NextAction == model.ActionComplete {
		fmt.Fprintln(out, "(your CV details are complete)")
	}
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
