package model

import (
	"github.com/cloudwego/eino/schema"
)

// Action is the dialogue move emitted for a turn.
type Action string

const (
	ActionAsk      Action = "ask"
	ActionAnswer   Action = "answer"
	ActionComplete Action = "complete"
)

// ParseAction maps free model output onto the action vocabulary.
func ParseAction(v string) (Action, bool) {
	switch Action(v) {
	case ActionAsk, ActionAnswer, ActionComplete:
		return Action(v), true
	}
	return "", false
}

// TurnState stores per-invocation state for the Eino Graph.
// All reads/writes happen inside Eino state handlers or compose.ProcessState.
type TurnState struct {
	SessionID string
	Session   *Session
	UserText  string
	History   []*schema.Message

	// LLM spend of the current turn
	Cost Cost
}

// TurnInput is the graph input for one dialogue turn.
type TurnInput struct {
	Session  *Session
	UserText string
}

// ParsedTurn is a model reply that decoded into the expected JSON wrapper.
type ParsedTurn struct {
	AgentText  string
	CV         map[string]any
	NextAction Action
	Language   string
}

// ModelReply is either a ParsedTurn or the raw text of an unparseable reply.
type ModelReply struct {
	Turn    *ParsedTurn
	RawText string
}

func (r ModelReply) Parsed() bool { return r.Turn != nil }

// TurnResult is the graph output; the caller persists it.
type TurnResult struct {
	AgentText  string
	CV         CVRecord
	NextAction Action
	Complete   bool
	Parsed     bool
	// Generate is set when the user asked for the finished CV this turn.
	Generate bool
}

// TurnResponse is what the core hands back to its caller.
type TurnResponse struct {
	AgentText  string    `json:"agent_text,omitempty"`
	CV         *CVRecord `json:"cv_json,omitempty"`
	NextAction Action    `json:"next_action,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Note       string    `json:"note,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func ErrorResponse(msg string) TurnResponse {
	return TurnResponse{Error: msg}
}

func (r TurnResponse) Failed() bool { return r.Error != "" }
