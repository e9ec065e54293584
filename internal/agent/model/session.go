package model

import (
	"strings"
	"time"
)

// TurnOrigin tags who produced a stored turn.
type TurnOrigin string

const (
	OriginUser  TurnOrigin = "user"
	OriginAgent TurnOrigin = "agent"
)

type Turn struct {
	From TurnOrigin `json:"from"`
	Text string     `json:"text"`
}

// Session is one CV-building conversation.
type Session struct {
	ID         string    `json:"id"`
	Turns      []Turn    `json:"conversation"`
	CV         CVRecord  `json:"cv_json"`
	IsComplete bool      `json:"is_complete"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Turns:     []Turn{},
		CV:        EmptyCV(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// LastAgentText returns the most recent agent turn, or "" if none.
func (s *Session) LastAgentText() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].From == OriginAgent {
			return s.Turns[i].Text
		}
	}
	return ""
}

// AppendTurn records a turn, ignoring blank text.
func (s *Session) AppendTurn(from TurnOrigin, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.Turns = append(s.Turns, Turn{From: from, Text: text})
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Turns = append([]Turn{}, s.Turns...)
	out.CV = s.CV.Clone()
	return &out
}
