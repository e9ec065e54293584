// Package events announces session milestones to downstream consumers such as
// the document generators.
package events

import (
	"context"
	"time"

	"github.com/voicecv-core/server/internal/agent/model"
)

// EventCompleted is the type tag of CompletedEvent.
const EventCompleted = "cv.completed"

// CompletedEvent is published once when a session's record first becomes complete.
type CompletedEvent struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"session_id"`
	CV         model.CVRecord `json:"cv_json"`
	Version    int64          `json:"version"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func NewCompletedEvent(session *model.Session, at time.Time) CompletedEvent {
	return CompletedEvent{
		Type:       EventCompleted,
		SessionID:  session.ID,
		CV:         session.CV.Clone(),
		Version:    session.Version,
		OccurredAt: at.UTC(),
	}
}

type Publisher interface {
	PublishCompleted(ctx context.Context, event CompletedEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishCompleted(context.Context, CompletedEvent) error { return nil }

var _ Publisher = Nop{}
