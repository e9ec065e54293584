package model

import "context"

// SessionRepository persists sessions. Save must reject a session whose
// Version no longer matches the stored one with errx.ErrVersionConflict and
// bump Version on success.
type SessionRepository interface {
	// Create stores a new empty session and returns it
	Create(ctx context.Context) (*Session, error)

	// Load returns the stored session or errx.ErrSessionNotFound
	Load(ctx context.Context, sessionID string) (*Session, error)

	// Save writes the session using an optimistic version check
	Save(ctx context.Context, session *Session) error

	// Delete removes the session
	Delete(ctx context.Context, sessionID string) error
}
