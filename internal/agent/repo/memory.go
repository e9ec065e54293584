package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicecv-core/server/internal/agent/model"
	errx "github.com/voicecv-core/server/internal/core/error"
)

// MemorySessionRepository keeps sessions in process memory. Used for local
// runs and tests.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	now      func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: map[string]*model.Session{}, now: time.Now}
}

func (r *MemorySessionRepository) Create(ctx context.Context) (*model.Session, error) {
	s := model.NewSession(uuid.NewString(), r.now())
	s.Version = 1

	r.mu.Lock()
	r.sessions[s.ID] = s.Clone()
	r.mu.Unlock()
	return s, nil
}

func (r *MemorySessionRepository) Load(ctx context.Context, sessionID string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, errx.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[session.ID]
	if !ok {
		return errx.ErrSessionNotFound
	}
	if current.Version != session.Version {
		return errx.ErrVersionConflict
	}
	session.Version++
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	return nil
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
