package intake

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for an unknown or already-reset session.
var ErrSessionNotFound = errors.New("session not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// memoryRepo keeps sessions in process memory. Session state is scoped to a
// single consultation; nothing outlives the process except file exports.
type memoryRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewMemoryRepository() Repository {
	return &memoryRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *s
	copied.Turns = append([]Turn(nil), s.Turns...)
	return &copied, nil
}

func (r *memoryRepo) Save(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *s
	copied.Turns = append([]Turn(nil), s.Turns...)
	r.sessions[s.ID] = &copied
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}
