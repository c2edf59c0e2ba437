package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"moodcheck/internal/domain"
)

var ErrSessionExists = errors.New("session already exists")

// SessionRepository guarda sesiones transitorias de screening.
// Las implementaciones devuelven domain.ErrSessionNotFound cuando la sesion no existe o expiro.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   domain.Session
	expiresAt time.Time
}

// MemorySessionRepository mantiene las sesiones en el proceso. ttl <= 0 no expira.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *MemorySessionRepository) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, exists := r.sessions[session.ID]; exists && !r.expired(e) {
		return ErrSessionExists
	}
	r.sessions[session.ID] = r.entry(session)
	return nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || r.expired(e) {
		delete(r.sessions, id)
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

func (r *MemorySessionRepository) Update(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[session.ID]
	if !ok || r.expired(e) {
		delete(r.sessions, session.ID)
		return domain.ErrSessionNotFound
	}
	r.sessions[session.ID] = r.entry(session)
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	delete(r.sessions, id)
	if !ok || r.expired(e) {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Sweep borra las sesiones expiradas y devuelve cuantas quito.
func (r *MemorySessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		if r.expired(e) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len devuelve cuantas entradas hay en memoria, expiradas incluidas.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartSweeper corre Sweep cada interval hasta Close. Solo la primera llamada tiene efecto.
func (r *MemorySessionRepository) StartSweeper(interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r.startOnce.Do(func() {
		go func() {
			defer close(r.done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-r.stop:
					return
				case <-ticker.C:
					if n := r.Sweep(); n > 0 {
						logger.Debug("expired sessions swept", zap.Int("removed", n))
					}
				}
			}
		}()
	})
}

// Close detiene el sweeper, si estaba corriendo.
func (r *MemorySessionRepository) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		started := true
		r.startOnce.Do(func() { started = false })
		if started {
			<-r.done
		}
	})
}

func (r *MemorySessionRepository) entry(session domain.Session) memoryEntry {
	e := memoryEntry{session: session.Clone()}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	return e
}

func (r *MemorySessionRepository) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !r.now().Before(e.expiresAt)
}
