package memory

import (
	"time"

	"aether-base-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in process memory. Each access slides the
// idle expiry forward; nothing is persisted.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.Id.String(), session, r.ttl)
}

func (r *SessionRepository) Get(sessionID uuid.UUID) (*store.Session, bool) {
	x, found := r.cache.Get(sessionID.String())
	if !found {
		return nil, false
	}
	session := x.(*store.Session)
	r.cache.Set(sessionID.String(), session, r.ttl)
	return session, true
}

func (r *SessionRepository) Delete(sessionID uuid.UUID) {
	r.cache.Delete(sessionID.String())
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
