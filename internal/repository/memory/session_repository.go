package memory

import (
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/store"

	"github.com/patrickmn/go-cache"
)

const endedTombstoneTTL = 1 * time.Hour

// SessionRepository is the live-session registry: active sessions never
// expire (the websocket connection owns their lifetime), ended sessions stay
// as tombstones for an hour so late lookups can still tell "just ended" from
// "never existed".
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(endedTombstoneTTL, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.LiveSession) {
	r.cache.Set(session.ID, session, cache.NoExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.LiveSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.LiveSession), true
	}
	return nil, false
}

// MarkEnded flips the entry to ENDED and rebinds it with the tombstone TTL.
func (r *SessionRepository) MarkEnded(sessionID string) {
	s, found := r.Get(sessionID)
	if !found {
		return
	}
	s.State = store.StateEnded
	s.EndedAt = time.Now()
	r.cache.Set(sessionID, s, endedTombstoneTTL)
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// ActiveForDocument reports whether any live entry on this instance already
// owns the document. Used as the local fallback for the single-writer guard.
func (r *SessionRepository) ActiveForDocument(documentID string) bool {
	for _, item := range r.cache.Items() {
		s, ok := item.Object.(*store.LiveSession)
		if !ok {
			continue
		}
		if s.DocumentID == documentID && s.State == store.StateActive {
			return true
		}
	}
	return false
}
