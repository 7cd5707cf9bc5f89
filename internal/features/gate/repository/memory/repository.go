package memory

import (
	"sync"
	"time"

	"github.com/bitful-pannul/kinogate/internal/features/gate/models"
	"github.com/bitful-pannul/kinogate/internal/features/gate/repository"
)

// Repository is the in-memory session store. All access goes through one
// mutex; no lock is ever held across an external call because the store
// makes none.
type Repository struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session

	ttl  time.Duration
	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

var _ repository.SessionRepository = (*Repository)(nil)

// New creates a store evicting sessions idle longer than ttl. A ttl of zero
// disables eviction.
func New(ttl time.Duration) *Repository {
	r := &Repository{
		sessions: make(map[int64]*models.Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	if ttl > 0 {
		go r.janitor()
	}
	return r
}

// Close stops the eviction janitor.
func (r *Repository) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *Repository) Get(chatID int64) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[chatID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return clone(sess), nil
}

func (r *Repository) Ensure(chatID int64) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[chatID]
	if !ok {
		now := r.now()
		sess = &models.Session{
			ChatID:    chatID,
			State:     models.StateStarted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.sessions[chatID] = sess
	}
	return clone(sess), nil
}

func (r *Repository) Transition(chatID int64, from []models.State, to models.State, mutate func(*models.Session)) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[chatID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	allowed := false
	for _, st := range from {
		if sess.State == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, repository.ErrStaleSession
	}

	sess.State = to
	sess.UpdatedAt = r.now()
	if mutate != nil {
		mutate(sess)
	}
	return clone(sess), nil
}

func (r *Repository) janitor() {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Repository) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	for id, sess := range r.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// clone keeps record ownership inside the store; callers only ever see
// snapshots.
func clone(s *models.Session) *models.Session {
	c := *s
	return &c
}
