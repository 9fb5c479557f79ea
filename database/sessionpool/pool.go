// Package sessionpool keeps list views alive between requests.
package sessionpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gnemet/listview"
)

// ErrCapacity is returned by Open when the pool is full.
var ErrCapacity = errors.New("session pool capacity reached")

// Session holds the view of one client.
type Session struct {
	ID        string
	View      *listview.View
	CreatedAt time.Time
	LastUsed  time.Time
	sync.Mutex
}

// Pool manages view sessions with idle and absolute timeouts.
type Pool struct {
	sessions    map[string]*Session
	mu          sync.Mutex
	idleTimeout time.Duration
	absTimeout  time.Duration
	maxSessions int
	cleanupStop chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
}

var _ listview.SessionStore = (*Pool)(nil)

// CleanupInterval is how often expired sessions are removed.
const CleanupInterval = 30 * time.Second

// New creates a pool and starts its cleanup routine. maxSessions <= 0 means
// unlimited.
func New(maxSessions int, idleTimeout, absTimeout time.Duration) *Pool {
	p := newPool(maxSessions, idleTimeout, absTimeout, time.Now)
	p.startCleanupRoutine(CleanupInterval)
	return p
}

func newPool(maxSessions int, idleTimeout, absTimeout time.Duration, now func() time.Time) *Pool {
	return &Pool{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		absTimeout:  absTimeout,
		maxSessions: maxSessions,
		cleanupStop: make(chan struct{}),
		done:        make(chan struct{}),
		now:         now,
	}
}

// Close stops the cleanup routine and drops all sessions.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.cleanupStop)
		<-p.done
		p.mu.Lock()
		clear(p.sessions)
		p.mu.Unlock()
	})
	return nil
}

func (p *Pool) startCleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ticker.C:
				p.cleanupTimeouts()
			case <-p.cleanupStop:
				ticker.Stop()
				return
			}
		}
	}()
}

func (p *Pool) cleanupTimeouts() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for id, s := range p.sessions {
		// A locked session is in use and therefore not idle.
		if !s.TryLock() {
			continue
		}
		if p.expired(s, now) {
			slog.Info("Cleaning up expired session", "session", id, "list", s.View.Props().List)
			delete(p.sessions, id)
		}
		s.Unlock()
	}
}

func (p *Pool) expired(s *Session, now time.Time) bool {
	if p.absTimeout > 0 && now.Sub(s.CreatedAt) > p.absTimeout {
		return true
	}
	return p.idleTimeout > 0 && now.Sub(s.LastUsed) > p.idleTimeout
}

// Open registers v under a new session id.
func (p *Pool) Open(v *listview.View) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.maxSessions > 0 && len(p.sessions) >= p.maxSessions {
		return "", fmt.Errorf("%w (max %d)", ErrCapacity, p.maxSessions)
	}

	now := p.now()
	s := &Session{
		ID:        uuid.NewString(),
		View:      v,
		CreatedAt: now,
		LastUsed:  now,
	}
	p.sessions[s.ID] = s
	return s.ID, nil
}

// With runs fn on the view of session id while holding the session lock.
// Unknown and expired ids return listview.ErrUnknownSession.
func (p *Pool) With(id string, fn func(*listview.View) error) error {
	p.mu.Lock()
	s, ok := p.sessions[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", listview.ErrUnknownSession, id)
	}

	s.Lock()
	defer s.Unlock()

	now := p.now()
	if p.expired(s, now) {
		p.mu.Lock()
		delete(p.sessions, id)
		p.mu.Unlock()
		return fmt.Errorf("%w: %s expired", listview.ErrUnknownSession, id)
	}
	s.LastUsed = now
	return fn(s.View)
}

// Remove drops session id.
func (p *Pool) Remove(id string) {
	p.mu.Lock()
	delete(p.sessions, id)
	p.mu.Unlock()
}

// Len returns the number of live sessions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}
