// Package session keeps one submission controller per browser session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/clck-web/internal/submission"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("session not found")

// IDGenerator returns a new unguessable session id.
type IDGenerator func() string

// ControllerFactory builds the controller for a new session around its clipboard.
type ControllerFactory func(clipboard *Clipboard) *submission.Controller

// Session is the state owned by one browser session.
type Session struct {
	ID         string
	Controller *submission.Controller
	Clipboard  *Clipboard

	lastSeen time.Time
}

// Config bounds the registry.
type Config struct {
	TTL           time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

// Registry maps session ids to sessions and evicts idle ones.
type Registry struct {
	newID         IDGenerator
	newController ControllerFactory
	cfg           Config
	now           func() time.Time
	logger        *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(newID IDGenerator, newController ControllerFactory, cfg Config, logger *zap.Logger) *Registry {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	return &Registry{
		newID:         newID,
		newController: newController,
		cfg:           cfg,
		now:           time.Now,
		logger:        logger,
		sessions:      make(map[string]*Session),
	}
}

// SetClock replaces the time source. Intended for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.now = now
}

// Get returns the live session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || r.expiredLocked(s) {
		return nil, ErrNotFound
	}

	s.lastSeen = r.now()

	return s, nil
}

// Open returns the session for id, creating a new one with a fresh id when id is
// unknown or expired. created reports whether a new session was made.
func (r *Registry) Open(id string) (sess *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && !r.expiredLocked(s) {
		s.lastSeen = r.now()

		return s, false
	}

	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		r.sweepLocked()

		if len(r.sessions) >= r.cfg.MaxSessions {
			r.evictOldestLocked()
		}
	}

	clipboard := &Clipboard{}
	s := &Session{
		ID:         r.newID(),
		Controller: r.newController(clipboard),
		Clipboard:  clipboard,
		lastSeen:   r.now(),
	}
	r.sessions[s.ID] = s

	return s, true
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Sweep evicts expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sweepLocked()
}

func (r *Registry) sweepLocked() int {
	removed := 0

	for id, s := range r.sessions {
		if r.expiredLocked(s) {
			r.removeLocked(id)
			removed++
		}
	}

	return removed
}

func (r *Registry) evictOldestLocked() {
	var oldest *Session

	for _, s := range r.sessions {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}

	if oldest != nil {
		r.logger.Warn("session limit reached, evicting oldest session",
			zap.Int("maxSessions", r.cfg.MaxSessions),
		)
		r.removeLocked(oldest.ID)
	}
}

func (r *Registry) expiredLocked(s *Session) bool {
	return r.cfg.TTL > 0 && r.now().Sub(s.lastSeen) > r.cfg.TTL
}

func (r *Registry) removeLocked(id string) {
	if s, ok := r.sessions[id]; ok {
		s.Controller.Close()
		delete(r.sessions, id)
	}
}

// Start runs the janitor until ctx is done or Shutdown is called.
func (r *Registry) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.logger.Debug("evicted idle sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// Shutdown stops the janitor and closes every session.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.sessions {
		r.removeLocked(id)
	}

	return nil
}
