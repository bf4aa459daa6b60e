package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Yiling-J/theine-go"
	"github.com/aevon-lab/aevon-search/internal/stream"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or exhausted page tokens.
	ErrSessionNotFound = errors.New("page session not found")

	// ErrSessionRejected is returned when the cache refuses a new session.
	ErrSessionRejected = errors.New("page session not admitted")
)

const (
	defaultSessionCapacity = 10000
	defaultSessionTTL      = 5 * time.Minute
)

// pageSession is an open cursor plus the page last handed out.
// mu serializes Next calls on the same token.
type pageSession struct {
	mu      sync.Mutex
	index   string
	columns []string
	page    *stream.Page[stream.Tuple]
}

// sessionStore is the subset of the theine cache used by SessionCache.
type sessionStore interface {
	SetWithTTL(token string, sess *pageSession, cost int64, ttl time.Duration) bool
	Get(token string) (*pageSession, bool)
	Delete(token string)
	Close()
}

// SessionCache holds open page sessions keyed by token. Entries expire ttl
// after they were opened; cursors of evicted or expired sessions are closed.
type SessionCache struct {
	cache sessionStore
	ttl   time.Duration
}

// NewSessionCache creates a cache of at most capacity sessions.
func NewSessionCache(capacity int64, ttl time.Duration) (*SessionCache, error) {
	if capacity <= 0 {
		capacity = defaultSessionCapacity
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	cache, err := theine.NewBuilder[string, *pageSession](capacity).
		RemovalListener(func(token string, sess *pageSession, reason theine.RemoveReason) {
			if reason == theine.REMOVED {
				return
			}
			sess.release(token)
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("page session cache: %w", err)
	}
	return &SessionCache{cache: cache, ttl: ttl}, nil
}

// open stores a session and returns its token. The caller still owns the
// session's cursor when the cache does not admit it.
func (c *SessionCache) open(sess *pageSession) (string, error) {
	token := uuid.New().String()
	if !c.cache.SetWithTTL(token, sess, 1, c.ttl) {
		return "", fmt.Errorf("%w: index %s", ErrSessionRejected, sess.index)
	}
	return token, nil
}

func (c *SessionCache) get(token string) (*pageSession, error) {
	sess, ok := c.cache.Get(token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, token)
	}
	return sess, nil
}

func (c *SessionCache) remove(token string) {
	c.cache.Delete(token)
}

// Close drops every session. Cursors left open expire on the engine side.
func (c *SessionCache) Close() {
	c.cache.Close()
}

// release closes the cursor of a session dropped by the cache.
func (s *pageSession) release(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.page.Close(ctx); err != nil {
		slog.Warn("[Sessions] Failed to close cursor of dropped session",
			"token", token,
			"index", s.index,
			"error", err,
		)
	}
}
