// internal/browser/pool.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionPool implements Pool. Sessions are created lazily up to maxSize;
// the server borrows one per scrape run so concurrent runs do not share a
// tab.
type SessionPool struct {
	config      *Config
	sessions    chan Session
	maxSize     int
	currentSize int
	mu          sync.RWMutex
	closed      bool

	// newSession is swappable in tests
	newSession func(*Config) (Session, error)
}

// NewSessionPool creates a session pool
func NewSessionPool(config *Config, maxSize int) *SessionPool {
	if config == nil {
		config = DefaultConfig()
	}
	if maxSize <= 0 {
		maxSize = 2
	}

	return &SessionPool{
		config:   config,
		sessions: make(chan Session, maxSize),
		maxSize:  maxSize,
		newSession: func(c *Config) (Session, error) {
			return NewChromeSession(c)
		},
	}
}

// Get retrieves an idle session or creates a new one under the limit
func (p *SessionPool) Get(ctx context.Context) (Session, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, fmt.Errorf("pool is closed")
	}
	p.mu.RUnlock()

	select {
	case session := <-p.sessions:
		return session, nil
	default:
	}

	p.mu.Lock()
	if p.currentSize < p.maxSize {
		session, err := p.newSession(p.config)
		if err != nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("failed to create browser session: %w", err)
		}
		p.currentSize++
		p.mu.Unlock()
		return session, nil
	}
	p.mu.Unlock()

	select {
	case session := <-p.sessions:
		return session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("timeout waiting for available browser session")
	}
}

// Put returns a session to the pool
func (p *SessionPool) Put(session Session) error {
	if session == nil {
		return fmt.Errorf("cannot put nil session in pool")
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		session.Close()
		return fmt.Errorf("pool is closed")
	}

	select {
	case p.sessions <- session:
		return nil
	default:
		session.Close()
		p.mu.Lock()
		p.currentSize--
		p.mu.Unlock()
		return nil
	}
}

// Size returns the number of idle sessions
func (p *SessionPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

// Close closes all idle sessions and rejects further use
func (p *SessionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.sessions)
	for session := range p.sessions {
		session.Close()
	}
	p.currentSize = 0
	return nil
}
