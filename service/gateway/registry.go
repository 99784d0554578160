package gateway

import (
	"sync"
)

// Registry is the in-memory presence mapping. It keeps the most recent
// connection per user (last writer wins) and a token index used only for
// forced disconnection by credential. Rebuilt from scratch on restart.
type Registry struct {
	mu      sync.RWMutex
	byUser  map[string]*Client // user id -> current connection
	byToken map[string]*Client // credential -> current connection
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:  make(map[string]*Client),
		byToken: make(map[string]*Client),
	}
}

// Register overwrites any prior entry for the same user or token.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[c.UserID] = c
	if c.Token != "" {
		r.byToken[c.Token] = c
	}
}

func (r *Registry) Resolve(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

func (r *Registry) ResolveByToken(token string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byToken[token]
	return c, ok
}

// Unregister removes the entries only while c is still the registered
// connection; the disconnect of an already-superseded connection must not
// evict its successor. Reports whether c was current.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.byUser[c.UserID] == c
	if current {
		delete(r.byUser, c.UserID)
	}
	if c.Token != "" && r.byToken[c.Token] == c {
		delete(r.byToken, c.Token)
	}
	return current
}

// All snapshots every registered connection, for presence broadcasts.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byUser))
	for _, c := range r.byUser {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
