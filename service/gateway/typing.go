package gateway

import (
	"strings"
	"sync"
	"time"
)

const typingKeySep = "|"

// TypingConf carries the expiry window; injectable so tests run with
// millisecond timers.
type TypingConf struct {
	Expiry time.Duration
}

func (c *TypingConf) norm() {
	if c.Expiry <= 0 {
		c.Expiry = 3 * time.Second
	}
}

// TypingCoordinator tracks transient typing signals per (sender, peer) pair.
// At most one live timer per key; a repeated signal cancels and replaces the
// prior timer so only the latest one fires.
type TypingCoordinator struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	expiry time.Duration
}

func NewTypingCoordinator(conf TypingConf) *TypingCoordinator {
	conf.norm()
	return &TypingCoordinator{
		timers: make(map[string]*time.Timer),
		expiry: conf.Expiry,
	}
}

func typingKey(senderID, peerID string) string {
	return senderID + typingKeySep + peerID
}

// Start arms (or re-arms) the expiry timer for the pair. onExpire runs once
// when the window elapses without a newer signal or an explicit stop.
func (t *TypingCoordinator) Start(senderID, peerID string, onExpire func()) {
	key := typingKey(senderID, peerID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.timers[key]; ok {
		old.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(t.expiry, func() {
		t.mu.Lock()
		if t.timers[key] != timer {
			// replaced or cancelled after this fire was scheduled
			t.mu.Unlock()
			return
		}
		delete(t.timers, key)
		t.mu.Unlock()
		onExpire()
	})
	t.timers[key] = timer
}

// Stop cancels the pending timer for the pair; reports whether one existed.
func (t *TypingCoordinator) Stop(senderID, peerID string) bool {
	key := typingKey(senderID, peerID)
	t.mu.Lock()
	defer t.mu.Unlock()
	timer, ok := t.timers[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.timers, key)
	return true
}

// ClearSender drops every pending timer the sender owns, without firing.
// Called on disconnect; the presence-offline broadcast supersedes any
// stop-typing signal.
func (t *TypingCoordinator) ClearSender(senderID string) {
	prefix := senderID + typingKeySep
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		if strings.HasPrefix(key, prefix) {
			timer.Stop()
			delete(t.timers, key)
		}
	}
}

// Pending returns the number of live timers.
func (t *TypingCoordinator) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
