/*
Package chat implements the real-time messaging and presence core of the
SmartComms server.

This file defines the Presence set: the users currently considered online.
Presence is chat-interaction-scoped, not connection-scoped. A user becomes
online by joining a chat context and goes offline when they leave or when their
last session disconnects; a connected user who never joined anything is not
online for broadcast purposes.
*/
package chat

import "sync"

// Presence is the set of user identities currently online.
type Presence struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

// NewPresence returns an empty Presence set.
func NewPresence() *Presence {
	return &Presence{
		online: make(map[string]struct{}),
	}
}

// MarkOnline inserts the user. Idempotent.
func (p *Presence) MarkOnline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.online[userID] = struct{}{}
}

// MarkOffline removes the user. Idempotent.
func (p *Presence) MarkOffline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.online, userID)
}

// IsOnline reports whether the user is in the set.
func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.online[userID]
	return ok
}

// Snapshot returns the current set membership. It reflects every mark that
// completed before the call.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.online))
	for userID := range p.online {
		users = append(users, userID)
	}

	return users
}
