/*
Package chat implements the real-time messaging and presence core of the
SmartComms server.

This file defines the Registry, the bidirectional mapping between user
identities and the transport sessions currently representing them. A user may
hold several sessions at once (multiple tabs or devices).
*/
package chat

import "sync"

// Registry maps user identities to their live transport sessions. Both
// directions of the mapping are kept under one lock so a session can never be
// registered without its user entry existing, and vice versa.
type Registry struct {
	mu sync.RWMutex

	// byUser maps a user id to the set of session ids representing them.
	byUser map[string]map[string]struct{}

	// bySession maps a session id back to its user id.
	bySession map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]map[string]struct{}),
		bySession: make(map[string]string),
	}
}

// Register adds a session under the user's entry, creating the entry on the
// user's first session. Registering the same pair twice is a no-op.
func (r *Registry) Register(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.byUser[userID]
	if !ok {
		sessions = make(map[string]struct{})
		r.byUser[userID] = sessions
	}

	sessions[sessionID] = struct{}{}
	r.bySession[sessionID] = userID
}

// Deregister removes a session from whichever user entry holds it and reports
// the owning user and whether that was the user's last session. An unknown
// session is a no-op, not an error: disconnects may race with cleanup.
func (r *Registry) Deregister(sessionID string) (userID string, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.bySession[sessionID]
	if !ok {
		return "", false
	}

	delete(r.bySession, sessionID)

	sessions := r.byUser[userID]
	delete(sessions, sessionID)

	if len(sessions) == 0 {
		delete(r.byUser, userID)
		return userID, true
	}

	return userID, false
}

// SessionsFor returns the union of live session ids for the given users, in no
// particular order and without duplicates even when userIDs repeats a user.
// Users without a live session are skipped: an offline chat member is expected,
// not an error.
func (r *Registry) SessionsFor(userIDs []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var targets []string
	seen := make(map[string]struct{})
	for _, userID := range userIDs {
		for sessionID := range r.byUser[userID] {
			if _, ok := seen[sessionID]; ok {
				continue
			}
			seen[sessionID] = struct{}{}
			targets = append(targets, sessionID)
		}
	}

	return targets
}

// SessionCount reports the number of registered sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.bySession)
}
