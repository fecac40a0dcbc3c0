package smpc

import (
	"sync"
)

// Inbox holds the share packages a worker has received, keyed by session.
// Retraction removes a session's package entirely, which is what gives
// aborted sessions their no-committed-shares guarantee on the receiving
// side.
type Inbox struct {
	mu       sync.RWMutex
	sessions map[string]*SharePackage
}

// NewInbox creates an empty share inbox.
func NewInbox() *Inbox {
	return &Inbox{sessions: make(map[string]*SharePackage)}
}

// Put stores the package for its session, replacing any earlier delivery
// for the same session (re-sends are idempotent).
func (in *Inbox) Put(pkg *SharePackage) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.sessions[pkg.SessionID] = pkg
}

// Get returns the package for a session, or false if none is held.
func (in *Inbox) Get(sessionID string) (*SharePackage, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	pkg, ok := in.sessions[sessionID]
	return pkg, ok
}

// Retract discards the package for a session. Retracting an unknown
// session is a no-op.
func (in *Inbox) Retract(sessionID string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.sessions, sessionID)
}

// Len returns the number of sessions with held shares.
func (in *Inbox) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.sessions)
}
