package vocab

import (
	"errors"
	"sync"
)

// Key is a stable integer key for an interned string.
type Key uint64

// ErrUnknownKey is returned when a key was never interned in the store.
var ErrUnknownKey = errors.New("unknown string key")

// StringStore interns strings to stable integer keys and resolves them
// back. Implementations must be safe for concurrent use.
type StringStore interface {
	// Intern returns the key for text, assigning a fresh one on first use.
	Intern(text string) Key

	// Resolve returns the text a key was interned from.
	Resolve(key Key) (string, error)
}

// MapStore is an in-memory StringStore backed by a pair of maps.
type MapStore struct {
	mu   sync.RWMutex
	keys map[string]Key
	text map[Key]string
	next Key
}

// NewMapStore creates an empty in-memory string store.
func NewMapStore() *MapStore {
	return &MapStore{
		keys: make(map[string]Key),
		text: make(map[Key]string),
		next: 1,
	}
}

// Intern returns the key for text, assigning the next free key on first use.
func (s *MapStore) Intern(text string) Key {
	s.mu.RLock()
	key, ok := s.keys[text]
	s.mu.RUnlock()
	if ok {
		return key
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.keys[text]; ok {
		return key
	}
	key = s.next
	s.next++
	s.keys[text] = key
	s.text[key] = text
	return key
}

// Resolve returns the text for a previously interned key.
func (s *MapStore) Resolve(key Key) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.text[key]
	if !ok {
		return "", ErrUnknownKey
	}
	return text, nil
}

// Contains reports whether text has been interned.
func (s *MapStore) Contains(text string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[text]
	return ok
}
