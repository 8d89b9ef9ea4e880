// Package session maps opaque bearer tokens to usernames for the lifetime
// of the process.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
)

const tokenBytes = 32

type Registry interface {
	Create(username string) (string, error)
	Lookup(token string) (string, bool)
}

type InMemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{sessions: make(map[string]string)}
}

// Create issues a new random token bound to username. Earlier tokens for the
// same user stay valid.
func (r *InMemoryRegistry) Create(username string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	r.mu.Lock()
	r.sessions[token] = username
	r.mu.Unlock()
	return token, nil
}

func (r *InMemoryRegistry) Lookup(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	username, ok := r.sessions[token]
	return username, ok
}

func (r *InMemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
