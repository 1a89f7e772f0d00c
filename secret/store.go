package secret

import (
	"crypto/subtle"
	"fmt"
	"sync"
)

var ErrSecretNotFound = fmt.Errorf("secret not found")

// Store keeps the bearer tokens accepted by the HTTP API.
type Store interface {
	// Verify returns ErrSecretNotFound when token is not known.
	Verify(token string) error
	Add(token string) error
	Len() int
	IsReady() bool
	Close() error
}

type InMemoryStore struct {
	mu     sync.RWMutex
	tokens [][]byte
}

func NewInMemoryStore(tokens ...string) (*InMemoryStore, error) {
	s := &InMemoryStore{}
	for _, token := range tokens {
		if err := s.Add(token); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *InMemoryStore) Verify(token string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidate := []byte(token)
	found := 0
	for _, known := range s.tokens {
		found |= subtle.ConstantTimeCompare(known, candidate)
	}
	if found == 0 {
		return ErrSecretNotFound
	}
	return nil
}

func (s *InMemoryStore) Add(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, []byte(token))
	return nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *InMemoryStore) IsReady() bool {
	return s != nil
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil // Clear secrets on close
	return nil
}
