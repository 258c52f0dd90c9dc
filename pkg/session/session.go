// Package session stores the per-conversation state the digester and relay
// read between requests: sender identity, channel, activity template and the
// pending extended-content sub-answers.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Keys shared by the packages that read and write session state.
const (
	KeySubAnswers = "federatedSubanswers"
	KeySender     = "teamsSender"
	KeyChannel    = "teamsChannel"
	KeyActivity   = "teamsActivity"
	KeyTarget     = "teamsTarget"

	// KeyPendingRating holds a rating waiting for the user's comment.
	KeyPendingRating = "askingRatingComment"
)

// Session is a conversation-scoped key/value store. Values are JSON-encoded.
type Session interface {
	// Get decodes the value stored under key into dst and reports whether it existed.
	Get(key string, dst any) (bool, error)
	Set(key string, value any) error
	Has(key string) bool
}

// Memory is an in-process Session.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty in-memory session.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(key string, dst any) (bool, error) {
	m.mu.RLock()
	data, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("decode session key %q: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session key %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = data
	return nil
}

func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}
