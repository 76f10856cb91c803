// Package registry tracks which participants are online. It holds the
// association from live connections to participant identity; the
// transport layer owns the connections themselves.
package registry

import (
	"errors"
	"sync"
	"unicode"
)

// ErrNotRegistered is returned when a connection has no participant entry.
var ErrNotRegistered = errors.New("connection is not registered")

// Participant is a joined chat identity bound to one live connection.
type Participant struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// Registry is the authoritative mapping from connections to participants.
// C is the connection key type. Entries are stored and returned by value
// so callers never share mutable state with the registry.
type Registry[C comparable] struct {
	mu           sync.RWMutex
	participants map[C]Participant
}

// New creates an empty Registry.
func New[C comparable]() *Registry[C] {
	return &Registry[C]{participants: make(map[C]Participant)}
}

// Register inserts or overwrites the participant entry for conn.
// An empty displayName defaults to the username and an empty avatar to
// the uppercased first rune of the username. Duplicate usernames across
// different connections are allowed; presence shows the last writer and
// FindByUsername returns every match.
func (r *Registry[C]) Register(conn C, username, displayName, avatar string) Participant {
	if displayName == "" {
		displayName = username
	}
	if avatar == "" {
		avatar = defaultAvatar(username)
	}
	p := Participant{Username: username, DisplayName: displayName, Avatar: avatar}

	r.mu.Lock()
	r.participants[conn] = p
	r.mu.Unlock()
	return p
}

// Unregister removes and returns the entry for conn. The second return
// is false if the connection was never registered, so calling it twice
// is harmless.
func (r *Registry[C]) Unregister(conn C) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[conn]
	if ok {
		delete(r.participants, conn)
	}
	return p, ok
}

// Get returns the participant registered for conn.
func (r *Registry[C]) Get(conn C) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[conn]
	return p, ok
}

// UpdateProfile mutates the displayName and avatar for conn. Empty
// fields keep their current value, which makes replays converge.
func (r *Registry[C]) UpdateProfile(conn C, displayName, avatar string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[conn]
	if !ok {
		return Participant{}, ErrNotRegistered
	}
	if displayName != "" {
		p.DisplayName = displayName
	}
	if avatar != "" {
		p.Avatar = avatar
	}
	r.participants[conn] = p
	return p, nil
}

// ListOnline returns a snapshot of every registered participant. Order
// is not specified. The list is never nil so it serializes as [].
func (r *Registry[C]) ListOnline() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		result = append(result, p)
	}
	return result
}

// Connections returns a snapshot of every registered connection.
func (r *Registry[C]) Connections() []C {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]C, 0, len(r.participants))
	for conn := range r.participants {
		result = append(result, conn)
	}
	return result
}

// FindByUsername returns every connection registered under the given
// username: zero, one, or more given the duplicate-username allowance.
func (r *Registry[C]) FindByUsername(username string) []C {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []C
	for conn, p := range r.participants {
		if p.Username == username {
			result = append(result, conn)
		}
	}
	return result
}

// Count returns the number of registered participants.
func (r *Registry[C]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

func defaultAvatar(username string) string {
	for _, c := range username {
		return string(unicode.ToUpper(c))
	}
	return "?"
}
