// Package room holds the room directory: the authoritative set of chat
// rooms. Rooms are created, listed, and checked for existence; they are
// never mutated or deleted for the lifetime of the process.
package room

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyName is returned when a room is created with a blank name.
var ErrEmptyName = errors.New("room name is required")

// Room is an unbounded-membership broadcast channel. Any connected
// participant may post to any room; there is no membership list.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Creator   string    `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
}

// Directory is the room directory contract. Implementations must be
// safe for concurrent use.
type Directory interface {
	// Create stores a new room with a unique id and returns it.
	Create(name, creator string) (*Room, error)

	// List returns all rooms in creation order.
	List() []*Room

	// Exists reports whether a room with the given id exists.
	Exists(id string) bool
}

// newRoom validates the name and builds a Room with a fresh id. The
// creator is recorded as given; it is a snapshot, not a reference.
func newRoom(name, creator string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Room{
		ID:        uuid.NewString(),
		Name:      name,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// MemoryDirectory keeps rooms in process memory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	order []*Room
	byID  map[string]*Room
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{byID: make(map[string]*Room)}
}

// Create adds a new room and returns it.
func (d *MemoryDirectory) Create(name, creator string) (*Room, error) {
	r, err := newRoom(name, creator)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.order = append(d.order, r)
	d.byID[r.ID] = r
	d.mu.Unlock()
	return r, nil
}

// List returns a snapshot of all rooms in creation order.
func (d *MemoryDirectory) List() []*Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	result := make([]*Room, len(d.order))
	copy(result, d.order)
	return result
}

// Exists reports whether a room with the given id exists.
func (d *MemoryDirectory) Exists(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[id]
	return ok
}
