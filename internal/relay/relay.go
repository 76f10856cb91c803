// Package relay implements the real-time message relay core: it tracks
// connected participants, routes chat events to the right connections,
// and pushes presence and room-list snapshots on every change.
package relay

import (
	"github.com/emiller/chatrelay/internal/registry"
	"github.com/emiller/chatrelay/internal/room"
)

// Relay owns the shared relay state: the connection manager, the
// participant registry, and the room directory. All mutation happens
// through its per-connection dispatch path.
type Relay struct {
	conns    *ConnManager
	registry *registry.Registry[*Client]
	rooms    room.Directory
}

// New creates a Relay backed by the given room directory.
func New(rooms room.Directory, opts ...ConnManagerOption) *Relay {
	return &Relay{
		conns:    NewConnManager(opts...),
		registry: registry.New[*Client](),
		rooms:    rooms,
	}
}

// ConnCount returns the number of live connections, registered or not.
func (r *Relay) ConnCount() int {
	return r.conns.Count()
}

// Online returns a snapshot of all registered participants.
func (r *Relay) Online() []registry.Participant {
	return r.registry.ListOnline()
}

// Rooms returns the room list in creation order, never nil.
func (r *Relay) Rooms() []*room.Room {
	rooms := r.rooms.List()
	if rooms == nil {
		rooms = []*room.Room{}
	}
	return rooms
}

// Shutdown closes every live connection.
func (r *Relay) Shutdown() {
	r.conns.Shutdown()
}
