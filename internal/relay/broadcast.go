package relay

import (
	"encoding/json"
	"log"
)

// broadcastPresence pushes the full online list to every connection,
// unfiltered; each viewer excludes itself at render time.
func (r *Relay) broadcastPresence() {
	r.broadcast(UsersEvent{Type: EventUsers, Users: r.registry.ListOnline()})
}

// broadcastRooms pushes the full room list to every connection.
func (r *Relay) broadcastRooms() {
	r.broadcast(RoomsEvent{Type: EventRooms, Rooms: r.Rooms()})
}

// broadcast marshals v once and queues it on every live connection.
// The connection list is snapshotted first so registry changes during
// the fan-out cannot corrupt the iteration.
func (r *Relay) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("relay: failed to marshal broadcast: %v", err)
		return
	}
	for _, c := range r.conns.Clients() {
		r.conns.Send(c, data)
	}
}

// sendTo queues a single event on one connection.
func (r *Relay) sendTo(c *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("relay: failed to marshal event: %v", err)
		return
	}
	r.conns.Send(c, data)
}

// sendError replies with an error event; the connection stays open.
func (r *Relay) sendError(c *Client, text string) {
	r.sendTo(c, ErrorEvent{Type: EventError, Text: text})
}
