package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/emiller/chatrelay/internal/room"
)

// HandleConn runs the session protocol for one connection: a read loop
// that validates each inbound event and dispatches it against the
// shared state. It returns when the connection closes, errors, or the
// connection manager cancels it. Cleanup is idempotent.
func (r *Relay) HandleConn(ctx context.Context, c *Client) {
	connCtx := r.conns.Add(c)
	defer r.closeSession(c)

	for {
		select {
		case <-connCtx.Done():
			return
		default:
		}

		_, data, err := c.conn.Read(ctx)
		if err != nil {
			// Normal close, transport error, or context cancelled.
			return
		}

		r.conns.TouchActivity(c)
		r.dispatch(c, data)
	}
}

// dispatch validates one inbound frame and applies it. Protocol errors
// are reported on the same connection and never close it.
func (r *Relay) dispatch(c *Client, data []byte) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("relay: malformed frame from %s: %v", c.id, err)
		r.sendError(c, "failed to process message")
		return
	}

	switch ev.Type {
	case EventJoin:
		if ev.Username == "" {
			r.sendError(c, "username is required")
			return
		}
		// A second join on a joined connection re-registers, refreshing
		// the profile instead of duplicating the participant.
		r.registry.Register(c, ev.Username, ev.DisplayName, ev.Avatar)
		log.Printf("relay: %s joined", ev.Username)
		r.broadcastPresence()
		r.broadcastRooms()

	case EventMessage:
		p, ok := r.registry.Get(c)
		if !ok {
			r.sendError(c, "you are not registered, join first")
			return
		}
		if err := r.route(c, p, ev); err != nil {
			r.sendError(c, err.Error())
		}

	case EventCreateRoom:
		rm, err := r.rooms.Create(ev.RoomName, ev.Creator)
		if err != nil {
			if errors.Is(err, room.ErrEmptyName) {
				r.sendError(c, err.Error())
				return
			}
			log.Printf("relay: failed to create room: %v", err)
			r.sendError(c, "failed to create room")
			return
		}
		log.Printf("relay: room %q created by %s", rm.Name, rm.Creator)
		r.broadcastRooms()

	case EventUpdateProfile:
		p, err := r.registry.UpdateProfile(c, ev.DisplayName, ev.Avatar)
		if err != nil {
			r.sendError(c, "you are not registered, join first")
			return
		}
		r.sendTo(c, ProfileUpdatedEvent{
			Type:        EventProfileUpdated,
			Username:    p.Username,
			DisplayName: p.DisplayName,
			Avatar:      p.Avatar,
		})
		r.broadcastPresence()

	default:
		log.Printf("relay: unknown event type %q from %s", ev.Type, c.id)
		r.sendError(c, "unknown event kind")
	}
}

// closeSession removes the connection and, if it had joined, announces
// the departure through a presence broadcast. Safe to call twice.
func (r *Relay) closeSession(c *Client) {
	r.conns.Remove(c)
	if p, ok := r.registry.Unregister(c); ok {
		log.Printf("relay: %s disconnected", p.Username)
		r.broadcastPresence()
	}
}
