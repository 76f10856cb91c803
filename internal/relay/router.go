package relay

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/emiller/chatrelay/internal/registry"
)

// ErrUnknownRoom is returned when a message targets a room id that is
// not in the directory.
var ErrUnknownRoom = errors.New("unknown room")

// route determines the delivery set for a validated message event and
// fans it out. Room messages go to every registered connection except
// the sender; direct messages go to every connection holding the
// recipient username. The sender always gets exactly one echo with
// IsOwn=true. An offline recipient is not an error: only the echo is
// delivered.
func (r *Relay) route(sender *Client, p registry.Participant, ev Event) error {
	ts := ev.Timestamp
	if ts == "" {
		// The router assigns a timestamp only when the client omitted
		// one; client clocks are trusted otherwise.
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	out := MessageEvent{
		Type:        EventMessage,
		Sender:      p.Username,
		DisplayName: p.DisplayName,
		Avatar:      p.Avatar,
		Text:        ev.Text,
		Timestamp:   ts,
	}

	var targets []*Client
	if ev.RoomID != "" {
		if !r.rooms.Exists(ev.RoomID) {
			return ErrUnknownRoom
		}
		out.RoomID = ev.RoomID
		for _, c := range r.registry.Connections() {
			if c != sender {
				targets = append(targets, c)
			}
		}
	} else {
		// A direct message to the sender's own username is delivered
		// like any other: one recipient copy plus the echo.
		out.Recipient = ev.Recipient
		targets = r.registry.FindByUsername(ev.Recipient)
	}

	data, err := json.Marshal(out)
	if err != nil {
		log.Printf("relay: failed to marshal message: %v", err)
		return nil
	}
	for _, c := range targets {
		r.conns.Send(c, data)
	}

	echo := out
	echo.IsOwn = true
	r.sendTo(sender, echo)
	return nil
}
