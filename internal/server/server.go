// Package server exposes the relay over HTTP: the websocket endpoint,
// a status query, and a room list for operational use.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/emiller/chatrelay/internal/registry"
	"github.com/emiller/chatrelay/internal/relay"
	"github.com/emiller/chatrelay/internal/room"
	"nhooyr.io/websocket"
)

// Server is the HTTP front of the relay.
type Server struct {
	httpSrv *http.Server
	mux     *http.ServeMux
	relay   *relay.Relay
}

// New creates a Server listening on addr, serving the given relay.
func New(addr string, r *relay.Relay) *Server {
	s := &Server{
		mux:   http.NewServeMux(),
		relay: r,
	}
	s.httpSrv = &http.Server{Addr: addr, Handler: s.mux}
	s.routes()
	return s
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown closes every websocket connection and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.relay.Shutdown()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
}

// handleWS upgrades the connection and hands it to the relay.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow all origins in dev; tighten in production.
	})
	if err != nil {
		log.Printf("server: websocket accept error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.relay.HandleConn(r.Context(), relay.NewClient(conn))
}

// healthResponse mirrors the status query shape: connection count,
// online users, and the room list.
type healthResponse struct {
	Status      string                 `json:"status"`
	Connections int                    `json:"connections"`
	Users       []registry.Participant `json:"users"`
	Rooms       []*room.Room           `json:"rooms"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:      "ok",
		Connections: s.relay.ConnCount(),
		Users:       s.relay.Online(),
		Rooms:       s.relay.Rooms(),
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.relay.Rooms())
}
