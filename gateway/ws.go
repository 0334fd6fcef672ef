package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/c360/plantstream/types"
)

// wireEvent is the JSON envelope broadcast to WebSocket clients: the
// same type-discriminated shape the channel client consumes on the
// other side of the wire.
type wireEvent struct {
	Type types.EventType `json:"type"`
	Data types.Event     `json:"data"`
}

// handleWebSocket upgrades the connection and registers it for event
// fanout. Inbound frames are read only to detect the close.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn}
	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	count := len(s.clients)
	s.clientsMu.Unlock()

	s.metrics.setWSClients(float64(count))
	s.logger.Info("WebSocket client connected",
		"remote", conn.RemoteAddr().String(), "clients", count)

	go s.readUntilClose(client)
}

func (s *Server) readUntilClose(client *wsClient) {
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			break
		}
	}
	s.removeClient(client)
}

func (s *Server) removeClient(client *wsClient) {
	s.clientsMu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, client)
	count := len(s.clients)
	s.clientsMu.Unlock()

	_ = client.conn.Close()
	s.metrics.setWSClients(float64(count))
}

// enqueueEvent is the hub callback: it hands the event to the
// broadcaster without blocking the publisher. A full queue drops the
// event.
func (s *Server) enqueueEvent(event types.Event) {
	select {
	case s.events <- event:
	default:
		s.metrics.recordDroppedEvent()
	}
}

// broadcastLoop serializes events and writes them to every client.
// Clients that fail a write are detached; a browser that went away
// should not stall the fanout.
func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.events:
			data, err := json.Marshal(wireEvent{
				Type: event.EventType(),
				Data: event,
			})
			if err != nil {
				s.logger.Warn("Failed to marshal event", "type", event.EventType(), "error", err)
				continue
			}

			s.clientsMu.Lock()
			targets := make([]*wsClient, 0, len(s.clients))
			for client := range s.clients {
				targets = append(targets, client)
			}
			s.clientsMu.Unlock()

			for _, client := range targets {
				if err := client.write(data); err != nil {
					s.removeClient(client)
				}
			}
			s.metrics.recordBroadcast(string(event.EventType()))
		}
	}
}
