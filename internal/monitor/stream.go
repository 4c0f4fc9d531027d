package monitor

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The monitor is local-only by default; same-origin checks would
	// just get in the way of a CLI operator pointing a browser at it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamHub fans a fetch outcome out to every connected /stream client.
// A slow or stuck client is dropped rather than allowed to block the
// others.
type streamHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newStreamHub() *streamHub {
	return &streamHub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *streamHub) add(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *streamHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *streamHub) broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Msg("monitor: failed to marshal stream event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- data:
		default:
			log.Warn().Msg("monitor: dropping slow stream client")
			close(ch)
			delete(h.clients, conn)
		}
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("monitor: websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.hub.add(conn)
	defer s.hub.remove(conn)

	for data := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
