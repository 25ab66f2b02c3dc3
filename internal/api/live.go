package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/infra/metrics"
)

// ─── Live Progress Feed ─────────────────────────────────────────────────────
// Engine events pushed to the UI over Server-Sent Events:
//   event: achievementCompleted
//   data: {"id":"...","type":"achievementCompleted","payload":{...},"timestamp":...}

// LiveEvent is one message on the live feed.
type LiveEvent struct {
	ID        string               `json:"id"`
	Type      engagement.EventName `json:"type"`
	Payload   any                  `json:"payload"`
	Timestamp int64                `json:"timestamp"` // Unix epoch
}

// LiveHub fans engine events out to connected SSE clients.
type LiveHub struct {
	mu      sync.RWMutex
	clients map[string]chan []byte
}

// NewLiveHub creates a new broadcast hub.
func NewLiveHub() *LiveHub {
	return &LiveHub{clients: make(map[string]chan []byte)}
}

// Attach forwards every engine event to the hub.
func (h *LiveHub) Attach(events *engagement.Events) (cancel func()) {
	return events.SubscribeAll(func(name engagement.EventName, payload any) {
		h.Broadcast(name, payload)
	})
}

// Broadcast sends an event to all connected clients. Slow clients miss it.
func (h *LiveHub) Broadcast(name engagement.EventName, payload any) {
	data, err := json.Marshal(LiveEvent{
		ID:        uuid.New().String(),
		Type:      name,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Printf("[api] live event %s: %v", name, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- data:
		default:
			// Client too slow, drop message
		}
	}
}

// Subscribe registers a new client. Returns its ID, channel and an
// unsubscribe func.
func (h *LiveHub) Subscribe() (string, <-chan []byte, func()) {
	id := uuid.New().String()
	ch := make(chan []byte, 32)

	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	metrics.LiveClients.Inc()

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, id)
			h.mu.Unlock()
			close(ch)
			metrics.LiveClients.Dec()
		})
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleSSE serves the live feed via Server-Sent Events.
// GET /api/progress/live
func (h *LiveHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch, unsub := h.Subscribe()
	defer unsub()

	w.Write([]byte("event: hello\ndata: {\"client_id\":\"" + id + "\"}\n\n"))
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		case data, ok := <-ch:
			if !ok {
				return
			}
			var ev struct {
				Type string `json:"type"`
			}
			json.Unmarshal(data, &ev)
			w.Write([]byte("event: " + ev.Type + "\ndata: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
