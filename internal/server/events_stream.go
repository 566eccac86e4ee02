package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/volumebot/console/internal/events"
	"github.com/volumebot/console/internal/utils"
)

const (
	eventBufferSize   = 100
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 5 * time.Second
)

// EventsStreamHandler streams bus events to websocket clients.
type EventsStreamHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger

	mu     sync.Mutex
	cancel map[*websocket.Conn]context.CancelFunc
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(eventBus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_stream").Logger(),
		cancel:   make(map[*websocket.Conn]context.CancelFunc),
	}
}

// ServeHTTP handles GET /api/events. The optional types parameter is a
// comma separated list of event types to forward.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var allowedTypes map[events.EventType]bool
	if types := utils.ParseList(r.URL.Query().Get("types")); types != nil {
		allowedTypes = make(map[events.EventType]bool, len(types))
		for _, t := range types {
			allowedTypes[events.EventType(t)] = true
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept websocket")
		return
	}

	// Client frames are ignored; ctx ends when the client goes away
	ctx := conn.CloseRead(r.Context())
	ctx, cancel := context.WithCancel(ctx)
	h.track(conn, cancel)
	defer h.untrack(conn)

	eventChan := make(chan *events.Event, eventBufferSize)
	unsubscribe := h.eventBus.SubscribeAll(func(event *events.Event) {
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}
		// Non-blocking send (drop if channel full)
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	})
	defer unsubscribe()

	h.log.Info().Msg("Client connected to event stream")

	if err := h.write(ctx, conn, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	}); err != nil {
		conn.Close(websocket.StatusInternalError, "write failed")
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusGoingAway, "")
			return

		case event := <-eventChan:
			if err := h.write(ctx, conn, map[string]interface{}{
				"id":        event.ID,
				"type":      string(event.Type),
				"module":    event.Module,
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			}); err != nil {
				h.log.Debug().Err(err).Msg("Event write failed")
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-heartbeat.C:
			if err := h.write(ctx, conn, map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			}); err != nil {
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, msg map[string]interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (h *EventsStreamHandler) track(conn *websocket.Conn, cancel context.CancelFunc) {
	h.mu.Lock()
	h.cancel[conn] = cancel
	h.mu.Unlock()
}

func (h *EventsStreamHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	cancel, ok := h.cancel[conn]
	delete(h.cancel, conn)
	h.mu.Unlock()
	if ok {
		cancel()
	}
}

// Clients returns the number of connected clients.
func (h *EventsStreamHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cancel)
}

// Close disconnects every client.
func (h *EventsStreamHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cancel := range h.cancel {
		cancel()
	}
}
