package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mdvault/mdvault/internal/watch"
)

// EventsHandler streams store change events over server-sent events.
type EventsHandler struct {
	watcher *watch.Watcher
}

// NewEventsHandler creates a new events handler. watcher may be nil when
// watching is unavailable; the endpoint then returns 503.
func NewEventsHandler(watcher *watch.Watcher) *EventsHandler {
	return &EventsHandler{watcher: watcher}
}

// StreamHandler is a raw SSE handler; each store change is one `data:` line
// of JSON, with a keep-alive comment every 30 seconds.
func (h *EventsHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if h.watcher == nil {
		http.Error(w, "change watching unavailable", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	events, cancel := h.watcher.Subscribe()
	defer cancel()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
