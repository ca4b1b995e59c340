package ui

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// keepAlive is the interval of SSE comment lines that keep proxies from
// closing an idle stream.
const keepAlive = 15 * time.Second

// ServeHTTP streams hub events as Server-Sent Events. The first event is
// the full state.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	listener := h.events.Subscribe()
	defer h.events.Unsubscribe(listener)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	state := h.Snapshot()
	if err := writeEvent(w, Event{Kind: EventState, State: &state}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev := <-listener.C:
			if err := writeEvent(w, ev); err != nil {
				log.Printf("Events: write error: %v", err)
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
