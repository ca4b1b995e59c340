package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/satindergrewal/webpiano/internal/piano"
	"github.com/satindergrewal/webpiano/internal/rhythm"
	"github.com/satindergrewal/webpiano/internal/stream"
	"github.com/satindergrewal/webpiano/internal/ui"
	"github.com/satindergrewal/webpiano/internal/web"
)

func newMux(p *piano.Piano, hub *ui.Hub, renderer *web.Renderer, broadcaster *stream.Broadcaster[[]int16], webrtcHandler *stream.WebRTCHandler, title string) *http.ServeMux {
	mux := http.NewServeMux()

	// Web UI
	mux.Handle("/", renderer.Handler(p.Page))
	mux.Handle("/events", hub)

	// Audio streams
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, title))
	mux.Handle("/offer", webrtcHandler)

	// API endpoints
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"piano":            p.Status(),
			"http_listeners":   broadcaster.ListenerCount(),
			"webrtc_listeners": webrtcHandler.PeerCount(),
			"event_listeners":  hub.Events().ListenerCount(),
		})
	})

	mux.HandleFunc("/api/keys", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"keys":    p.KeyMap().Bindings(),
			"rhythms": p.Presets(),
		})
	})

	mux.HandleFunc("/api/play", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Key) == "" {
			http.Error(w, "invalid key", http.StatusBadRequest)
			return
		}
		p.Play(req.Key)
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/rhythm", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Name    string `json:"name"`
			Keys    string `json:"keys"`
			Tempo   string `json:"tempo"`
			Pattern string `json:"pattern"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		// The request stays open for the length of the rhythm; a client
		// that goes away stops it.
		var err error
		if req.Keys == "" {
			err = p.PlayPreset(r.Context(), req.Name)
		} else {
			var spec rhythm.Spec
			if spec, err = p.ParseRhythm(req.Name, req.Keys, req.Tempo, req.Pattern); err == nil {
				err = p.PlayRhythm(r.Context(), spec)
			}
		}

		switch {
		case err == nil:
			writeJSON(w, map[string]any{"ok": true})
		case errors.Is(err, rhythm.ErrAlreadyPlaying):
			log.Printf("Rhythm %q ignored: %v", req.Name, err)
			writeJSONStatus(w, http.StatusConflict, map[string]any{"ok": false, "warning": err.Error()})
		case errors.Is(err, rhythm.ErrInvalidSpec):
			log.Printf("Rhythm %q rejected: %v", req.Name, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			// cancelled by the client
			log.Printf("Rhythm %q interrupted: %v", req.Name, err)
		}
	})

	mux.HandleFunc("/api/rhythm.mid", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		var buf bytes.Buffer
		if err := p.WriteMIDI(&buf, name); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "audio/midi")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mid"`, name))
		w.Write(buf.Bytes())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
