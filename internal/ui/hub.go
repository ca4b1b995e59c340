// Package ui holds the server-side state of the piano page: status line,
// key highlights, rhythm controls and analysis readouts. Browsers follow it
// over Server-Sent Events.
package ui

import (
	"sort"
	"sync"
	"time"

	"github.com/satindergrewal/webpiano/internal/playback"
	"github.com/satindergrewal/webpiano/internal/stream"
)

// HighlightDuration is how long a key stays lit after a trigger.
const HighlightDuration = 150 * time.Millisecond

// PlayingLabel replaces a rhythm control's label while it plays.
const PlayingLabel = "Playing..."

// Status messages shown on the page.
const (
	StatusLoading = "Loading sound files..."
	StatusReady   = "Ready to play!"
	StatusFailed  = "Failed to load sounds. Please refresh."
	FatalBanner   = "Failed to load piano sounds. Please refresh the page."
)

// EventKind names an SSE event.
type EventKind string

const (
	EventState     EventKind = "state"
	EventStatus    EventKind = "status"
	EventProgress  EventKind = "progress"
	EventHighlight EventKind = "highlight"
	EventClear     EventKind = "clear"
	EventControls  EventKind = "controls"
	EventAnalysis  EventKind = "analysis"
)

// Event is one UI update pushed to browsers.
type Event struct {
	Kind     EventKind          `json:"kind"`
	Key      string             `json:"key,omitempty"`
	Message  string             `json:"message,omitempty"`
	Banner   string             `json:"banner,omitempty"`
	Done     int                `json:"done,omitempty"`
	Total    int                `json:"total,omitempty"`
	Rhythm   string             `json:"rhythm,omitempty"`
	Label    string             `json:"label,omitempty"`
	Analysis *playback.Analysis `json:"analysis,omitempty"`
	State    *State             `json:"state,omitempty"`
}

// State is the full page state sent to a browser when it connects.
type State struct {
	Status      string   `json:"status"`
	Banner      string   `json:"banner,omitempty"`
	Loaded      int      `json:"loaded"`
	Total       int      `json:"total"`
	Playing     string   `json:"playing,omitempty"`
	Highlighted []string `json:"highlighted"`
}

type litKey struct {
	timer *time.Timer
}

// Hub is the status sink, highlighter and rhythm control panel of the
// service. It is safe for concurrent use.
type Hub struct {
	events       *stream.Broadcaster[Event]
	highlightFor time.Duration

	mu      sync.Mutex
	status  string
	banner  string
	loaded  int
	total   int
	playing string
	lit     map[string]*litKey
	closed  bool
}

// NewHub creates a hub. A zero highlightFor uses HighlightDuration.
func NewHub(highlightFor time.Duration) *Hub {
	if highlightFor <= 0 {
		highlightFor = HighlightDuration
	}
	return &Hub{
		events:       stream.NewBroadcaster[Event](64),
		highlightFor: highlightFor,
		lit:          make(map[string]*litKey),
	}
}

// Events returns the broadcaster browsers subscribe to.
func (h *Hub) Events() *stream.Broadcaster[Event] {
	return h.events
}

// Snapshot returns the current page state.
func (h *Hub) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]string, 0, len(h.lit))
	for k := range h.lit {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return State{
		Status:      h.status,
		Banner:      h.banner,
		Loaded:      h.loaded,
		Total:       h.total,
		Playing:     h.playing,
		Highlighted: keys,
	}
}

// SetStatus replaces the status line. Ignored once a fatal error is shown.
func (h *Hub) SetStatus(msg string) {
	h.mu.Lock()
	if h.banner != "" {
		h.mu.Unlock()
		return
	}
	h.status = msg
	h.mu.Unlock()
	h.events.Publish(Event{Kind: EventStatus, Message: msg})
}

// Fatal shows the persistent error banner and the refresh status. The page
// stays in this state until the service is restarted.
func (h *Hub) Fatal() {
	h.mu.Lock()
	h.status = StatusFailed
	h.banner = FatalBanner
	h.mu.Unlock()
	h.events.Publish(Event{Kind: EventStatus, Message: StatusFailed, Banner: FatalBanner})
}

// Progress reports sample loading. It matches samples.ProgressFunc.
func (h *Hub) Progress(done, total int) {
	h.mu.Lock()
	h.loaded, h.total = done, total
	h.mu.Unlock()
	h.events.Publish(Event{Kind: EventProgress, Done: done, Total: total})
}

// Highlight lights key for the highlight duration. A retrigger restarts
// the timer.
func (h *Hub) Highlight(key string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if prev, ok := h.lit[key]; ok {
		prev.timer.Stop()
	}
	entry := &litKey{}
	entry.timer = time.AfterFunc(h.highlightFor, func() { h.clear(key, entry) })
	h.lit[key] = entry
	h.mu.Unlock()
	h.events.Publish(Event{Kind: EventHighlight, Key: key})
}

func (h *Hub) clear(key string, entry *litKey) {
	h.mu.Lock()
	if h.lit[key] != entry {
		// superseded by a retrigger
		h.mu.Unlock()
		return
	}
	delete(h.lit, key)
	h.mu.Unlock()
	h.events.Publish(Event{Kind: EventClear, Key: key})
}

// Disable marks a rhythm control as playing.
func (h *Hub) Disable(name string) {
	h.mu.Lock()
	h.playing = name
	h.mu.Unlock()
	h.events.Publish(Event{Kind: EventControls, Rhythm: name, Label: PlayingLabel})
}

// EnableAll restores every rhythm control and its label.
func (h *Hub) EnableAll() {
	h.mu.Lock()
	h.playing = ""
	h.mu.Unlock()
	h.events.Publish(Event{Kind: EventControls})
}

// Analysis forwards a frequency estimate to the page readout.
func (h *Hub) Analysis(a playback.Analysis) {
	h.events.Publish(Event{Kind: EventAnalysis, Key: a.Key, Analysis: &a})
}

// Close stops pending highlight timers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for k, entry := range h.lit {
		entry.timer.Stop()
		delete(h.lit, k)
	}
}
