// Package piano wires the catalog, sample cache, playback engine, mixer and
// rhythm sequencer into one session.
package piano

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/webpiano/internal/audio"
	"github.com/satindergrewal/webpiano/internal/catalog"
	"github.com/satindergrewal/webpiano/internal/notes"
	"github.com/satindergrewal/webpiano/internal/playback"
	"github.com/satindergrewal/webpiano/internal/rhythm"
	"github.com/satindergrewal/webpiano/internal/samples"
	"github.com/satindergrewal/webpiano/internal/ui"
	"github.com/satindergrewal/webpiano/internal/web"
)

// Config gathers the settings of every component of a session.
type Config struct {
	Title        string
	Catalog      catalog.Config
	Samples      samples.Config
	Playback     playback.Config
	Alphabet     []string
	Layout       catalog.KeyMapOptions
	Gain         float64
	MaxVoices    int
	DefaultTempo time.Duration
	RhythmsFile  string
}

// Piano is one running instrument. Create it with New, call Init once, and
// Teardown on shutdown.
type Piano struct {
	cfg       Config
	hub       *ui.Hub
	resolver  *catalog.Resolver
	cache     *samples.Cache
	mixer     *audio.Mixer
	engine    *playback.Engine
	sequencer *rhythm.Sequencer
	presets   *rhythm.Presets

	mu     sync.RWMutex
	cat    catalog.Catalog
	keys   catalog.KeyMap
	report samples.LoadReport
	ready  bool
	err    error
}

// New builds a session. Nothing is fetched until Init.
func New(cfg Config, hub *ui.Hub, decode audio.DecodeFunc) (*Piano, error) {
	if len(cfg.Alphabet) == 0 {
		cfg.Alphabet = notes.DefaultAlphabet
	}
	if cfg.DefaultTempo <= 0 {
		cfg.DefaultTempo = 200 * time.Millisecond
	}
	// the low key is an extra key past the main layout
	if low := notes.NormalizeKey(cfg.Layout.LowKey); low != "" {
		alphabet := notes.NormalizeKeys(cfg.Alphabet)
		found := false
		for _, k := range alphabet {
			if k == low {
				found = true
				break
			}
		}
		if !found {
			alphabet = append(alphabet, low)
		}
		cfg.Alphabet = alphabet
	}

	presets, err := rhythm.LoadPresets(cfg.RhythmsFile, cfg.DefaultTempo)
	if err != nil {
		return nil, fmt.Errorf("load rhythms: %w", err)
	}

	p := &Piano{
		cfg:      cfg,
		hub:      hub,
		resolver: catalog.NewResolver(cfg.Catalog),
		cache:    samples.NewCache(cfg.Samples, decode),
		mixer:    audio.NewMixer(cfg.Gain, cfg.MaxVoices),
		presets:  presets,
	}
	p.cache.SetProgressFunc(hub.Progress)
	p.engine = playback.NewEngine(cfg.Playback, p.cache, p.mixer, hub)
	p.engine.SetAnalysisFunc(hub.Analysis)
	p.sequencer = rhythm.NewSequencer(p.engine, hub)
	return p, nil
}

// Mixer returns the output stage; its Run drives the audio clock.
func (p *Piano) Mixer() *audio.Mixer {
	return p.mixer
}

// Init resolves the catalog, builds the key map and loads every sample.
// A catalog failure is fatal: the page shows the error banner and Init
// returns the error. Individual sample failures only leave keys silent.
func (p *Piano) Init(ctx context.Context) error {
	p.hub.SetStatus(ui.StatusLoading)

	cat, err := p.resolver.Resolve(ctx)
	if err != nil {
		log.Printf("Sound catalog unavailable: %v", err)
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		p.hub.Fatal()
		return fmt.Errorf("resolve catalog: %w", err)
	}

	km := catalog.BuildKeyMap(cat, p.cfg.Alphabet, p.cfg.Catalog.Octave, p.cfg.Layout)
	log.Printf("Catalog: %d notes, %d keys bound", len(cat), km.Len())
	for _, b := range km.Bindings() {
		log.Printf("  %s -> %s", b.Key, b.Note)
	}

	p.mu.Lock()
	p.cat = cat
	p.keys = km
	p.mu.Unlock()

	report := p.cache.LoadAll(ctx, km)

	p.mu.Lock()
	p.report = report
	p.ready = true
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	p.hub.SetStatus(ui.StatusReady)
	return nil
}

// Teardown stops pending analyses and highlight timers.
func (p *Piano) Teardown() {
	p.engine.Close()
	p.hub.Close()
	log.Printf("Piano session closed")
}

// Play triggers one key.
func (p *Piano) Play(key string) {
	p.engine.Play(key)
}

// PlayRhythm plays spec and blocks until it ends or ctx is cancelled.
func (p *Piano) PlayRhythm(ctx context.Context, spec rhythm.Spec) error {
	return p.sequencer.PlayRhythm(ctx, spec)
}

// PlayPreset plays a named preset.
func (p *Piano) PlayPreset(ctx context.Context, name string) error {
	preset, ok := p.presets.Get(name)
	if !ok {
		return fmt.Errorf("%w: unknown rhythm %q", rhythm.ErrInvalidSpec, name)
	}
	return p.sequencer.PlayRhythm(ctx, preset.Spec)
}

// ParseRhythm builds an ad-hoc rhythm with the session's default tempo.
func (p *Piano) ParseRhythm(name, keys, tempo, pattern string) (rhythm.Spec, error) {
	return rhythm.ParseSpec(name, keys, tempo, pattern, p.cfg.DefaultTempo)
}

// Presets returns the rhythm presets.
func (p *Piano) Presets() []rhythm.Preset {
	return p.presets.List()
}

// KeyMap returns the current key bindings.
func (p *Piano) KeyMap() catalog.KeyMap {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keys
}

// WriteMIDI exports a preset as a Standard MIDI File.
func (p *Piano) WriteMIDI(w io.Writer, name string) error {
	preset, ok := p.presets.Get(name)
	if !ok {
		return fmt.Errorf("%w: unknown rhythm %q", rhythm.ErrInvalidSpec, name)
	}
	return rhythm.WriteMIDI(w, preset.Spec, p.KeyMap())
}

// Status is a point-in-time view of the session.
type Status struct {
	Ready   bool            `json:"ready"`
	Error   string          `json:"error,omitempty"`
	Catalog int             `json:"catalog"`
	Bound   int             `json:"bound"`
	Loaded  int             `json:"loaded"`
	Failed  []string        `json:"failed,omitempty"`
	Voices  int             `json:"voices"`
	Rhythm  *rhythm.Session `json:"rhythm,omitempty"`
	UI      ui.State        `json:"ui"`
}

// Status reports the session state.
func (p *Piano) Status() Status {
	p.mu.RLock()
	s := Status{
		Ready:   p.ready,
		Catalog: len(p.cat),
		Bound:   p.keys.Len(),
		Loaded:  p.cache.Len(),
	}
	if p.err != nil {
		s.Error = p.err.Error()
	}
	for _, f := range p.report.Failed {
		s.Failed = append(s.Failed, f.Key)
	}
	p.mu.RUnlock()

	s.Voices = p.mixer.ActiveVoices()
	if sess, ok := p.sequencer.Current(); ok {
		s.Rhythm = &sess
	}
	s.UI = p.hub.Snapshot()
	return s
}

// Page builds the data for the piano page.
func (p *Piano) Page() web.Page {
	page := web.Page{Title: p.cfg.Title, Analyze: p.cfg.Playback.Analyze}
	for _, b := range p.KeyMap().Bindings() {
		k := web.Key{Key: b.Key, Note: b.Note}
		if n, err := notes.Parse(b.Note); err == nil {
			k.Black = n.Class.Accidental()
		}
		page.Keys = append(page.Keys, k)
	}
	for _, r := range p.presets.List() {
		page.Rhythms = append(page.Rhythms, web.Rhythm{
			Name:    r.Name,
			Label:   r.Label,
			Keys:    r.Keys,
			Tempo:   int(r.Tempo / time.Millisecond),
			Pattern: r.Pattern,
		})
	}
	return page
}
