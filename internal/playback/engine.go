package playback

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/satindergrewal/webpiano/internal/audio"
	"github.com/satindergrewal/webpiano/internal/notes"
)

// SampleSource looks up the decoded sample bound to a key.
type SampleSource interface {
	Get(key string) (*audio.Sample, bool)
}

// VoiceSink is the output end of the signal path.
type VoiceSink interface {
	Start(v *audio.Voice)
}

// Highlighter shows the transient "playing" indicator of a key.
type Highlighter interface {
	Highlight(key string)
}

// HighlightPolicy decides when a key lights up.
type HighlightPolicy string

const (
	// HighlightOnTrigger lights a key only when a sample actually started.
	HighlightOnTrigger HighlightPolicy = "on-trigger"
	// HighlightAlways lights a key on every press, sound or not.
	HighlightAlways HighlightPolicy = "always"
)

// Analysis is the diagnostic result of one frequency estimate.
type Analysis struct {
	Key      string  `json:"key"`
	Note     string  `json:"note"`
	Expected float64 `json:"expected"`
	Measured float64 `json:"measured"`
	Cents    float64 `json:"cents"`
	Valid    bool    `json:"valid"`
}

// AnalysisFunc receives every finished estimate.
type AnalysisFunc func(Analysis)

// Config holds engine parameters.
type Config struct {
	Analyze       bool
	FFTSize       int
	AnalysisDelay time.Duration // time between trigger and spectrum read
	MaxHz         float64       // upper bound of the fundamental search
	Highlight     HighlightPolicy
}

// Engine triggers note samples into the mixer.
type Engine struct {
	cfg         Config
	samples     SampleSource
	sink        VoiceSink
	highlighter Highlighter
	onAnalysis  AnalysisFunc
	closed      atomic.Bool
}

// NewEngine creates a playback engine.
func NewEngine(cfg Config, samples SampleSource, sink VoiceSink, highlighter Highlighter) *Engine {
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = audio.DefaultFFTSize
	}
	if cfg.AnalysisDelay <= 0 {
		cfg.AnalysisDelay = audio.FrameDuration
	}
	if cfg.MaxHz <= 0 {
		cfg.MaxHz = 2000
	}
	if cfg.Highlight == "" {
		cfg.Highlight = HighlightOnTrigger
	}
	return &Engine{
		cfg:         cfg,
		samples:     samples,
		sink:        sink,
		highlighter: highlighter,
	}
}

// SetAnalysisFunc sets the receiver of frequency estimates. Must be called
// before the first Play.
func (e *Engine) SetAnalysisFunc(fn AnalysisFunc) {
	e.onAnalysis = fn
}

// Play starts the sample bound to key. Keys without a loaded sample are a
// logged no-op.
func (e *Engine) Play(key string) {
	key = notes.NormalizeKey(key)
	s, ok := e.samples.Get(key)
	if !ok {
		log.Printf("No sample loaded for key %q", key)
		if e.cfg.Highlight == HighlightAlways {
			e.highlight(key)
		}
		return
	}

	var tap *audio.Analyser
	if e.cfg.Analyze {
		tap = audio.NewAnalyser(e.cfg.FFTSize)
	}
	e.sink.Start(audio.NewVoice(key, s, tap))
	e.highlight(key)

	if tap != nil {
		time.AfterFunc(e.cfg.AnalysisDelay, func() { e.analyse(key, s.Note, tap) })
	}
}

// Close stops delivering pending analyses.
func (e *Engine) Close() {
	e.closed.Store(true)
}

func (e *Engine) highlight(key string) {
	if e.highlighter != nil {
		e.highlighter.Highlight(key)
	}
}

func (e *Engine) analyse(key, note string, tap *audio.Analyser) {
	if e.closed.Load() {
		return
	}
	measured := audio.PeakFrequency(tap.FrequencyData(), audio.SampleRate, tap.Size(), e.cfg.MaxHz)
	expected, _ := notes.FrequencyOf(note)

	a := Analysis{
		Key:      key,
		Note:     note,
		Expected: expected,
		Measured: measured,
		Valid:    notes.ValidFrequency(measured),
	}
	if a.Valid {
		a.Cents = notes.Cents(measured, expected)
		log.Printf("Note %s (key %s): measured %.2f Hz, expected %.2f Hz (%+.0f cents)", note, key, measured, expected, a.Cents)
	} else {
		log.Printf("Note %s (key %s): no fundamental in range (peak %.2f Hz)", note, key, measured)
	}

	if e.onAnalysis != nil {
		e.onAnalysis(a)
	}
}
