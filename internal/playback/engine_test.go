package playback

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/satindergrewal/webpiano/internal/audio"
)

type mapSource map[string]*audio.Sample

func (m mapSource) Get(key string) (*audio.Sample, bool) {
	s, ok := m[key]
	return s, ok
}

type recordingSink struct {
	mu     sync.Mutex
	voices []*audio.Voice
}

func (r *recordingSink) Start(v *audio.Voice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voices = append(r.voices, v)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voices)
}

type recordingHighlighter struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingHighlighter) Highlight(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func (r *recordingHighlighter) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func sineSample(note string, freq float64, seconds float64) *audio.Sample {
	frames := int(seconds * audio.SampleRate)
	pcm := make([]int16, frames*audio.Channels)
	for i := 0; i < frames; i++ {
		v := int16(12000 * math.Sin(2*math.Pi*freq*float64(i)/audio.SampleRate))
		pcm[i*2] = v
		pcm[i*2+1] = v
	}
	return &audio.Sample{Note: note, PCM: pcm}
}

func TestPlayStartsVoiceAndHighlights(t *testing.T) {
	sink := &recordingSink{}
	hl := &recordingHighlighter{}
	e := NewEngine(Config{}, mapSource{"A": sineSample("C4", 261.63, 0.1)}, sink, hl)

	e.Play("a")

	if sink.count() != 1 {
		t.Fatalf("voices started = %d, want 1", sink.count())
	}
	if sink.voices[0].Key != "A" {
		t.Errorf("voice key = %q, want A", sink.voices[0].Key)
	}
	if sink.voices[0].Tap() != nil {
		t.Error("analysis disabled, voice should have no tap")
	}
	if got := hl.seen(); len(got) != 1 || got[0] != "A" {
		t.Errorf("highlighted = %v, want [A]", got)
	}
}

func TestPlayUnknownKeyOnTrigger(t *testing.T) {
	sink := &recordingSink{}
	hl := &recordingHighlighter{}
	e := NewEngine(Config{Highlight: HighlightOnTrigger}, mapSource{}, sink, hl)

	e.Play("Q")

	if sink.count() != 0 {
		t.Errorf("voices started = %d, want 0", sink.count())
	}
	if len(hl.seen()) != 0 {
		t.Errorf("highlighted = %v, want none", hl.seen())
	}
}

func TestPlayUnknownKeyHighlightAlways(t *testing.T) {
	sink := &recordingSink{}
	hl := &recordingHighlighter{}
	e := NewEngine(Config{Highlight: HighlightAlways}, mapSource{}, sink, hl)

	e.Play("Q")

	if sink.count() != 0 {
		t.Errorf("voices started = %d, want 0", sink.count())
	}
	if got := hl.seen(); len(got) != 1 || got[0] != "Q" {
		t.Errorf("highlighted = %v, want [Q]", got)
	}
}

func TestPlayNilHighlighter(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(Config{Highlight: HighlightAlways}, mapSource{"A": sineSample("C4", 261.63, 0.01)}, sink, nil)
	e.Play("A")
	e.Play("B")
	if sink.count() != 1 {
		t.Errorf("voices started = %d, want 1", sink.count())
	}
}

func TestPlayEstimatesFrequency(t *testing.T) {
	mixer := audio.NewMixer(1, 8)
	e := NewEngine(Config{
		Analyze:       true,
		FFTSize:       4096,
		AnalysisDelay: 50 * time.Millisecond,
	}, mapSource{"H": sineSample("A4", 440, 0.5)}, mixer, nil)

	results := make(chan Analysis, 1)
	e.SetAnalysisFunc(func(a Analysis) { results <- a })

	start := time.Now()
	e.Play("H")
	if time.Since(start) > 20*time.Millisecond {
		t.Errorf("Play blocked for %v", time.Since(start))
	}
	// render enough frames to fill the analysis window before it is read
	for i := 0; i < 6; i++ {
		mixer.Render()
	}

	select {
	case a := <-results:
		if !a.Valid {
			t.Fatalf("analysis not valid: %+v", a)
		}
		binHz := float64(audio.SampleRate) / 4096
		if math.Abs(a.Measured-440) > binHz {
			t.Errorf("measured %.2f Hz, want 440 +/- %.2f", a.Measured, binHz)
		}
		if a.Expected != 440 || a.Note != "A4" || a.Key != "H" {
			t.Errorf("analysis = %+v", a)
		}
		if math.Abs(a.Cents) > 50 {
			t.Errorf("cents = %.1f, want within a quarter tone", a.Cents)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for analysis")
	}
}

func TestAnalysisOfSilenceIsInvalid(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(Config{Analyze: true, FFTSize: 1024, AnalysisDelay: time.Millisecond},
		mapSource{"A": sineSample("C4", 261.63, 0.1)}, sink, nil)

	results := make(chan Analysis, 1)
	e.SetAnalysisFunc(func(a Analysis) { results <- a })
	e.Play("A") // recording sink never renders, so the tap stays silent

	select {
	case a := <-results:
		if a.Valid {
			t.Errorf("silent tap produced a valid estimate: %+v", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for analysis")
	}
}

func TestCloseSuppressesAnalysis(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(Config{Analyze: true, AnalysisDelay: 20 * time.Millisecond},
		mapSource{"A": sineSample("C4", 261.63, 0.1)}, sink, nil)

	results := make(chan Analysis, 1)
	e.SetAnalysisFunc(func(a Analysis) { results <- a })
	e.Play("A")
	e.Close()

	select {
	case a := <-results:
		t.Errorf("analysis delivered after Close: %+v", a)
	case <-time.After(100 * time.Millisecond):
	}
}
