package rhythm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type step struct {
	key string
	at  time.Time
}

type recordingPlayer struct {
	mu      sync.Mutex
	steps   []step
	started chan struct{}
	once    sync.Once
}

func newRecordingPlayer() *recordingPlayer {
	return &recordingPlayer{started: make(chan struct{})}
}

func (p *recordingPlayer) Play(key string) {
	p.mu.Lock()
	p.steps = append(p.steps, step{key: key, at: time.Now()})
	p.mu.Unlock()
	p.once.Do(func() { close(p.started) })
}

func (p *recordingPlayer) recorded() []step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]step(nil), p.steps...)
}

type recordingControls struct {
	mu       sync.Mutex
	disabled []string
	enabled  int
}

func (c *recordingControls) Disable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = append(c.disabled, name)
}

func (c *recordingControls) EnableAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled++
}

func TestPlayRhythmTiming(t *testing.T) {
	p := newRecordingPlayer()
	s := NewSequencer(p, nil)
	tempo := 20 * time.Millisecond
	spec := Spec{Name: "t", Keys: []string{"A", "S", "D"}, Pattern: []float64{1, 2, 1}, Tempo: tempo}

	start := time.Now()
	if err := s.PlayRhythm(context.Background(), spec); err != nil {
		t.Fatalf("PlayRhythm: %v", err)
	}
	elapsed := time.Since(start)

	steps := p.recorded()
	if len(steps) != 3 {
		t.Fatalf("played %d steps, want 3", len(steps))
	}
	for i, want := range []string{"A", "S", "D"} {
		if steps[i].key != want {
			t.Errorf("step %d = %q, want %q", i, steps[i].key, want)
		}
	}
	if gap := steps[1].at.Sub(steps[0].at); gap < tempo {
		t.Errorf("step0->step1 gap %v, want >= %v", gap, tempo)
	}
	if gap := steps[2].at.Sub(steps[1].at); gap < 2*tempo {
		t.Errorf("step1->step2 gap %v, want >= %v", gap, 2*tempo)
	}
	if elapsed < spec.Duration() {
		t.Errorf("PlayRhythm returned after %v, want >= %v", elapsed, spec.Duration())
	}
}

func TestPlayRhythmRejectsOverlap(t *testing.T) {
	p := newRecordingPlayer()
	s := NewSequencer(p, nil)
	tempo := 30 * time.Millisecond
	first := Spec{Name: "first", Keys: []string{"A", "S", "D"}, Tempo: tempo}
	second := Spec{Name: "second", Keys: []string{"J", "K"}, Tempo: tempo}

	done := make(chan error, 1)
	go func() { done <- s.PlayRhythm(context.Background(), first) }()

	select {
	case <-p.started:
	case <-time.After(time.Second):
		t.Fatal("first rhythm did not start")
	}
	if !s.Busy() {
		t.Error("Busy = false while a rhythm plays")
	}
	if sess, ok := s.Current(); !ok || sess.Spec.Name != "first" {
		t.Errorf("Current = %+v, %v; want session for first", sess, ok)
	}

	start := time.Now()
	if err := s.PlayRhythm(context.Background(), second); !errors.Is(err, ErrAlreadyPlaying) {
		t.Errorf("second PlayRhythm error = %v, want ErrAlreadyPlaying", err)
	}
	if time.Since(start) > tempo {
		t.Error("rejected PlayRhythm blocked")
	}

	if err := <-done; err != nil {
		t.Fatalf("first PlayRhythm: %v", err)
	}

	steps := p.recorded()
	if len(steps) != 3 {
		t.Fatalf("played %d steps, want 3 (no interleaving)", len(steps))
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].at.Before(steps[i-1].at) {
			t.Errorf("step %d timestamp went backwards", i)
		}
		if gap := steps[i].at.Sub(steps[i-1].at); gap < tempo {
			t.Errorf("step %d gap %v, want >= %v", i, gap, tempo)
		}
	}
	for _, st := range steps {
		if st.key == "J" || st.key == "K" {
			t.Errorf("second rhythm step %q leaked into the first", st.key)
		}
	}
}

func TestPlayRhythmReleasesAfterCompletion(t *testing.T) {
	p := newRecordingPlayer()
	c := &recordingControls{}
	s := NewSequencer(p, c)
	spec := Spec{Name: "short", Keys: []string{"A"}, Tempo: time.Millisecond}

	for i := 0; i < 3; i++ {
		if err := s.PlayRhythm(context.Background(), spec); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if s.Busy() {
		t.Error("Busy = true after completion")
	}
	if _, ok := s.Current(); ok {
		t.Error("session still open after completion")
	}
	if len(c.disabled) != 3 || c.disabled[0] != "short" {
		t.Errorf("disabled = %v, want 3x short", c.disabled)
	}
	if c.enabled != 3 {
		t.Errorf("EnableAll called %d times, want 3", c.enabled)
	}
}

func TestPlayRhythmCancelCleansUp(t *testing.T) {
	p := newRecordingPlayer()
	c := &recordingControls{}
	s := NewSequencer(p, c)
	spec := Spec{Name: "long", Keys: []string{"A", "S", "D"}, Tempo: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.PlayRhythm(ctx, spec) }()

	<-p.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("PlayRhythm did not stop after cancel")
	}
	if s.Busy() {
		t.Error("Busy = true after cancel")
	}
	if c.enabled != 1 {
		t.Errorf("EnableAll called %d times, want 1", c.enabled)
	}
	if n := len(p.recorded()); n != 1 {
		t.Errorf("played %d steps, want 1", n)
	}
}

type panickingPlayer struct{}

func (panickingPlayer) Play(string) { panic("boom") }

func TestPlayRhythmPanicCleansUp(t *testing.T) {
	c := &recordingControls{}
	s := NewSequencer(panickingPlayer{}, c)
	func() {
		defer func() { recover() }()
		s.PlayRhythm(context.Background(), Spec{Name: "p", Keys: []string{"A"}, Tempo: time.Millisecond})
	}()
	if s.Busy() {
		t.Error("Busy = true after a panicking step")
	}
	if c.enabled != 1 {
		t.Errorf("EnableAll called %d times, want 1", c.enabled)
	}
}

func TestPlayRhythmInvalidSpec(t *testing.T) {
	p := newRecordingPlayer()
	c := &recordingControls{}
	s := NewSequencer(p, c)

	err := s.PlayRhythm(context.Background(), Spec{Name: "empty", Tempo: time.Second})
	if !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("error = %v, want ErrInvalidSpec", err)
	}
	if len(p.recorded()) != 0 || len(c.disabled) != 0 {
		t.Error("invalid spec should not play or touch controls")
	}
	if s.Busy() {
		t.Error("Busy = true after invalid spec")
	}
}
