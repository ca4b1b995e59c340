package rhythm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrAlreadyPlaying = errors.New("a rhythm is already playing")

// Player triggers a single key.
type Player interface {
	Play(key string)
}

// Controls are the rhythm-triggering buttons of the UI.
type Controls interface {
	// Disable marks the named rhythm's control as playing.
	Disable(name string)
	// EnableAll restores every rhythm control.
	EnableAll()
}

// Session is one in-flight rhythm run.
type Session struct {
	ID      uuid.UUID `json:"id"`
	Spec    Spec      `json:"spec"`
	Started time.Time `json:"started"`
}

// Sequencer plays at most one rhythm at a time.
type Sequencer struct {
	player   Player
	controls Controls
	sleep    func(ctx context.Context, d time.Duration) error

	busy    atomic.Bool
	mu      sync.RWMutex
	session *Session
}

// NewSequencer creates a sequencer. controls may be nil.
func NewSequencer(player Player, controls Controls) *Sequencer {
	return &Sequencer{
		player:   player,
		controls: controls,
		sleep:    sleepCtx,
	}
}

// Busy reports whether a rhythm is playing.
func (s *Sequencer) Busy() bool {
	return s.busy.Load()
}

// Current returns the session in flight, if any.
func (s *Sequencer) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// PlayRhythm plays spec step by step and returns when the last step's wait
// has elapsed. A call made while another rhythm is playing fails at once
// with ErrAlreadyPlaying. Cancelling ctx stops the sequence between steps.
func (s *Sequencer) PlayRhythm(ctx context.Context, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrAlreadyPlaying
	}

	sess := &Session{ID: uuid.New(), Spec: spec, Started: time.Now()}
	s.setSession(sess)
	defer func() {
		s.setSession(nil)
		s.busy.Store(false)
		if s.controls != nil {
			s.controls.EnableAll()
		}
	}()

	if s.controls != nil {
		s.controls.Disable(spec.Name)
	}
	log.Printf("Rhythm %q started: %d steps, tempo %v (session %s)", spec.Name, len(spec.Keys), spec.Tempo, sess.ID)

	for i, key := range spec.Keys {
		s.player.Play(key)
		if err := s.sleep(ctx, spec.Delay(i)); err != nil {
			log.Printf("Rhythm %q stopped at step %d: %v", spec.Name, i, err)
			return fmt.Errorf("rhythm %q step %d: %w", spec.Name, i, err)
		}
	}

	log.Printf("Rhythm %q finished in %v", spec.Name, time.Since(sess.Started).Round(time.Millisecond))
	return nil
}

func (s *Sequencer) setSession(sess *Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
