package rhythm

import (
	"fmt"
	"io"
	"math"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/satindergrewal/webpiano/internal/notes"
)

// ticksPerStep is the MIDI resolution; one tempo unit is one quarter note.
const ticksPerStep = 960

// NoteLookup resolves a key to its bound note name.
type NoteLookup interface {
	Note(key string) (string, bool)
}

// WriteMIDI renders spec as a single-track Standard MIDI File. Each tempo
// unit becomes a quarter note; unbound keys become rests.
func WriteMIDI(w io.Writer, spec Spec, keys NoteLookup) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerStep)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(float64(time.Minute)/float64(spec.Tempo)))

	var rest uint32
	for i, key := range spec.Keys {
		ticks := uint32(math.Round(spec.Multiplier(i) * ticksPerStep))
		name, ok := keys.Note(key)
		if !ok {
			rest += ticks
			continue
		}
		n, err := notes.Parse(name)
		if err != nil {
			rest += ticks
			continue
		}
		pitch := uint8(n.MIDI())
		tr.Add(rest, midi.NoteOn(0, pitch, 100))
		tr.Add(ticks, midi.NoteOff(0, pitch))
		rest = 0
	}
	tr.Close(rest)

	if err := s.Add(tr); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}
