package rhythm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/satindergrewal/webpiano/internal/notes"
)

var ErrInvalidSpec = errors.New("invalid rhythm spec")

// Spec is a validated rhythm: keys played in order, each followed by a wait
// of Pattern[i] * Tempo. Missing pattern entries count as 1.
type Spec struct {
	Name    string        `json:"name"`
	Keys    []string      `json:"keys"`
	Pattern []float64     `json:"pattern,omitempty"`
	Tempo   time.Duration `json:"tempo"`
}

// ParseSpec builds a spec from the declarative attributes of a rhythm
// control: a comma-separated key list, an optional tempo in milliseconds and
// an optional comma-separated multiplier pattern.
func ParseSpec(name, keys, tempo, pattern string, defaultTempo time.Duration) (Spec, error) {
	spec := Spec{Name: name, Tempo: defaultTempo}

	for _, k := range strings.Split(keys, ",") {
		if k = notes.NormalizeKey(k); k != "" {
			spec.Keys = append(spec.Keys, k)
		}
	}

	if tempo = strings.TrimSpace(tempo); tempo != "" {
		ms, err := strconv.Atoi(tempo)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: tempo %q", ErrInvalidSpec, tempo)
		}
		spec.Tempo = time.Duration(ms) * time.Millisecond
	}

	if pattern = strings.TrimSpace(pattern); pattern != "" {
		for _, p := range strings.Split(pattern, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: pattern entry %q", ErrInvalidSpec, p)
			}
			spec.Pattern = append(spec.Pattern, f)
		}
	}

	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Validate checks that the rhythm can be played.
func (s Spec) Validate() error {
	if len(s.Keys) == 0 {
		return fmt.Errorf("%w: %q has no keys", ErrInvalidSpec, s.Name)
	}
	for i, k := range s.Keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: %q step %d has an empty key", ErrInvalidSpec, s.Name, i)
		}
	}
	if s.Tempo <= 0 {
		return fmt.Errorf("%w: %q tempo %v", ErrInvalidSpec, s.Name, s.Tempo)
	}
	for i, p := range s.Pattern {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: %q pattern[%d] = %v", ErrInvalidSpec, s.Name, i, p)
		}
	}
	return nil
}

// Multiplier returns the duration multiplier of step i.
func (s Spec) Multiplier(i int) float64 {
	if i < len(s.Pattern) {
		return s.Pattern[i]
	}
	return 1
}

// Delay returns how long the sequence waits after step i.
func (s Spec) Delay(i int) time.Duration {
	return time.Duration(s.Multiplier(i) * float64(s.Tempo))
}

// Duration returns the total length of the sequence.
func (s Spec) Duration() time.Duration {
	var d time.Duration
	for i := range s.Keys {
		d += s.Delay(i)
	}
	return d
}
