package catalog

import (
	"github.com/satindergrewal/webpiano/internal/notes"
)

// Binding pairs a key symbol with a note name.
type Binding struct {
	Key  string `json:"key"`
	Note string `json:"note"`
}

// KeyMap is an ordered, immutable key -> note name table.
type KeyMap struct {
	keys  []string
	notes map[string]string
}

// NewKeyMap builds a KeyMap from explicit bindings. Later bindings for an
// already bound key are ignored.
func NewKeyMap(bindings ...Binding) KeyMap {
	var m KeyMap
	for _, b := range bindings {
		m.bind(notes.NormalizeKey(b.Key), b.Note)
	}
	return m
}

func (m *KeyMap) bind(key, note string) {
	if m.notes == nil {
		m.notes = make(map[string]string)
	}
	if _, ok := m.notes[key]; ok || key == "" {
		return
	}
	m.keys = append(m.keys, key)
	m.notes[key] = note
}

// Note returns the note bound to key, if any.
func (m KeyMap) Note(key string) (string, bool) {
	n, ok := m.notes[key]
	return n, ok
}

// Keys returns the bound keys in binding order.
func (m KeyMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of bound keys.
func (m KeyMap) Len() int {
	return len(m.keys)
}

// Bindings returns the table in binding order.
func (m KeyMap) Bindings() []Binding {
	out := make([]Binding, len(m.keys))
	for i, k := range m.keys {
		out[i] = Binding{Key: k, Note: m.notes[k]}
	}
	return out
}

// KeyMapOptions holds the layout policy knobs.
type KeyMapOptions struct {
	// HighKey always plays the upper tonic, C of octave+1.
	HighKey string
	// LowKey, when set, plays A of octave-1.
	LowKey string
}

// DefaultKeyMapOptions binds the last key of the default alphabet to the
// upper C and leaves the low key off.
func DefaultKeyMapOptions() KeyMapOptions {
	return KeyMapOptions{HighKey: notes.DefaultAlphabet[len(notes.DefaultAlphabet)-1]}
}

// BuildKeyMap assigns the catalog's notes in octave and octave+1 to the
// alphabet in order. The high key skips the sequence and always gets the
// upper C; the low key gets A below the octave. Keys left over once the
// catalog runs out stay unbound.
func BuildKeyMap(cat Catalog, alphabet []string, octave int, opts KeyMapOptions) KeyMap {
	var m KeyMap
	if len(cat) == 0 {
		return m
	}

	alphabet = notes.NormalizeKeys(alphabet)
	high := notes.NormalizeKey(opts.HighKey)
	low := notes.NormalizeKey(opts.LowKey)

	highNote := notes.Note{Class: notes.C, Octave: octave + 1}
	lowNote := notes.Note{Class: notes.A, Octave: octave - 1}
	highBound := high != "" && contains(alphabet, high) && highNote.Octave <= notes.MaxOctave

	sorted := append(Catalog(nil), cat...)
	sorted.Sort()

	pool := make([]Entry, 0, len(sorted))
	for _, e := range sorted {
		if e.Note.Octave != octave && e.Note.Octave != octave+1 {
			continue
		}
		if highBound && e.Note == highNote {
			continue
		}
		pool = append(pool, e)
	}

	next := 0
	for _, k := range alphabet {
		if _, ok := m.notes[k]; ok {
			continue
		}
		switch {
		case k == high && highBound:
			m.bind(k, highNote.Name())
		case k == low && low != "" && lowNote.Octave >= notes.MinOctave:
			m.bind(k, lowNote.Name())
		case next < len(pool):
			m.bind(k, pool[next].Name)
			next++
		}
	}
	return m
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
