package notes

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// PitchClass is a chromatic index, C = 0 through B = 11.
type PitchClass int

const (
	C PitchClass = iota
	Db
	D
	Eb
	E
	F
	Gb
	G
	Ab
	A
	Bb
	B
)

// Accidental reports whether the class is a black key.
func (c PitchClass) Accidental() bool {
	switch c {
	case Db, Eb, Gb, Ab, Bb:
		return true
	}
	return false
}

// Octave bounds of the frequency table. B9 is the highest note that still
// sits inside the audible analysis range.
const (
	MinOctave = 0
	MaxOctave = 9
)

// Analysis range for measured frequencies, in Hz.
const (
	MinAnalysisHz = 20.0
	MaxAnalysisHz = 20000.0
)

var ErrInvalidNote = errors.New("invalid note name")

var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// letterClass gives the natural pitch class of each note letter.
var letterClass = map[byte]PitchClass{'C': C, 'D': D, 'E': E, 'F': F, 'G': G, 'A': A, 'B': B}

// Spelling selects how accidentals are written when a note is rendered.
type Spelling int

const (
	Flat Spelling = iota
	Sharp
)

// ParseSpelling maps "sharp" to Sharp; anything else is Flat.
func ParseSpelling(s string) Spelling {
	if s == "sharp" {
		return Sharp
	}
	return Flat
}

func (s Spelling) String() string {
	if s == Sharp {
		return "sharp"
	}
	return "flat"
}

// Note is a pitch class in a given octave.
type Note struct {
	Class  PitchClass
	Octave int
}

// Name returns the canonical flat spelling, e.g. "Db4".
func (n Note) Name() string {
	return n.Spell(Flat)
}

// Spell renders the note with the given accidental style.
func (n Note) Spell(s Spelling) string {
	names := flatNames
	if s == Sharp {
		names = sharpNames
	}
	return names[n.Class] + strconv.Itoa(n.Octave)
}

func (n Note) String() string { return n.Name() }

// MIDI returns the MIDI note number (C4 = 60).
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + int(n.Class)
}

// Transpose shifts the note by a number of semitones.
func (n Note) Transpose(semitones int) Note {
	return fromMIDI(n.MIDI() + semitones)
}

// Frequency returns the equal-tempered frequency of the note in Hz.
func (n Note) Frequency() float64 {
	return 440 * math.Pow(2, float64(n.MIDI()-69)/12)
}

func fromMIDI(m int) Note {
	oct := m/12 - 1
	pc := m % 12
	if pc < 0 {
		pc += 12
		oct--
	}
	return Note{Class: PitchClass(pc), Octave: oct}
}

// Parse reads a note name: a letter A-G, an optional "b" or "#", and an
// octave number. Enharmonics crossing an octave boundary (Cb4, B#3) are
// normalized, so Parse("B#3") is C4.
func Parse(name string) (Note, error) {
	if len(name) < 2 {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	pc, ok := letterClass[name[0]]
	if !ok {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	rest := name[1:]
	shift := 0
	switch rest[0] {
	case 'b':
		shift = -1
		rest = rest[1:]
	case '#':
		shift = 1
		rest = rest[1:]
	}
	if rest == "" {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, name)
		}
	}
	oct, err := strconv.Atoi(rest)
	if err != nil {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	n := Note{Class: pc, Octave: oct}.Transpose(shift)
	if n.Octave < MinOctave || n.Octave > MaxOctave {
		return Note{}, fmt.Errorf("%w: %q out of octave range", ErrInvalidNote, name)
	}
	return n, nil
}

// frequencies is the static A440 table keyed by canonical flat name,
// rounded to hundredths of a hertz.
var frequencies = buildFrequencies()

func buildFrequencies() map[string]float64 {
	table := make(map[string]float64, 12*(MaxOctave-MinOctave+1))
	for oct := MinOctave; oct <= MaxOctave; oct++ {
		for pc := C; pc <= B; pc++ {
			n := Note{Class: pc, Octave: oct}
			table[n.Name()] = math.Round(n.Frequency()*100) / 100
		}
	}
	return table
}

// FrequencyOf resolves a note name (either spelling) through the static table.
func FrequencyOf(name string) (float64, bool) {
	n, err := Parse(name)
	if err != nil {
		return 0, false
	}
	f, ok := frequencies[n.Name()]
	return f, ok
}

// ValidFrequency reports whether f lies in the analysis range.
func ValidFrequency(f float64) bool {
	return f >= MinAnalysisHz && f <= MaxAnalysisHz
}

// Cents returns how far measured is from expected, in cents.
func Cents(measured, expected float64) float64 {
	if measured <= 0 || expected <= 0 {
		return 0
	}
	return 1200 * math.Log2(measured/expected)
}
