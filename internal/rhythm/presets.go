package rhythm

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresets []byte

// Preset is a named rhythm offered by the UI.
type Preset struct {
	Spec
	Label string `json:"label"`
}

type presetFile struct {
	Rhythms []struct {
		Name    string    `yaml:"name"`
		Label   string    `yaml:"label"`
		Keys    string    `yaml:"keys"`
		Tempo   int       `yaml:"tempo"` // milliseconds
		Pattern []float64 `yaml:"pattern"`
	} `yaml:"rhythms"`
}

// Presets is an ordered set of rhythm presets.
type Presets struct {
	list   []Preset
	byName map[string]int
}

// LoadPresets reads presets from a YAML file, or the built-in set when path
// is empty. Presets without a tempo use defaultTempo.
func LoadPresets(path string, defaultTempo time.Duration) (*Presets, error) {
	data := defaultPresets
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read presets: %w", err)
		}
	}
	return ParsePresets(data, defaultTempo)
}

// ParsePresets decodes and validates a YAML preset document.
func ParsePresets(data []byte, defaultTempo time.Duration) (*Presets, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	p := &Presets{byName: make(map[string]int)}
	for i, r := range f.Rhythms {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: preset %d has no name", ErrInvalidSpec, i)
		}
		if _, dup := p.byName[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate preset %q", ErrInvalidSpec, r.Name)
		}
		tempo := ""
		if r.Tempo != 0 {
			tempo = strconv.Itoa(r.Tempo)
		}
		spec, err := ParseSpec(r.Name, r.Keys, tempo, "", defaultTempo)
		if err != nil {
			return nil, err
		}
		spec.Pattern = r.Pattern
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		label := r.Label
		if label == "" {
			label = r.Name
		}
		p.byName[r.Name] = len(p.list)
		p.list = append(p.list, Preset{Spec: spec, Label: label})
	}
	return p, nil
}

// Get returns the preset with the given name.
func (p *Presets) Get(name string) (Preset, bool) {
	i, ok := p.byName[name]
	if !ok {
		return Preset{}, false
	}
	return p.list[i], true
}

// List returns the presets in file order.
func (p *Presets) List() []Preset {
	return append([]Preset(nil), p.list...)
}
