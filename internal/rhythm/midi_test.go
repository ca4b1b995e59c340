package rhythm

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/satindergrewal/webpiano/internal/catalog"
)

func TestWriteMIDI(t *testing.T) {
	km := catalog.NewKeyMap(
		catalog.Binding{Key: "A", Note: "C4"},
		catalog.Binding{Key: "S", Note: "D4"},
	)
	spec := Spec{Name: "m", Keys: []string{"A", "Q", "S"}, Pattern: []float64{1, 1, 2}, Tempo: 250 * time.Millisecond}

	var buf bytes.Buffer
	if err := WriteMIDI(&buf, spec, km); err != nil {
		t.Fatalf("WriteMIDI: %v", err)
	}
	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte("MThd")) {
		t.Errorf("missing MThd header: % x", data[:min(8, len(data))])
	}
	if !bytes.Contains(data, []byte("MTrk")) {
		t.Error("missing MTrk chunk")
	}
	// note-on for C4 (60) and D4 (62) on channel 0
	if !bytes.Contains(data, []byte{0x90, 60, 100}) {
		t.Error("missing C4 note-on")
	}
	if !bytes.Contains(data, []byte{0x90, 62, 100}) && !bytes.Contains(data, []byte{62, 100}) {
		t.Error("missing D4 note-on")
	}
}

func TestWriteMIDIInvalidSpec(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMIDI(&buf, Spec{Name: "bad"}, catalog.KeyMap{}); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("error = %v, want ErrInvalidSpec", err)
	}
}
