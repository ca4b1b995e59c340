package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/satindergrewal/webpiano/internal/notes"
)

const listing = `<html><body>
<a href="D4.mp3">D4.mp3</a>
<a href="C4.mp3">C4.mp3</a>
<a href="Db4.mp3">Db4.mp3</a>
<a href="readme.txt">readme.txt</a>
<a href="H4.mp3">H4.mp3</a>
<a href="C#4.mp3">C#4.mp3</a>
<a href="E4.wav">E4.wav</a>
<a href="C5.mp3">C5.mp3</a>
</body></html>`

func TestParseListing(t *testing.T) {
	cat := ParseListing([]byte(listing), "mp3")
	got := cat.Names()
	want := []string{"C4", "Db4", "D4", "C5"}
	if len(got) != len(want) {
		t.Fatalf("ParseListing = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseListingKeepsSourceSpelling(t *testing.T) {
	cat := ParseListing([]byte(`<a href="F#4.ogg">x</a><a href="F4.ogg">y</a>`), "ogg")
	if len(cat) != 2 || cat[0].Name != "F4" || cat[1].Name != "F#4" {
		t.Fatalf("ParseListing = %v, want [F4 F#4]", cat.Names())
	}
	if cat[1].Note != (notes.Note{Class: notes.Gb, Octave: 4}) {
		t.Errorf("F#4 parsed as %v", cat[1].Note)
	}
}

func TestStaticCatalog(t *testing.T) {
	cat := StaticCatalog(4, notes.Flat)
	if len(cat) != 24 {
		t.Fatalf("StaticCatalog(4) has %d entries, want 24", len(cat))
	}
	if cat[0].Name != "C4" || cat[1].Name != "Db4" || cat[12].Name != "C5" {
		t.Errorf("unexpected order: %v", cat.Names()[:13])
	}
	sharp := StaticCatalog(4, notes.Sharp)
	if sharp[1].Name != "C#4" {
		t.Errorf("sharp static entry = %q, want C#4", sharp[1].Name)
	}
	if top := StaticCatalog(9, notes.Flat); len(top) != 12 {
		t.Errorf("StaticCatalog(9) has %d entries, want 12", len(top))
	}
}

func TestResolveStatic(t *testing.T) {
	r := NewResolver(Config{Mode: Static, Octave: 4})
	cat, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cat) != 24 {
		t.Errorf("static catalog size = %d, want 24", len(cat))
	}
}

func TestResolveDiscovered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listing))
	}))
	defer srv.Close()

	r := NewResolver(Config{Mode: Discovered, ListingURL: srv.URL + "/sounds/", Extension: "mp3", Octave: 4})
	cat, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cat) != 4 {
		t.Errorf("catalog size = %d, want 4", len(cat))
	}
}

func TestResolveDiscoveredEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="notes.txt">notes</a><a href="X4.mp3">x</a>`))
	}))
	defer srv.Close()

	r := NewResolver(Config{Mode: Discovered, ListingURL: srv.URL, Extension: "mp3", Octave: 4})
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrCatalogEmpty) {
		t.Errorf("Resolve error = %v, want ErrCatalogEmpty", err)
	}
}

func TestResolveDiscoveredHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(Config{Mode: Discovered, ListingURL: srv.URL, Extension: "mp3", Octave: 4})
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrCatalogFetch) {
		t.Errorf("Resolve error = %v, want ErrCatalogFetch", err)
	}
}

func TestResolveDiscoveredUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewResolver(Config{Mode: Discovered, ListingURL: url, Extension: "mp3", Octave: 4})
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrCatalogFetch) {
		t.Errorf("Resolve error = %v, want ErrCatalogFetch", err)
	}
}

func TestResolveUnknownMode(t *testing.T) {
	r := NewResolver(Config{Mode: "cloud"})
	if _, err := r.Resolve(context.Background()); err == nil {
		t.Error("expected error for unknown mode")
	}
}
