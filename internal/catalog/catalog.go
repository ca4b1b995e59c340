package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/satindergrewal/webpiano/internal/notes"
)

// Mode selects where the catalog comes from.
type Mode string

const (
	Static     Mode = "static"
	Discovered Mode = "discovered"
)

var (
	ErrCatalogFetch = errors.New("catalog fetch failed")
	ErrCatalogEmpty = errors.New("catalog has no valid entries")
)

// maxListingBytes caps how much of a directory listing is read.
const maxListingBytes = 4 << 20

// Entry is one available note sample. Name keeps the spelling used by the
// sample source so the file can be fetched back under the same name.
type Entry struct {
	Name string
	Note notes.Note
}

// Catalog is an ordered list of available note samples.
type Catalog []Entry

// Names returns the entry names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name
	}
	return names
}

// Sort orders entries by octave, then chromatic index.
func (c Catalog) Sort() {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Note.MIDI() < c[j].Note.MIDI()
	})
}

// Config controls catalog resolution.
type Config struct {
	Mode       Mode
	ListingURL string // directory listing, discovered mode only
	Extension  string // sample file extension without the dot
	Octave     int
	Spelling   notes.Spelling // accidental style for static entries
	Timeout    time.Duration
}

// Resolver produces the sound catalog from either the static table or a
// remote directory listing.
type Resolver struct {
	cfg  Config
	http *http.Client
}

// NewResolver creates a resolver for the given configuration.
func NewResolver(cfg Config) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Resolve returns the catalog for the configured mode.
func (r *Resolver) Resolve(ctx context.Context) (Catalog, error) {
	switch r.cfg.Mode {
	case Discovered:
		return r.discover(ctx)
	case Static, "":
		cat := StaticCatalog(r.cfg.Octave, r.cfg.Spelling)
		if len(cat) == 0 {
			return nil, fmt.Errorf("%w: octave %d", ErrCatalogEmpty, r.cfg.Octave)
		}
		return cat, nil
	default:
		return nil, fmt.Errorf("unknown catalog mode %q", r.cfg.Mode)
	}
}

func (r *Resolver) discover(ctx context.Context) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", r.cfg.ListingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrCatalogFetch, err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrCatalogFetch, r.cfg.ListingURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read listing: %v", ErrCatalogFetch, err)
	}

	cat := ParseListing(body, r.cfg.Extension)
	if len(cat) == 0 {
		return nil, fmt.Errorf("%w: no %s samples in %s", ErrCatalogEmpty, r.cfg.Extension, r.cfg.ListingURL)
	}
	log.Printf("Catalog discovered: %d samples from %s", len(cat), r.cfg.ListingURL)
	return cat, nil
}

// ParseListing extracts note samples from the anchor hrefs of a directory
// listing. Tokens that do not parse as notes are dropped, as are repeats of
// a note already seen under another spelling.
func ParseListing(body []byte, ext string) Catalog {
	re := regexp.MustCompile(`href="([A-G][b#]?\d+)\.` + regexp.QuoteMeta(ext) + `"`)

	var cat Catalog
	seen := make(map[notes.Note]bool)
	for _, m := range re.FindAllSubmatch(body, -1) {
		name := string(m[1])
		n, err := notes.Parse(name)
		if err != nil {
			log.Printf("Catalog: skipping %q: %v", name, err)
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		cat = append(cat, Entry{Name: name, Note: n})
	}
	cat.Sort()
	return cat
}

// StaticCatalog lists every chromatic note of octave and octave+1 that the
// frequency table knows about.
func StaticCatalog(octave int, spelling notes.Spelling) Catalog {
	var cat Catalog
	for oct := octave; oct <= octave+1; oct++ {
		if oct < notes.MinOctave || oct > notes.MaxOctave {
			continue
		}
		for pc := notes.C; pc <= notes.B; pc++ {
			n := notes.Note{Class: pc, Octave: oct}
			cat = append(cat, Entry{Name: n.Spell(spelling), Note: n})
		}
	}
	return cat
}
