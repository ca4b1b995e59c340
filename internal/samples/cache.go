package samples

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/satindergrewal/webpiano/internal/audio"
	"github.com/satindergrewal/webpiano/internal/catalog"
)

// maxSampleBytes caps the size of one encoded sample.
const maxSampleBytes = 32 << 20

// SampleLoadError records why one key could not be loaded.
type SampleLoadError struct {
	Key  string
	Note string
	URL  string
	Err  error
}

func (e *SampleLoadError) Error() string {
	return fmt.Sprintf("load %s (%s) from %s: %v", e.Key, e.Note, e.URL, e.Err)
}

func (e *SampleLoadError) Unwrap() error { return e.Err }

// LoadReport summarizes a LoadAll pass.
type LoadReport struct {
	Total  int
	Loaded int
	Failed []*SampleLoadError
}

// ProgressFunc receives (attempts finished, attempts planned) after every
// sample attempt, success or failure. Calls are serialized and done never
// decreases.
type ProgressFunc func(done, total int)

// Config controls where samples are fetched from.
type Config struct {
	BaseURL   string // e.g. http://host/sounds
	Extension string // without the dot
	Workers   int    // concurrent fetches; 1 keeps the load strictly sequential
	Timeout   time.Duration
}

// Cache holds one decoded sample per key for the life of the process.
type Cache struct {
	cfg      Config
	http     *http.Client
	decode   audio.DecodeFunc
	progress ProgressFunc

	mu      sync.RWMutex
	buffers map[string]*audio.Sample
}

// NewCache creates an empty cache that decodes with the given function.
func NewCache(cfg Config, decode audio.DecodeFunc) *Cache {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Cache{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		decode:  decode,
		buffers: make(map[string]*audio.Sample),
	}
}

// SetProgressFunc sets the progress callback. Pass nil to disable.
func (c *Cache) SetProgressFunc(fn ProgressFunc) {
	c.progress = fn
}

// URL returns the sample location for a note name.
func (c *Cache) URL(note string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + url.PathEscape(note) + "." + c.cfg.Extension
}

// Get returns the sample bound to key, if it loaded.
func (c *Cache) Get(key string) (*audio.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.buffers[key]
	return s, ok
}

// Len returns the number of loaded keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers)
}

// LoadAll fetches and decodes the sample of every key in km that is not
// cached yet. A failing key is logged and left unbound; the rest still load.
func (c *Cache) LoadAll(ctx context.Context, km catalog.KeyMap) LoadReport {
	var pending []catalog.Binding
	for _, b := range km.Bindings() {
		if _, ok := c.Get(b.Key); !ok {
			pending = append(pending, b)
		}
	}

	report := LoadReport{Total: len(pending)}
	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)
	finish := func(err *SampleLoadError) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if err != nil {
			report.Failed = append(report.Failed, err)
		} else {
			report.Loaded++
		}
		if c.progress != nil {
			c.progress(done, report.Total)
		}
	}

	sem := make(chan struct{}, c.cfg.Workers)
	for _, b := range pending {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			finish(&SampleLoadError{Key: b.Key, Note: b.Note, URL: c.URL(b.Note), Err: ctx.Err()})
			continue
		}
		wg.Add(1)
		go func(b catalog.Binding) {
			defer wg.Done()
			defer func() { <-sem }()
			finish(c.load(ctx, b))
		}(b)
	}
	wg.Wait()

	log.Printf("Samples loaded: %d/%d (%d failed)", report.Loaded, report.Total, len(report.Failed))
	return report
}

func (c *Cache) load(ctx context.Context, b catalog.Binding) *SampleLoadError {
	u := c.URL(b.Note)
	fail := func(err error) *SampleLoadError {
		e := &SampleLoadError{Key: b.Key, Note: b.Note, URL: u, Err: err}
		log.Printf("Sample load failed: %v", e)
		return e
	}

	data, err := c.fetch(ctx, u)
	if err != nil {
		return fail(err)
	}
	pcm, err := c.decode(ctx, data)
	if err != nil {
		return fail(fmt.Errorf("decode: %w", err))
	}

	c.mu.Lock()
	if _, ok := c.buffers[b.Key]; !ok {
		c.buffers[b.Key] = &audio.Sample{Note: b.Note, PCM: pcm}
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSampleBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
