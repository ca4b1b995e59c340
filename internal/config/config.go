package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port  int
	Title string

	// Sound catalog
	SoundsURL   string // base URL of <note>.<ext> files
	CatalogMode string // static | discovered
	CatalogURL  string // directory listing, discovered mode only
	SoundExt    string // sample extension without the dot
	Accidentals string // flat | sharp, static catalog spelling

	// Keyboard layout
	Octave  int
	Keys    []string // key alphabet in assignment order
	HighKey string   // always plays C of octave+1
	LowKey  string   // plays A of octave-1, empty to disable

	// Sample loading
	LoadWorkers int
	HTTPTimeout time.Duration

	// Playback
	Gain          float64
	MaxVoices     int
	Analyze       bool          // estimate the fundamental of every note
	FFTSize       int           // analysis window in samples
	AnalysisDelay time.Duration // trigger -> spectrum read
	Highlight     string        // on-trigger | always
	LocalOutput   bool          // also play the mix on this host's speakers

	// Rhythms
	Tempo       time.Duration // default step length
	RhythmsFile string        // YAML presets, empty for the built-in set
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:  envInt("PIANO_PORT", 8080),
		Title: envStr("PIANO_TITLE", "Web Piano"),

		SoundsURL:   strings.TrimRight(envStr("PIANO_SOUNDS_URL", "http://localhost:8000/sounds"), "/"),
		CatalogMode: envStr("PIANO_CATALOG_MODE", "static"),
		CatalogURL:  envStr("PIANO_CATALOG_URL", ""),
		SoundExt:    strings.TrimPrefix(envStr("PIANO_SOUND_EXT", "mp3"), "."),
		Accidentals: envStr("PIANO_ACCIDENTALS", "flat"),

		Octave:  envInt("PIANO_OCTAVE", 4),
		Keys:    envList("PIANO_KEYS", []string{"A", "W", "S", "E", "D", "F", "T", "G", "Y", "H", "U", "J", "K"}),
		HighKey: envStr("PIANO_HIGH_KEY", "K"),
		LowKey:  envStr("PIANO_LOW_KEY", "Z"),

		LoadWorkers: envInt("PIANO_LOAD_WORKERS", 1),
		HTTPTimeout: envDuration("PIANO_HTTP_TIMEOUT", 30*time.Second),

		Gain:          envFloat("PIANO_GAIN", 0.8),
		MaxVoices:     envInt("PIANO_MAX_VOICES", 32),
		Analyze:       envBool("PIANO_ANALYZE", true),
		FFTSize:       envInt("PIANO_FFT_SIZE", 4096),
		AnalysisDelay: envDuration("PIANO_ANALYSIS_DELAY", 100*time.Millisecond),
		Highlight:     envStr("PIANO_HIGHLIGHT", "on-trigger"),
		LocalOutput:   envBool("PIANO_LOCAL_OUTPUT", false),

		Tempo:       envDuration("PIANO_TEMPO", 200*time.Millisecond),
		RhythmsFile: envStr("PIANO_RHYTHMS_FILE", ""),
	}
}

// CatalogListingURL returns the listing to scan in discovered mode,
// defaulting to the sounds directory itself.
func (c Config) CatalogListingURL() string {
	if c.CatalogURL != "" {
		return c.CatalogURL
	}
	return c.SoundsURL + "/"
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envList reads a comma-separated list. Blank entries are dropped.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// envDuration accepts Go durations ("150ms") or bare milliseconds ("150").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
