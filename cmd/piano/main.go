package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/satindergrewal/webpiano/internal/audio"
	"github.com/satindergrewal/webpiano/internal/catalog"
	"github.com/satindergrewal/webpiano/internal/config"
	"github.com/satindergrewal/webpiano/internal/notes"
	"github.com/satindergrewal/webpiano/internal/piano"
	"github.com/satindergrewal/webpiano/internal/playback"
	"github.com/satindergrewal/webpiano/internal/samples"
	"github.com/satindergrewal/webpiano/internal/stream"
	"github.com/satindergrewal/webpiano/internal/ui"
	"github.com/satindergrewal/webpiano/internal/web"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("webpiano starting up...")

	hub := ui.NewHub(ui.HighlightDuration)
	p, err := piano.New(pianoConfig(cfg), hub, audio.DecodeBytes)
	if err != nil {
		log.Fatalf("Piano setup failed: %v", err)
	}
	defer p.Teardown()

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("Page template: %v", err)
	}

	// Mixer clock and fan-out to every audio output
	go p.Mixer().Run(ctx)
	broadcaster := stream.NewPCMBroadcaster()
	go broadcaster.Run(ctx, p.Mixer().Frames())

	webrtcHandler := stream.NewWebRTCHandler(broadcaster, "webpiano")
	defer webrtcHandler.Close()

	if cfg.LocalOutput {
		go func() {
			if err := stream.NewLocalOutput(broadcaster).Run(ctx); err != nil {
				log.Printf("Local output disabled: %v", err)
			}
		}()
	}

	// Samples load in the background; the page follows progress over /events
	go func() {
		if err := p.Init(ctx); err != nil {
			log.Printf("Piano init failed: %v", err)
		}
	}()

	mux := newMux(p, hub, renderer, broadcaster, webrtcHandler, cfg.Title)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("webpiano live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}

func pianoConfig(cfg config.Config) piano.Config {
	return piano.Config{
		Title: cfg.Title,
		Catalog: catalog.Config{
			Mode:       catalog.Mode(cfg.CatalogMode),
			ListingURL: cfg.CatalogListingURL(),
			Extension:  cfg.SoundExt,
			Octave:     cfg.Octave,
			Spelling:   notes.ParseSpelling(cfg.Accidentals),
			Timeout:    cfg.HTTPTimeout,
		},
		Samples: samples.Config{
			BaseURL:   cfg.SoundsURL,
			Extension: cfg.SoundExt,
			Workers:   cfg.LoadWorkers,
			Timeout:   cfg.HTTPTimeout,
		},
		Playback: playback.Config{
			Analyze:       cfg.Analyze,
			FFTSize:       cfg.FFTSize,
			AnalysisDelay: cfg.AnalysisDelay,
			Highlight:     playback.HighlightPolicy(cfg.Highlight),
		},
		Alphabet:     cfg.Keys,
		Layout:       catalog.KeyMapOptions{HighKey: cfg.HighKey, LowKey: cfg.LowKey},
		Gain:         cfg.Gain,
		MaxVoices:    cfg.MaxVoices,
		DefaultTempo: cfg.Tempo,
		RhythmsFile:  cfg.RhythmsFile,
	}
}
