package stream

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"

	"github.com/satindergrewal/webpiano/internal/audio"
)

// LocalOutput plays the mix on the host's default audio device.
type LocalOutput struct {
	broadcaster *Broadcaster[[]int16]
}

// NewLocalOutput creates a speaker output fed by b.
func NewLocalOutput(b *Broadcaster[[]int16]) *LocalOutput {
	return &LocalOutput{broadcaster: b}
}

// Run opens the audio device and plays frames until ctx is cancelled.
// Only one LocalOutput may run per process.
func (o *LocalOutput) Run(ctx context.Context) error {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   2 * audio.FrameDuration,
	})
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	listener := o.broadcaster.Subscribe()
	defer o.broadcaster.Unsubscribe(listener)

	player := otoCtx.NewPlayer(newFrameReader(ctx, listener))
	defer player.Close()
	player.Play()
	log.Printf("Local output started (%d Hz, %d channels)", audio.SampleRate, audio.Channels)

	<-ctx.Done()
	log.Printf("Local output stopped")
	return nil
}

// frameReader adapts a PCM listener to the io.Reader oto pulls from.
type frameReader struct {
	ctx      context.Context
	listener *Listener[[]int16]
	pending  []byte
}

func newFrameReader(ctx context.Context, l *Listener[[]int16]) *frameReader {
	return &frameReader{ctx: ctx, listener: l}
}

func (r *frameReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		select {
		case <-r.ctx.Done():
			return 0, io.EOF
		case <-r.listener.Done():
			return 0, io.EOF
		case frame, ok := <-r.listener.C:
			if !ok {
				return 0, io.EOF
			}
			r.pending = audio.SamplesToBytes(frame)
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
