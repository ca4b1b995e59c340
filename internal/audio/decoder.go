package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoAudio is returned when a decode produced no samples.
var ErrNoAudio = errors.New("decoded audio is empty")

// DecodeFunc turns encoded audio bytes into interleaved stereo int16 PCM
// at SampleRate.
type DecodeFunc func(ctx context.Context, data []byte) ([]int16, error)

// DecodeBytes pipes encoded audio through FFmpeg and returns raw PCM int16
// samples, interleaved stereo at 48kHz.
func DecodeBytes(ctx context.Context, data []byte) ([]int16, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffmpeg decode: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	samples := BytesToSamples(out)
	if len(samples) < Channels {
		return nil, ErrNoAudio
	}
	return samples, nil
}

// BytesToSamples converts little-endian bytes to int16 samples. A trailing
// odd byte is dropped.
func BytesToSamples(buf []byte) []int16 {
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
