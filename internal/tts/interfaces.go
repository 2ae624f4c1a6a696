package tts

import (
	"context"

	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// StreamSynthesizer produces audio incrementally. Chunks arrive in order
// on the first channel; after it closes, the second channel yields at most
// one error. *kokoro.Engine implements it.
type StreamSynthesizer interface {
	Stream(ctx context.Context, text string, opts ttypes.SynthOptions) (<-chan ttypes.Chunk, <-chan error)
	SampleRate() int
}

// Synthesizer produces a whole waveform in one call.
type Synthesizer interface {
	Create(ctx context.Context, text string, opts ttypes.SynthOptions) (ttypes.Waveform, error)
}

// VoiceLister enumerates the voices known to the loaded model.
type VoiceLister interface {
	Voices() []string
}

// Encoder turns s16le mono PCM into a compressed file.
// *audio.FFmpegEncoder implements it.
type Encoder interface {
	Encode(ctx context.Context, pcm []byte, sampleRate int, outputPath string) error
}

// AudioPlayer plays s16le mono PCM. *audio.Player implements it.
type AudioPlayer interface {
	Play(ctx context.Context, pcm []byte) error
	Close() error
}

// Progress receives converter progress.
type Progress interface {
	// Chunk is called after every received chunk.
	Chunk(c ttypes.Chunk, totalSamples int)

	// Done is called once synthesis completes.
	Done()
}
