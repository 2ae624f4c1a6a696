package tts

import (
	"context"
	"sync"

	"github.com/dgnsrekt/kokoro/internal/audio"
	"github.com/dgnsrekt/kokoro/internal/kokoro"
	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// Compile-time interface compliance checks
var (
	_ StreamSynthesizer = (*kokoro.Engine)(nil)
	_ Synthesizer       = (*kokoro.Engine)(nil)
	_ VoiceLister       = (*kokoro.Engine)(nil)
	_ Encoder           = (*audio.FFmpegEncoder)(nil)
	_ AudioPlayer       = (*audio.Player)(nil)
)

// mockSynth emits a fixed list of chunks.
type mockSynth struct {
	mu     sync.Mutex
	chunks [][]float32
	err    error
	calls  int
	opts   ttypes.SynthOptions
	voices []string
}

func (m *mockSynth) Stream(_ context.Context, _ string, opts ttypes.SynthOptions) (<-chan ttypes.Chunk, <-chan error) {
	m.mu.Lock()
	m.calls++
	m.opts = opts
	m.mu.Unlock()

	out := make(chan ttypes.Chunk)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i, s := range m.chunks {
			out <- ttypes.Chunk{Index: i, Samples: s, SampleRate: m.SampleRate()}
		}
		if m.err != nil {
			errc <- m.err
		}
	}()
	return out, errc
}

func (m *mockSynth) Create(ctx context.Context, text string, opts ttypes.SynthOptions) (ttypes.Waveform, error) {
	chunks, errc := m.Stream(ctx, text, opts)
	var parts [][]float32
	for c := range chunks {
		parts = append(parts, c.Samples)
	}
	if err := <-errc; err != nil {
		return ttypes.Waveform{}, err
	}
	return ttypes.Waveform{Samples: audio.Concat(parts), SampleRate: m.SampleRate()}, nil
}

func (m *mockSynth) SampleRate() int { return 24000 }

func (m *mockSynth) Voices() []string { return m.voices }

func (m *mockSynth) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockEncoder records what it was asked to encode.
type mockEncoder struct {
	calls      int
	pcm        []byte
	sampleRate int
	output     string
	err        error
}

func (m *mockEncoder) Encode(_ context.Context, pcm []byte, sampleRate int, outputPath string) error {
	m.calls++
	m.pcm = pcm
	m.sampleRate = sampleRate
	m.output = outputPath
	return m.err
}

// recordingProgress counts progress callbacks.
type recordingProgress struct {
	chunks []int
	done   bool
}

func (p *recordingProgress) Chunk(c ttypes.Chunk, _ int) { p.chunks = append(p.chunks, c.Index) }
func (p *recordingProgress) Done()                       { p.done = true }
