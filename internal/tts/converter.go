package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/kokoro/internal/audio"
	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// Converter runs the file-to-audio pipeline: stream, concatenate, convert
// to 16-bit PCM and encode.
type Converter struct {
	encoder  Encoder
	options  ttypes.SynthOptions
	progress Progress
}

// ConvertResult describes a finished conversion.
type ConvertResult struct {
	OutputPath string
	Chunks     int
	Samples    int
	Duration   time.Duration
	Elapsed    time.Duration
	PCMBytes   int
}

// NewConverter creates a converter. The voice in opts is replaced by the
// job's voice; progress may be nil.
func NewConverter(encoder Encoder, opts ttypes.SynthOptions, progress Progress) *Converter {
	return &Converter{
		encoder:  encoder,
		options:  opts.WithDefaults(),
		progress: progress,
	}
}

// Convert synthesizes job.Text with synth and encodes the result to
// job.OutputPath. No file is written if the stream produces no chunks.
func (c *Converter) Convert(ctx context.Context, synth StreamSynthesizer, job *Job) (*ConvertResult, error) {
	opts := c.options
	opts.Voice = job.Voice

	log.Info("Generating speech", "voice", job.Voice, "input", job.InputPath)
	start := time.Now()

	chunks, errc := synth.Stream(ctx, job.Text, opts)

	var parts [][]float32
	total := 0
	for chunk := range chunks {
		parts = append(parts, chunk.Samples)
		total += len(chunk.Samples)
		if c.progress != nil {
			c.progress.Chunk(chunk, total)
		}
	}
	if c.progress != nil {
		c.progress.Done()
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	log.Info(fmt.Sprintf("Streaming complete. Generated in %.2f seconds across %d chunks.", elapsed.Seconds(), len(parts)))

	if len(parts) == 0 {
		return nil, ttypes.NewError(ttypes.ErrorCodeNoAudioProduced,
			"No audio data received from the stream.", nil)
	}

	samples := audio.Concat(parts)
	if len(samples) == 0 {
		return nil, ttypes.NewError(ttypes.ErrorCodeNoAudioProduced,
			"No audio data received from the stream.", nil).
			WithContext("chunks", len(parts))
	}
	pcm := audio.PCM16LE(samples)
	sampleRate := synth.SampleRate()

	log.Info("Starting encoder", "output", job.OutputPath)
	if err := c.encoder.Encode(ctx, pcm, sampleRate, job.OutputPath); err != nil {
		return nil, err
	}

	return &ConvertResult{
		OutputPath: job.OutputPath,
		Chunks:     len(parts),
		Samples:    len(samples),
		Duration:   audio.PCMDuration(len(pcm), sampleRate),
		Elapsed:    elapsed,
		PCMBytes:   len(pcm),
	}, nil
}
