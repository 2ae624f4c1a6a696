package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/kokoro/internal/audio"
	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// SayText is the single-shot synthesizer's fixed text.
const SayText = "This is a new test. We are using the CPU to ensure maximum compatibility on Linux Mint."

// SayOutputName is the single-shot output file name inside the temp dir.
const SayOutputName = "onnx_cpu_output.wav"

// DefaultSayOutput returns the single-shot output path.
func DefaultSayOutput() string {
	return filepath.Join(os.TempDir(), SayOutputName)
}

// SayResult describes a finished single-shot synthesis.
type SayResult struct {
	OutputPath string
	Waveform   ttypes.Waveform
	Elapsed    time.Duration
}

// Say synthesizes text in one call and writes a 16-bit mono WAV to
// outputPath, replacing any existing file.
func Say(ctx context.Context, synth Synthesizer, text string, opts ttypes.SynthOptions, outputPath string) (*SayResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ttypes.NewError(ttypes.ErrorCodeEmptyInput, "Nothing to say.", nil)
	}
	if opts.Voice == "" {
		opts.Voice = SayVoice
	}
	if err := ValidateVoice(opts.Voice); err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = DefaultSayOutput()
	}

	log.Info("Generating speech", "voice", opts.Voice)
	start := time.Now()
	wave, err := synth.Create(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	if len(wave.Samples) == 0 {
		return nil, ttypes.NewError(ttypes.ErrorCodeNoAudioProduced, "No audio data produced.", nil)
	}
	log.Info(fmt.Sprintf("Speech generated in %.2f seconds.", elapsed.Seconds()))

	if err := audio.WriteWAV(outputPath, wave.Samples, wave.SampleRate); err != nil {
		return nil, fmt.Errorf("failed to save audio: %w", err)
	}

	return &SayResult{OutputPath: outputPath, Waveform: wave, Elapsed: elapsed}, nil
}
