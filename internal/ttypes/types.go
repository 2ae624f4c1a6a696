// Package ttypes contains shared types for the kokoro synthesis pipeline.
// This package is used to break import cycles between tts, kokoro and audio packages.
package ttypes

import (
	"time"
)

const (
	// DefaultLanguage is the espeak-ng language tag used when none is given
	DefaultLanguage = "en-us"

	// DefaultSpeed is the neutral speaking rate multiplier
	DefaultSpeed = 1.0

	// MinSpeed is the slowest speaking rate the model accepts
	MinSpeed = 0.5

	// MaxSpeed is the fastest speaking rate the model accepts
	MaxSpeed = 2.0
)

// SynthOptions selects how a text is synthesized.
type SynthOptions struct {
	// Voice is the voice identifier (e.g. "af_sarah")
	Voice string

	// Language is the phonemizer language tag (e.g. "en-us")
	Language string

	// Speed is the speaking rate multiplier (0.5 to 2.0)
	Speed float64

	// Trim removes leading and trailing silence from every chunk
	Trim bool
}

// WithDefaults fills zero-valued fields with their defaults.
func (o SynthOptions) WithDefaults() SynthOptions {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.Speed == 0 {
		o.Speed = DefaultSpeed
	}
	return o
}

// Validate checks the speed range.
func (o SynthOptions) Validate() error {
	if o.Speed < MinSpeed || o.Speed > MaxSpeed {
		return NewError(ErrorCodeInvalidOption,
			"speed must be between 0.5 and 2.0", nil).
			WithContext("speed", o.Speed)
	}
	return nil
}

// Waveform is a mono sequence of float samples in [-1.0, 1.0].
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Chunk is one incrementally generated audio segment.
type Chunk struct {
	// Index is the emission order, starting at zero
	Index int

	// Samples holds the chunk audio
	Samples []float32

	// SampleRate is the model's native rate
	SampleRate int

	// Phonemes is the phoneme batch the chunk was generated from
	Phonemes string

	// Cached reports whether the audio came from the synthesis cache
	Cached bool
}
