package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag
const wavFormatPCM = 1

// WriteWAV writes samples as a 16-bit mono PCM WAV file, replacing any
// existing file at path.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create wav file: %w", err)
	}
	defer func() { _ = f.Close() }()

	pcm := Float32ToInt16(samples)
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, BitDepth, Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: Channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("unable to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to finalize wav file: %w", err)
	}
	return f.Close()
}
