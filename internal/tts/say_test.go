package tts

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/go-audio/wav"

	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// writeEncoderScript creates a fake encoder that copies stdin to the last argument.
func writeEncoderScript(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	body := "#!/bin/sh\nfor last; do :; done\ncat > \"$last\"\n"
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSay(t *testing.T) {
	synth := &mockSynth{chunks: [][]float32{{0.5, -0.5}, {0.25}}}
	out := filepath.Join(t.TempDir(), "say.wav")

	// an existing file is replaced
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Say(context.Background(), synth, SayText, ttypes.SynthOptions{}, out)
	if err != nil {
		t.Fatalf("Say: %v", err)
	}
	if synth.opts.Voice != SayVoice {
		t.Errorf("voice = %q, want %q", synth.opts.Voice, SayVoice)
	}
	if len(res.Waveform.Samples) != 3 {
		t.Errorf("samples = %d, want 3", len(res.Waveform.Samples))
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("output is not a valid WAV file")
	}
	if dec.SampleRate != 24000 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("format = %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
}

func TestSay_Errors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "say.wav")

	tests := []struct {
		name  string
		synth *mockSynth
		text  string
		opts  ttypes.SynthOptions
		want  error
	}{
		{"empty text", &mockSynth{chunks: [][]float32{{0.1}}}, "   ", ttypes.SynthOptions{}, ttypes.ErrEmptyInput},
		{"invalid voice", &mockSynth{chunks: [][]float32{{0.1}}}, "hi", ttypes.SynthOptions{Voice: "nope"}, ttypes.ErrInvalidVoice},
		{"no audio", &mockSynth{}, "hi", ttypes.SynthOptions{}, ttypes.ErrNoAudioProduced},
		{"synthesis failure", &mockSynth{err: ttypes.NewError(ttypes.ErrorCodeSynthesisFailed, "x", nil)}, "hi", ttypes.SynthOptions{}, ttypes.ErrSynthesisFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Say(context.Background(), tt.synth, tt.text, tt.opts, out)
			if !errors.Is(err, tt.want) {
				t.Errorf("Say = %v, want %v", err, tt.want)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Error("no file should be written on failure")
			}
		})
	}
}

func TestDefaultSayOutput(t *testing.T) {
	if got := DefaultSayOutput(); !strings.HasSuffix(got, SayOutputName) {
		t.Errorf("DefaultSayOutput = %q", got)
	}
}

func TestListVoices(t *testing.T) {
	var buf bytes.Buffer
	n, err := ListVoices(&buf, &mockSynth{voices: []string{"am_adam", "af_sarah"}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}

	out := buf.String()
	if !strings.Contains(out, "- af_sarah\n- am_adam\n") {
		t.Errorf("voices not listed in order:\n%s", out)
	}
	if !strings.HasSuffix(out, "Total voices found: 2\n") {
		t.Errorf("missing total:\n%s", out)
	}
}
