package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := []float32{0, 0.5, -0.5, 1.0, -1.0}

	if err := WriteWAV(path, samples, 24000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("output is not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if dec.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", dec.SampleRate)
	}
	if dec.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", dec.BitDepth)
	}
	if dec.NumChans != 1 {
		t.Errorf("NumChans = %d, want 1", dec.NumChans)
	}

	want := []int{0, 16383, -16383, 32767, -32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestWriteWAV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteWAV(path, []float32{0.1}, 24000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= 4096 {
		t.Errorf("file was not replaced, size %d", info.Size())
	}
}

func TestWriteWAV_InvalidRate(t *testing.T) {
	if err := WriteWAV(filepath.Join(t.TempDir(), "x.wav"), nil, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
