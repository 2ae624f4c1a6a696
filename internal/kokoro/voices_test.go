package kokoro

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"

	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// styleRows builds a flattened (rows, 1, 256) tensor whose row r is filled
// with the value r.
func styleRows(rows int) []float32 {
	data := make([]float32, rows*StyleDim)
	for r := 0; r < rows; r++ {
		for i := 0; i < StyleDim; i++ {
			data[r*StyleDim+i] = float32(r)
		}
	}
	return data
}

// writeVoicesNPZ writes an uncompressed .npz archive like numpy.savez.
func writeVoicesNPZ(t *testing.T, voices map[string][]float32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voices-v1.0.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range voices {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name + ".npy", Method: zip.Store})
		if err != nil {
			t.Fatal(err)
		}
		if err := npyio.Write(w, data); err != nil {
			t.Fatalf("npyio.Write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadVoicePack(t *testing.T) {
	path := writeVoicesNPZ(t, map[string][]float32{
		"af_sarah":  styleRows(4),
		"am_adam":   styleRows(4),
		"af_nicole": styleRows(2),
	})

	vp, err := LoadVoicePack(path)
	if err != nil {
		t.Fatalf("LoadVoicePack: %v", err)
	}

	names := vp.Names()
	want := []string{"af_nicole", "af_sarah", "am_adam"}
	if len(names) != len(want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if !vp.Has("af_sarah") || vp.Has("xx_nobody") {
		t.Error("Has reports wrong membership")
	}
}

func TestLoadVoicePack_Missing(t *testing.T) {
	if _, err := LoadVoicePack(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVoicePack_Style(t *testing.T) {
	vp, err := NewVoicePack(map[string][]float32{"af_sarah": styleRows(4)})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		nTokens int
		wantRow float32
	}{
		{"row by token count", 2, 2},
		{"first row", 0, 0},
		{"clamped to last row", 100, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style, err := vp.Style("af_sarah", tt.nTokens)
			if err != nil {
				t.Fatal(err)
			}
			if len(style) != StyleDim {
				t.Fatalf("len(style) = %d, want %d", len(style), StyleDim)
			}
			if style[0] != tt.wantRow || style[StyleDim-1] != tt.wantRow {
				t.Errorf("style row = %v, want %v", style[0], tt.wantRow)
			}
		})
	}

	_, err = vp.Style("zz_unknown", 1)
	if !errors.Is(err, ttypes.ErrInvalidVoice) {
		t.Errorf("Style(unknown) = %v, want ErrInvalidVoice", err)
	}
}

func TestNewVoicePack_RejectsBadShape(t *testing.T) {
	if _, err := NewVoicePack(map[string][]float32{"bad": make([]float32, StyleDim+1)}); err == nil {
		t.Error("expected error for misaligned tensor")
	}
	if _, err := NewVoicePack(map[string][]float32{"empty": nil}); err == nil {
		t.Error("expected error for empty tensor")
	}
}
