package kokoro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sbinet/npyio/npz"

	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// StyleDim is the length of one voice style vector.
const StyleDim = 256

// VoicePack holds the style tensors of every voice, each flattened from
// shape (rows, 1, 256).
type VoicePack struct {
	styles map[string][]float32
	names  []string
}

// NewVoicePack builds a pack from flattened style tensors.
func NewVoicePack(styles map[string][]float32) (*VoicePack, error) {
	vp := &VoicePack{styles: make(map[string][]float32, len(styles))}
	for name, data := range styles {
		if len(data) == 0 || len(data)%StyleDim != 0 {
			return nil, fmt.Errorf("voice %s: %d values is not a multiple of %d", name, len(data), StyleDim)
		}
		vp.styles[name] = data
		vp.names = append(vp.names, name)
	}
	sort.Strings(vp.names)
	return vp, nil
}

// LoadVoicePack reads a NumPy .npz voices file.
func LoadVoicePack(path string) (*VoicePack, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open voices file: %w", err)
	}
	defer r.Close()

	styles := make(map[string][]float32)
	for _, key := range r.Keys() {
		var data []float32
		if err := r.Read(key, &data); err != nil {
			return nil, fmt.Errorf("failed to read voice %s: %w", key, err)
		}
		styles[strings.TrimSuffix(key, ".npy")] = data
	}
	return NewVoicePack(styles)
}

// Names returns the voice identifiers in sorted order.
func (vp *VoicePack) Names() []string {
	return append([]string(nil), vp.names...)
}

// Has reports whether the pack contains name.
func (vp *VoicePack) Has(name string) bool {
	_, ok := vp.styles[name]
	return ok
}

// Style returns the style vector for a sequence of nTokens tokens. Longer
// sequences use the last row.
func (vp *VoicePack) Style(name string, nTokens int) ([]float32, error) {
	data, ok := vp.styles[name]
	if !ok {
		return nil, ttypes.NewError(ttypes.ErrorCodeInvalidVoice,
			fmt.Sprintf("Voice '%s' not found in voices file", name), nil).
			WithContext("voice", name)
	}

	rows := len(data) / StyleDim
	row := nTokens
	if row >= rows {
		row = rows - 1
	}
	if row < 0 {
		row = 0
	}
	return data[row*StyleDim : (row+1)*StyleDim], nil
}
