package kokoro

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDefaultVocab(t *testing.T) {
	v := DefaultVocab()

	tests := []struct {
		sym  rune
		want int64
	}{
		{';', 1},
		{'.', 4},
		{' ', 16},
		{'a', 43},
		{'ə', 83},
		{'ˈ', 156},
		{'ᵻ', 177},
	}
	for _, tt := range tests {
		if got, ok := v[tt.sym]; !ok || got != tt.want {
			t.Errorf("vocab[%q] = %d, %v; want %d", tt.sym, got, ok, tt.want)
		}
	}
}

func TestVocab_Tokenize(t *testing.T) {
	v := DefaultVocab()

	got := v.Tokenize("hə.")
	want := []int64{50, 83, 4}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	// unknown symbols are dropped
	if got := v.Tokenize("§¶"); len(got) != 0 {
		t.Errorf("Tokenize(unknown) = %v, want empty", got)
	}
}

func TestLoadVocab(t *testing.T) {
	dir := t.TempDir()

	custom := filepath.Join(dir, "config.json")
	if err := os.WriteFile(custom, []byte(`{"n_token": 178, "vocab": {"a": 7, "ə": 9}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := LoadVocab(custom)
	if err != nil {
		t.Fatalf("LoadVocab: %v", err)
	}
	if v['a'] != 7 || v['ə'] != 9 || len(v) != 2 {
		t.Errorf("unexpected vocab: %v", v)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"not json", "vocab"},
		{"missing vocab", `{"n_token": 178}`},
		{"multi-rune symbol", `{"vocab": {"ab": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadVocab(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if v, err := LoadVocab(""); err != nil || len(v) == 0 {
		t.Errorf("LoadVocab(\"\") = %d entries, %v", len(v), err)
	}
}

func TestSplitPhonemes(t *testing.T) {
	tests := []struct {
		name     string
		phonemes string
		max      int
		want     []string
	}{
		{
			name:     "short text is one batch",
			phonemes: "həlˈoʊ, wˈɜːld.",
			max:      MaxPhonemeLength,
			want:     []string{"həlˈoʊ, wˈɜːld."},
		},
		{
			name:     "punctuation attaches to the preceding clause",
			phonemes: "ab . cd !",
			max:      MaxPhonemeLength,
			want:     []string{"ab. cd!"},
		},
		{
			name:     "splits at punctuation when full",
			phonemes: "aaaa. bbbb. cccc.",
			max:      12,
			want:     []string{"aaaa. bbbb", ". cccc."},
		},
		{
			name:     "empty",
			phonemes: "   ",
			max:      MaxPhonemeLength,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPhonemes(tt.phonemes, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitPhonemes = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("batch[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitPhonemes_BatchesFitModel(t *testing.T) {
	clause := strings.Repeat("ə", 40)
	text := strings.Repeat(clause+", ", 50)

	batches := SplitPhonemes(text, MaxPhonemeLength)
	if len(batches) < 2 {
		t.Fatalf("expected multiple batches, got %d", len(batches))
	}
	for i, b := range batches {
		if n := utf8.RuneCountInString(b); n >= MaxPhonemeLength {
			t.Errorf("batch %d has %d runes", i, n)
		}
	}
}

func TestVocab_Fingerprint(t *testing.T) {
	a := DefaultVocab()
	if a.Fingerprint() != DefaultVocab().Fingerprint() {
		t.Error("fingerprint should be stable across loads")
	}

	b := DefaultVocab()
	b['a'] = b['a'] + 1
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("changed id kept the same fingerprint")
	}
}
