package kokoro

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxPhonemeLength is the longest phoneme sequence the model accepts per
// inference, excluding the two padding tokens.
const MaxPhonemeLength = 510

//go:embed vocab.json
var defaultVocabJSON []byte

// Vocab maps single phoneme symbols to model token ids.
type Vocab map[rune]int64

// vocabFile is the layout of Kokoro's config.json.
type vocabFile struct {
	Vocab map[string]int64 `json:"vocab"`
}

// DefaultVocab returns the vocabulary bundled with the binary.
func DefaultVocab() Vocab {
	v, err := parseVocab(defaultVocabJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded vocab is invalid: %v", err))
	}
	return v
}

// LoadVocab reads a vocabulary from a Kokoro config.json. An empty path
// returns the bundled vocabulary.
func LoadVocab(path string) (Vocab, error) {
	if path == "" {
		return DefaultVocab(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	v, err := parseVocab(data)
	if err != nil {
		return nil, fmt.Errorf("invalid vocab file %s: %w", path, err)
	}
	return v, nil
}

func parseVocab(data []byte) (Vocab, error) {
	var f vocabFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Vocab) == 0 {
		return nil, fmt.Errorf("no \"vocab\" entries")
	}

	v := make(Vocab, len(f.Vocab))
	for sym, id := range f.Vocab {
		if utf8.RuneCountInString(sym) != 1 {
			return nil, fmt.Errorf("vocab symbol %q is not a single character", sym)
		}
		r, _ := utf8.DecodeRuneInString(sym)
		v[r] = id
	}
	return v, nil
}

// Tokenize converts phonemes to token ids. Symbols missing from the
// vocabulary are dropped.
func (v Vocab) Tokenize(phonemes string) []int64 {
	tokens := make([]int64, 0, len(phonemes))
	for _, r := range phonemes {
		if id, ok := v[r]; ok {
			tokens = append(tokens, id)
		}
	}
	return tokens
}

// Fingerprint identifies the symbol to id mapping independent of map order.
func (v Vocab) Fingerprint() string {
	syms := make([]rune, 0, len(v))
	for r := range v {
		syms = append(syms, r)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })

	h := sha256.New()
	for _, r := range syms {
		fmt.Fprintf(h, "%c=%d;", r, v[r])
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

var batchPunctuation = regexp.MustCompile(`([.,!?;])`)

// SplitPhonemes groups a phoneme string into batches shorter than max
// runes. Batches break only at clause punctuation, which stays attached to
// the preceding clause.
func SplitPhonemes(phonemes string, max int) []string {
	var batches []string
	var current strings.Builder
	currentLen := 0

	for _, part := range splitKeepDelims(phonemes) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		partLen := utf8.RuneCountInString(part)

		if currentLen+partLen+1 >= max {
			if s := strings.TrimSpace(current.String()); s != "" {
				batches = append(batches, s)
			}
			current.Reset()
			current.WriteString(part)
			currentLen = partLen
			continue
		}

		if !isBatchPunctuation(part) && currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(part)
		currentLen += partLen
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		batches = append(batches, s)
	}
	return batches
}

// splitKeepDelims splits s around punctuation, keeping each delimiter as
// its own element.
func splitKeepDelims(s string) []string {
	var parts []string
	last := 0
	for _, loc := range batchPunctuation.FindAllStringIndex(s, -1) {
		parts = append(parts, s[last:loc[0]], s[loc[0]:loc[1]])
		last = loc[1]
	}
	return append(parts, s[last:])
}

func isBatchPunctuation(s string) bool {
	return len(s) == 1 && strings.ContainsAny(s, ".,!?;")
}
