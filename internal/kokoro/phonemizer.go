package kokoro

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-shellwords"
	"golang.org/x/text/unicode/norm"
)

// DefaultPhonemizerCommand is the espeak-ng invocation used when none is configured.
const DefaultPhonemizerCommand = "espeak-ng"

// Phonemizer converts text to an IPA phoneme string.
type Phonemizer interface {
	Phonemize(ctx context.Context, text, lang string) (string, error)
}

var (
	// clause text followed by its (possibly empty) punctuation run
	clausePattern = regexp.MustCompile(`([^.,!?;:]+)([.,!?;:]*)`)

	// language switch markers such as "(en)" or "(fr-fr)"
	languageMarker = regexp.MustCompile(`\([a-z-]+\)`)

	whitespace = regexp.MustCompile(`\s+`)
)

// EspeakPhonemizer runs espeak-ng once per clause and keeps the clause
// punctuation, which espeak-ng would otherwise drop.
type EspeakPhonemizer struct {
	command []string
}

// NewEspeakPhonemizer parses command with shell word rules. Empty means
// DefaultPhonemizerCommand.
func NewEspeakPhonemizer(command string) (*EspeakPhonemizer, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultPhonemizerCommand
	}
	words, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("invalid phonemizer command %q: %w", command, err)
	}
	if len(words) == 0 {
		return nil, errors.New("phonemizer command is empty")
	}
	return &EspeakPhonemizer{command: words}, nil
}

// Phonemize returns the IPA transcription of text.
func (p *EspeakPhonemizer) Phonemize(ctx context.Context, text, lang string) (string, error) {
	text = norm.NFKC.String(text)

	var out strings.Builder
	for _, m := range clausePattern.FindAllStringSubmatch(text, -1) {
		clause, punct := strings.TrimSpace(m[1]), m[2]

		if clause != "" {
			ipa, err := p.run(ctx, clause, lang)
			if err != nil {
				return "", err
			}
			if ipa != "" {
				if out.Len() > 0 {
					out.WriteByte(' ')
				}
				out.WriteString(ipa)
			}
		}
		out.WriteString(punct)
	}

	return strings.TrimSpace(out.String()), nil
}

func (p *EspeakPhonemizer) run(ctx context.Context, clause, lang string) (string, error) {
	args := append([]string{}, p.command[1:]...)
	args = append(args, "-q", "--ipa", "-v", lang, "--stdin")

	cmd := exec.CommandContext(ctx, p.command[0], args...)
	cmd.Stdin = strings.NewReader(clause)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("phonemizer '%s' not found, install espeak-ng: %w", p.command[0], err)
		}
		return "", fmt.Errorf("phonemizer failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	ipa := cleanIPA(stdout.String())
	log.Debug("Phonemized clause", "clause", clause, "ipa", ipa)
	return ipa, nil
}

// cleanIPA strips language markers and collapses whitespace, including the
// newlines espeak-ng emits between sentences.
func cleanIPA(s string) string {
	s = languageMarker.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
