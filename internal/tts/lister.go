package tts

import (
	"fmt"
	"io"
	"sort"
)

// ListVoices writes one "- <voice>" line per voice followed by the total,
// and returns the number of voices.
func ListVoices(w io.Writer, l VoiceLister) (int, error) {
	voices := l.Voices()
	sort.Strings(voices)

	if _, err := fmt.Fprintln(w, "--- Available Voices ---"); err != nil {
		return 0, err
	}
	for _, v := range voices {
		if _, err := fmt.Fprintf(w, "- %s\n", v); err != nil {
			return 0, err
		}
	}
	if _, err := fmt.Fprintf(w, "\nTotal voices found: %d\n", len(voices)); err != nil {
		return 0, err
	}
	return len(voices), nil
}
