package tts

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

const (
	// DefaultVoice is the converter's voice when none is given
	DefaultVoice = "af_nicole"

	// SayVoice is the single-shot synthesizer's fixed voice
	SayVoice = "af_sarah"

	// maxSuggestions bounds the "did you mean" list
	maxSuggestions = 3
)

// ValidVoices is the fixed catalog of Kokoro v1.0 voice identifiers.
var ValidVoices = []string{
	"af_alloy", "af_aoede", "af_bella", "af_heart", "af_jessica", "af_kore",
	"af_nicole", "af_nova", "af_river", "af_sarah", "af_sky",
	"am_adam", "am_echo", "am_eric", "am_fenrir", "am_liam", "am_michael",
	"am_onyx", "am_puck", "am_santa",
	"bf_alice", "bf_emma", "bf_isabella", "bf_lily",
	"bm_daniel", "bm_fable", "bm_george", "bm_lewis",
	"ef_dora", "em_alex", "em_santa",
	"ff_siwis",
	"hf_alpha", "hf_beta", "hm_omega", "hm_psi",
	"if_sara", "im_nicola",
	"jf_alpha", "jf_gongitsune", "jf_nezumi", "jf_tebukuro", "jm_kumo",
	"pf_dora", "pm_alex", "pm_santa",
	"zf_xiaobei", "zf_xiaoni", "zf_xiaoxiao", "zf_xiaoyi",
	"zm_yunjian", "zm_yunxi", "zm_yunxia", "zm_yunyang",
}

var validVoiceSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ValidVoices))
	for _, v := range ValidVoices {
		m[v] = struct{}{}
	}
	return m
}()

// IsValidVoice reports whether voice is in the catalog.
func IsValidVoice(voice string) bool {
	_, ok := validVoiceSet[voice]
	return ok
}

// ValidateVoice returns an InvalidVoice error listing every valid choice
// when voice is not in the catalog.
func ValidateVoice(voice string) error {
	if IsValidVoice(voice) {
		return nil
	}

	var detail strings.Builder
	if s := SuggestVoices(voice); len(s) > 0 {
		fmt.Fprintf(&detail, "Did you mean: %s?\n\n", strings.Join(s, ", "))
	}
	detail.WriteString("Available voices are:")
	for _, v := range ValidVoices {
		detail.WriteString("\n- ")
		detail.WriteString(v)
	}

	return ttypes.NewError(ttypes.ErrorCodeInvalidVoice,
		fmt.Sprintf("Invalid voice name '%s'.", voice), nil).
		WithDetail(detail.String()).
		WithContext("voice", voice)
}

// SuggestVoices returns the closest catalog entries to voice.
func SuggestVoices(voice string) []string {
	if voice == "" {
		return nil
	}
	matches := fuzzy.Find(voice, ValidVoices)

	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
