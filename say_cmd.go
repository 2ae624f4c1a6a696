package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/kokoro/internal/audio"
	"github.com/dgnsrekt/kokoro/internal/tts"
)

const previewWidth = 60

var (
	sayVoice     string
	sayOutput    string
	sayClipboard bool
	sayPlay      bool

	sayCmd = &cobra.Command{
		Use:   "say [text...]",
		Short: "Synthesize one sentence to a WAV file",
		Long: paragraph(fmt.Sprintf("\n%s a single text to a 16-bit WAV file. Without arguments a fixed test sentence is spoken with the %s voice.",
			keyword("Synthesize"), tts.SayVoice)),
		Example: paragraph("kokoro say\nkokoro say \"Hello there\" --voice am_adam -o hello.wav\nkokoro say --clipboard --play"),
		RunE:    runSay,
	}
)

func sayText(args []string) (string, error) {
	if sayClipboard {
		text, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("unable to read clipboard: %w", err)
		}
		return text, nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return tts.SayText, nil
}

func runSay(cmd *cobra.Command, args []string) error {
	if sayClipboard && len(args) > 0 {
		return errors.New("cannot use --clipboard together with text arguments")
	}
	text, err := sayText(args)
	if err != nil {
		return err
	}

	opts := synthOptions(cmd, sayVoice)
	if err := opts.Validate(); err != nil {
		return err
	}

	e, cleanup, err := loadEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info("Generating speech", "text", truncate.StringWithTail(strings.TrimSpace(text), previewWidth, "…"))
	res, err := tts.Say(cmd.Context(), e, text, opts, expandPath(sayOutput))
	if err != nil {
		return err
	}

	pcm := audio.PCM16LE(res.Waveform.Samples)
	log.Info("Audio saved",
		"path", res.OutputPath,
		"length", res.Waveform.Duration().Round(10*time.Millisecond),
		"size", humanize.Bytes(uint64(len(pcm))),
	)

	if sayPlay {
		player, err := newPlayer(res.Waveform.SampleRate)
		if err != nil {
			return fmt.Errorf("unable to open audio device: %w", err)
		}
		defer func() { _ = player.Close() }()
		return player.Play(cmd.Context(), pcm)
	}
	return nil
}

// newPlayer opens the default output device. Replaced in tests.
var newPlayer = func(sampleRate int) (tts.AudioPlayer, error) {
	p, err := audio.NewPlayer(sampleRate)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func init() {
	sayCmd.Flags().StringVar(&sayVoice, "voice", tts.SayVoice, "voice identifier")
	sayCmd.Flags().StringVarP(&sayOutput, "output", "o", tts.DefaultSayOutput(), "output WAV path")
	sayCmd.Flags().BoolVar(&sayClipboard, "clipboard", false, "read the text from the clipboard")
	sayCmd.Flags().BoolVar(&sayPlay, "play", false, "play the audio after writing it")
	addSynthFlags(sayCmd)
}
