package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/kokoro/internal/audio"
	"github.com/dgnsrekt/kokoro/internal/tts"
)

// watchDebounce groups the burst of events an editor emits on save.
const watchDebounce = 300 * time.Millisecond

var (
	fileOutput string
	fileWatch  bool

	fileCmd = &cobra.Command{
		Use:   "file <input_file> [voice]",
		Short: "Convert a text file to an M4A audio file",
		Long: paragraph(fmt.Sprintf("\n%s a UTF-8 text or markdown file to speech and encode it with ffmpeg. The output defaults to %s next to the input.",
			keyword("Convert"), keyword("<input>_<voice>.m4a"))),
		Example: paragraph("kokoro file notes.txt\nkokoro file notes.txt af_sarah\nkokoro file chapter.md bm_george --speed 1.2 --watch"),
		Args:    cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return tts.ValidVoices, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: runFile,
	}
)

func runFile(cmd *cobra.Command, args []string) error {
	input := expandPath(args[0])
	voice := viper.GetString("voice")
	if len(args) > 1 {
		voice = args[1]
	}

	job, err := tts.PrepareJob(input, voice, expandPath(fileOutput))
	if err != nil {
		return err
	}

	opts := synthOptions(cmd, job.Voice)
	if err := opts.Validate(); err != nil {
		return err
	}

	encoder, err := audio.NewFFmpegEncoder(encoderConfig())
	if err != nil {
		return err
	}

	e, cleanup, err := loadEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	// each run gets its own progress display
	newConverter := func() *tts.Converter {
		return tts.NewConverter(encoder, opts, newProgress())
	}

	log.Info("Input file", "path", job.InputPath)
	log.Info("Output file", "path", job.OutputPath)
	if err := convertOnce(cmd.Context(), newConverter(), e, job); err != nil {
		return err
	}

	if fileWatch {
		return watchInput(cmd.Context(), newConverter, e, job)
	}
	return nil
}

func convertOnce(ctx context.Context, conv *tts.Converter, synth tts.StreamSynthesizer, job *tts.Job) error {
	log.Debug("Text", "preview", truncate.StringWithTail(job.Text, previewWidth, "…"), "chars", len(job.Text))

	res, err := conv.Convert(ctx, synth, job)
	if err != nil {
		return err
	}

	size := "unknown size"
	if st, err := os.Stat(res.OutputPath); err == nil {
		size = humanize.Bytes(uint64(st.Size())) //nolint:gosec
	}
	log.Info("Conversion successful",
		"output", res.OutputPath,
		"chunks", res.Chunks,
		"length", res.Duration.Round(10*time.Millisecond),
		"size", size,
	)
	return nil
}

// watchInput re-runs the conversion whenever the input file is written.
// Failures are logged and watching continues until ctx is done.
func watchInput(ctx context.Context, newConverter func() *tts.Converter, synth tts.StreamSynthesizer, job *tts.Job) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(job.InputPath)
	if err != nil {
		return fmt.Errorf("unable to resolve input path: %w", err)
	}
	// watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", filepath.Dir(abs), err)
	}
	log.Info("Watching for changes", "path", job.InputPath)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopped watching")
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", "error", err)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.After(watchDebounce)
			}

		case <-pending:
			pending = nil
			rerun(ctx, newConverter(), synth, job)
		}
	}
}

func rerun(ctx context.Context, conv *tts.Converter, synth tts.StreamSynthesizer, job *tts.Job) {
	text, err := tts.ReadInput(job.InputPath)
	if err != nil {
		log.Error("Skipping conversion", "error", err)
		return
	}
	if text == job.Text {
		log.Debug("Input unchanged")
		return
	}

	next := *job
	next.Text = text
	if err := convertOnce(ctx, conv, synth, &next); err != nil {
		log.Error("Conversion failed", "error", err)
		return
	}
	job.Text = text
}

// newProgress draws a bar on interactive terminals and logs otherwise.
func newProgress() tts.Progress {
	if term.IsTerminal(int(os.Stderr.Fd())) { //nolint:gosec
		return tts.NewBarProgress(os.Stderr)
	}
	return tts.NewLogProgress(2 * time.Second)
}

func init() {
	fileCmd.Flags().StringVarP(&fileOutput, "output", "o", "", "output path (default <input>_<voice>.m4a)")
	fileCmd.Flags().BoolVar(&fileWatch, "watch", false, "re-convert whenever the input file changes")
	addSynthFlags(fileCmd)
}
