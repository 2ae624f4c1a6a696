package tts

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// barProgress renders a spinner-style bar; the chunk count is unknown up front.
type barProgress struct {
	bar *progressbar.ProgressBar
}

// NewBarProgress draws chunk progress on w, which should be a terminal.
func NewBarProgress(w io.Writer) Progress {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Synthesizing"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &barProgress{bar: bar}
}

func (p *barProgress) Chunk(c ttypes.Chunk, totalSamples int) {
	p.bar.Describe(fmt.Sprintf("Synthesizing (%s of audio)", audioLength(totalSamples, c.SampleRate)))
	_ = p.bar.Add(1)
}

func (p *barProgress) Done() {
	_ = p.bar.Finish()
}

// logProgress reports chunks through the logger at most once per interval.
type logProgress struct {
	sometimes rate.Sometimes
	chunks    int
}

// NewLogProgress logs the first chunk and then at most one line per interval.
func NewLogProgress(interval time.Duration) Progress {
	return &logProgress{sometimes: rate.Sometimes{First: 1, Interval: interval}}
}

func (p *logProgress) Chunk(c ttypes.Chunk, totalSamples int) {
	p.chunks++
	p.sometimes.Do(func() {
		log.Debug("Received chunk", "index", c.Index, "cached", c.Cached,
			"audio", audioLength(totalSamples, c.SampleRate))
	})
}

func (p *logProgress) Done() {
	log.Debug("Stream finished", "chunks", p.chunks)
}

func audioLength(samples, sampleRate int) string {
	if sampleRate <= 0 {
		return "0s"
	}
	d := time.Duration(samples) * time.Second / time.Duration(sampleRate)
	return humanize.FtoaWithDigits(d.Seconds(), 1) + "s"
}
