package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// pollInterval is how often Play checks for end of playback
const pollInterval = 20 * time.Millisecond

// oto permits a single context per process
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoRate    int
	otoErr     error
)

// Player plays s16le mono PCM through the default output device.
type Player struct {
	context    *oto.Context
	sampleRate int

	mu     sync.Mutex
	closed bool
}

// NewPlayer creates a player for the given sample rate.
func NewPlayer(sampleRate int) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoContext, ready, otoErr = oto.NewContext(op)
		if otoErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", otoErr)
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio device already opened at %d Hz, cannot play %d Hz", otoRate, sampleRate)
	}

	return &Player{context: otoContext, sampleRate: sampleRate}, nil
}

// Play plays pcm and blocks until playback finishes or ctx is done.
func (p *Player) Play(ctx context.Context, pcm []byte) error {
	if err := ValidatePCMData(pcm); err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return errors.New("player is closed")
	}

	// the reader owns its copy of the data for the lifetime of playback
	data := make([]byte, len(pcm))
	copy(data, pcm)

	player := p.context.NewPlayer(bytes.NewReader(data))
	defer func() { _ = player.Close() }()
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close marks the player unusable. The oto context lives for the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
