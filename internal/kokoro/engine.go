package kokoro

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/kokoro/internal/audio"
	"github.com/dgnsrekt/kokoro/internal/cache"
	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

const (
	// DefaultModelPath is the quantized model file name
	DefaultModelPath = "kokoro-v1.0.int8.onnx"

	// DefaultVoicesPath is the voice embeddings file name
	DefaultVoicesPath = "voices-v1.0.bin"
)

// AudioCache stores synthesized batches. *cache.CacheManager satisfies it.
type AudioCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Config selects the model assets and runtime for Open.
type Config struct {
	ModelPath  string
	VoicesPath string

	// LibraryPath is the ONNX Runtime shared library; empty uses the
	// platform default search
	LibraryPath string

	// Threads sets intra-op parallelism; zero leaves it to the runtime
	Threads int

	// VocabPath is an optional Kokoro config.json overriding the bundled vocab
	VocabPath string

	// PhonemizerCommand is the espeak-ng command line
	PhonemizerCommand string

	// Cache is optional
	Cache AudioCache
}

// Engine synthesizes speech with one inference session. It is not safe for
// concurrent Stream calls.
type Engine struct {
	session    Session
	voices     *VoicePack
	vocab      Vocab
	phonemizer Phonemizer
	cache      AudioCache

	// assets scopes cache keys to the loaded model, voices and vocab
	assets string
}

// CheckAssets returns a MissingModelFile error if either file is absent.
func CheckAssets(modelPath, voicesPath string) error {
	var missing []string
	for _, p := range []string{modelPath, voicesPath} {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return ttypes.NewError(ttypes.ErrorCodeMissingModelFile,
		"Model files not found.", nil).
		WithDetail(fmt.Sprintf("Please download '%s' and '%s'.", modelPath, voicesPath)).
		WithContext("missing", missing)
}

// Open loads the model assets and creates an ONNX Runtime session.
func Open(cfg Config) (*Engine, error) {
	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModelPath
	}
	if cfg.VoicesPath == "" {
		cfg.VoicesPath = DefaultVoicesPath
	}
	if err := CheckAssets(cfg.ModelPath, cfg.VoicesPath); err != nil {
		return nil, err
	}

	vocab, err := LoadVocab(cfg.VocabPath)
	if err != nil {
		return nil, err
	}

	phonemizer, err := NewEspeakPhonemizer(cfg.PhonemizerCommand)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	voices, err := LoadVoicePack(cfg.VoicesPath)
	if err != nil {
		return nil, err
	}

	session, err := newONNXSession(cfg.ModelPath, cfg.LibraryPath, cfg.Threads)
	if err != nil {
		return nil, err
	}
	log.Debug("Engine loaded", "model", cfg.ModelPath, "voices", len(voices.Names()), "took", time.Since(start))

	e := New(session, voices, vocab, phonemizer, cfg.Cache)
	e.assets = assetFingerprint(cfg.ModelPath, cfg.VoicesPath) + "|" + e.assets
	return e, nil
}

// assetFingerprint identifies model files by absolute path, size and
// modification time.
func assetFingerprint(paths ...string) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if info, err := os.Stat(p); err == nil {
			parts = append(parts, fmt.Sprintf("%s:%d:%d", abs, info.Size(), info.ModTime().UnixNano()))
		} else {
			parts = append(parts, abs)
		}
	}
	return strings.Join(parts, "|")
}

// New assembles an engine from its parts. c may be nil.
func New(session Session, voices *VoicePack, vocab Vocab, phonemizer Phonemizer, c AudioCache) *Engine {
	return &Engine{
		session:    session,
		voices:     voices,
		vocab:      vocab,
		phonemizer: phonemizer,
		cache:      c,
		assets:     vocab.Fingerprint(),
	}
}

// Voices returns the identifiers in the voices file.
func (e *Engine) Voices() []string {
	return e.voices.Names()
}

// SampleRate returns the model's output rate.
func (e *Engine) SampleRate() int {
	return SampleRate
}

// Create synthesizes the whole text into one waveform.
func (e *Engine) Create(ctx context.Context, text string, opts ttypes.SynthOptions) (ttypes.Waveform, error) {
	chunks, errc := e.Stream(ctx, text, opts)

	var parts [][]float32
	for chunk := range chunks {
		parts = append(parts, chunk.Samples)
	}
	if err := <-errc; err != nil {
		return ttypes.Waveform{}, err
	}

	return ttypes.Waveform{Samples: audio.Concat(parts), SampleRate: SampleRate}, nil
}

// Stream synthesizes text one phoneme batch at a time. Chunks arrive in
// text order on the first channel; after it closes the second channel
// yields at most one error.
func (e *Engine) Stream(ctx context.Context, text string, opts ttypes.SynthOptions) (<-chan ttypes.Chunk, <-chan error) {
	chunks := make(chan ttypes.Chunk)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		if err := e.stream(ctx, text, opts, chunks); err != nil {
			errc <- err
		}
	}()

	return chunks, errc
}

func (e *Engine) stream(ctx context.Context, text string, opts ttypes.SynthOptions, out chan<- ttypes.Chunk) error {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}
	if _, err := e.voices.Style(opts.Voice, 0); err != nil {
		return err
	}

	phonemes, err := e.phonemizer.Phonemize(ctx, text, opts.Language)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ttypes.NewError(ttypes.ErrorCodeSynthesisFailed, "Failed to phonemize text", err)
	}

	batches := SplitPhonemes(phonemes, MaxPhonemeLength)
	log.Debug("Phonemes batched", "phonemes", len([]rune(phonemes)), "batches", len(batches), "voice", opts.Voice)

	index := 0
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		samples, cached, err := e.synthesizeBatch(batch, opts)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			continue
		}
		if opts.Trim {
			samples = audio.TrimSilence(samples)
		}
		log.Debug("Batch synthesized", "index", index, "samples", len(samples), "cached", cached, "took", time.Since(start))

		chunk := ttypes.Chunk{
			Index:      index,
			Samples:    samples,
			SampleRate: SampleRate,
			Phonemes:   batch,
			Cached:     cached,
		}
		select {
		case out <- chunk:
			index++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// synthesizeBatch runs one inference, consulting the cache first.
func (e *Engine) synthesizeBatch(batch string, opts ttypes.SynthOptions) ([]float32, bool, error) {
	var key string
	if e.cache != nil {
		key = cache.GenerateCacheKey(e.assets, batch, opts.Voice, opts.Speed, opts.Language)
		if data, ok := e.cache.Get(key); ok {
			samples, err := audio.BytesToFloat32(data)
			if err == nil {
				return samples, true, nil
			}
			log.Debug("Discarding unreadable cache entry", "error", err)
			_ = e.cache.Delete(key)
		}
	}

	tokens := e.vocab.Tokenize(batch)
	if len(tokens) == 0 {
		return nil, false, nil
	}
	if len(tokens) > MaxPhonemeLength {
		log.Warn("Phoneme batch truncated", "tokens", len(tokens), "max", MaxPhonemeLength)
		tokens = tokens[:MaxPhonemeLength]
	}

	style, err := e.voices.Style(opts.Voice, len(tokens))
	if err != nil {
		return nil, false, err
	}

	padded := make([]int64, 0, len(tokens)+2)
	padded = append(padded, 0)
	padded = append(padded, tokens...)
	padded = append(padded, 0)

	samples, err := e.session.Infer(padded, style, float32(opts.Speed))
	if err != nil {
		return nil, false, ttypes.NewError(ttypes.ErrorCodeSynthesisFailed, "Inference failed", err).
			WithContext("phonemes", batch)
	}

	if e.cache != nil {
		if err := e.cache.Put(key, audio.Float32ToBytes(samples)); err != nil {
			log.Debug("Cache write failed", "error", err)
		}
	}
	return samples, false, nil
}

// Close releases the inference session.
func (e *Engine) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

var _ AudioCache = (*cache.CacheManager)(nil)
