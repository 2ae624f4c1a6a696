package main

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/kokoro/internal/audio"
	"github.com/dgnsrekt/kokoro/internal/cache"
	"github.com/dgnsrekt/kokoro/internal/kokoro"
	"github.com/dgnsrekt/kokoro/internal/tts"
	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// engine is what the commands need from a loaded model.
type engine interface {
	tts.StreamSynthesizer
	tts.Synthesizer
	tts.VoiceLister
	Close() error
}

// openEngine constructs the inference session. Replaced in tests.
var openEngine = func(cfg kokoro.Config) (engine, error) {
	e, err := kokoro.Open(cfg)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}

// engineConfig builds the engine configuration from viper and the environment.
func engineConfig() (kokoro.Config, error) {
	ec, err := readEnv()
	if err != nil {
		return kokoro.Config{}, err
	}

	lib := viper.GetString("model.onnxruntime_lib")
	if lib == "" {
		lib = ec.OnnxRuntimeLib
	}

	return kokoro.Config{
		ModelPath:         expandPath(viper.GetString("model.path")),
		VoicesPath:        expandPath(viper.GetString("model.voices")),
		LibraryPath:       expandPath(lib),
		Threads:           viper.GetInt("model.threads"),
		VocabPath:         expandPath(viper.GetString("model.vocab")),
		PhonemizerCommand: viper.GetString("phonemizer.command"),
	}, nil
}

// loadEngine checks the model assets and only then constructs the session.
// The returned cleanup closes the engine and the cache.
func loadEngine() (engine, func(), error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := kokoro.CheckAssets(cfg.ModelPath, cfg.VoicesPath); err != nil {
		return nil, nil, err
	}

	cm, err := openCache()
	if err != nil {
		log.Warn("Synthesis cache disabled", "error", err)
	}
	if cm != nil {
		cfg.Cache = cm
	}

	log.Info("Loading ONNX session", "model", cfg.ModelPath, "provider", "CPU")
	e, err := openEngine(cfg)
	if err != nil {
		if cm != nil {
			_ = cm.Close()
		}
		return nil, nil, err
	}
	log.Debug("Engine initialized", "voices", cfg.VoicesPath)

	cleanup := func() {
		if err := e.Close(); err != nil {
			log.Warn("Failed to close engine", "error", err)
		}
		if cm != nil {
			log.Debug("Synthesis cache", "stats", cm.Stats())
			_ = cm.Close()
		}
	}
	return e, cleanup, nil
}

// openCache returns nil when caching is disabled.
func openCache() (*cache.CacheManager, error) {
	if !viper.GetBool("cache.enabled") {
		return nil, nil
	}
	return openCacheStore()
}

// openCacheStore opens the configured cache directory whether or not
// synthesis uses it.
func openCacheStore() (*cache.CacheManager, error) {
	dir := expandPath(viper.GetString("cache.dir"))
	if dir == "" {
		base, err := gap.NewScope(gap.User, "kokoro").CacheDir()
		if err != nil {
			return nil, fmt.Errorf("unable to find cache directory: %w", err)
		}
		dir = filepath.Join(base, "audio")
	}

	cfg := cache.DefaultCacheConfig()
	cfg.DiskPath = dir
	if mb := viper.GetInt64("cache.max_size"); mb > 0 {
		cfg.DiskCapacity = mb * 1024 * 1024
	}
	return cache.NewCacheManager(cfg)
}

// addSynthFlags registers the flags shared by the synthesis commands.
func addSynthFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("speed", ttypes.DefaultSpeed, "speaking rate (0.5 to 2.0)")
	cmd.Flags().String("lang", ttypes.DefaultLanguage, "espeak-ng language tag")
	cmd.Flags().Bool("trim", true, "trim silence around every chunk (--trim=false keeps it)")
}

// synthOptions reads the synthesis options from config, letting flags set
// on cmd take precedence.
func synthOptions(cmd *cobra.Command, voice string) ttypes.SynthOptions {
	opts := ttypes.SynthOptions{
		Voice:    voice,
		Language: viper.GetString("lang"),
		Speed:    viper.GetFloat64("speed"),
		Trim:     viper.GetBool("trim"),
	}

	flags := cmd.Flags()
	if flags.Changed("speed") {
		opts.Speed, _ = flags.GetFloat64("speed")
	}
	if flags.Changed("lang") {
		opts.Language, _ = flags.GetString("lang")
	}
	if flags.Changed("trim") {
		opts.Trim, _ = flags.GetBool("trim")
	}
	return opts.WithDefaults()
}

func encoderConfig() audio.EncoderConfig {
	return audio.EncoderConfig{
		Binary:    viper.GetString("encoder.binary"),
		Codec:     viper.GetString("encoder.codec"),
		Bitrate:   viper.GetString("encoder.bitrate"),
		ExtraArgs: viper.GetString("encoder.extra_args"),
	}
}
