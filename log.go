package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// envConfig holds process-level knobs read straight from the environment.
type envConfig struct {
	Debug          bool   `env:"KOKORO_DEBUG"`
	LogFile        string `env:"KOKORO_LOG_FILE"`
	OnnxRuntimeLib string `env:"ONNXRUNTIME_LIB"`
}

func readEnv() (envConfig, error) {
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return envConfig{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return cfg, nil
}

// setupLog points the default logger at stderr, or at the configured log
// file. The returned closer releases the file.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)

	ec, err := readEnv()
	if err != nil {
		return nil, err
	}

	logFile := ec.LogFile
	if logFile == "" {
		logFile = viper.GetString("log.file")
	}
	if logFile == "" {
		return func() error { return nil }, nil
	}

	logFile, err = homedir.Expand(logFile)
	if err != nil {
		return nil, fmt.Errorf("invalid log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(f)
	log.SetReportTimestamp(true)
	return f.Close, nil
}

// applyLogLevel sets the level once flags have been parsed.
func applyLogLevel() error {
	ec, err := readEnv()
	if err != nil {
		return err
	}
	if debug || ec.Debug {
		log.SetLevel(log.DebugLevel)
		return nil
	}

	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	log.SetLevel(level)
	return nil
}
