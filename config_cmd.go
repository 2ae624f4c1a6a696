package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# Kokoro model assets
model:
  # ONNX model file
  path: "kokoro-v1.0.int8.onnx"
  # voice style archive (npz)
  voices: "voices-v1.0.bin"
  # onnxruntime shared library (or set ONNXRUNTIME_LIB)
  onnxruntime_lib: ""
  # intra-op threads, 0 lets onnxruntime decide
  threads: 0
  # optional phoneme vocabulary (JSON)
  vocab: ""

# default voice for "kokoro file"
voice: "af_nicole"
# espeak-ng language tag
lang: "en-us"
# speaking rate (0.5 to 2.0)
speed: 1.0
# trim silence around every chunk
trim: true

phonemizer:
  command: "espeak-ng"

# ffmpeg settings for M4A output
encoder:
  binary: "ffmpeg"
  codec: "aac"
  bitrate: "128k"
  extra_args: ""

# on-disk cache of synthesized chunks
cache:
  enabled: false
  # defaults to the user cache directory
  dir: ""
  # megabytes
  max_size: 512

log:
  level: "info"
  file: ""
`

var (
	configCmd = &cobra.Command{
		Use:     "config",
		Hidden:  false,
		Short:   "Edit the kokoro config file",
		Long:    paragraph(fmt.Sprintf("\n%s the kokoro config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
		Example: paragraph("kokoro config\nkokoro config --config path/to/config.yml\nkokoro config show"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := ensureConfigFile(); err != nil {
				return err
			}

			c, err := editor.Cmd("Kokoro", configFile)
			if err != nil {
				return fmt.Errorf("unable to set config file: %w", err)
			}
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("unable to run command: %w", err)
			}

			fmt.Println("Wrote config file to:", configFile)
			return nil
		},
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSettings(cmd.OutOrStdout())
		},
	}
)

// writeSettings prints the merged defaults, config file and environment.
func writeSettings(w io.Writer) error {
	b, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("unable to encode settings: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
