// Package main provides the entry point for the kokoro CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/kokoro/internal/kokoro"
	"github.com/dgnsrekt/kokoro/internal/tts"
	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool

	// closeLog releases the log file opened for this run
	closeLog = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "kokoro",
		Short: "Offline text-to-speech with the Kokoro ONNX model",
		Long: paragraph(
			fmt.Sprintf("\nTurn text into speech %s, with the Kokoro model running on the CPU.", keyword("offline")),
		),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv()
			if cmd.Flags().Changed("config") {
				if err := readConfigFile(configFile); err != nil {
					return err
				}
			} else if err := tryLoadConfigFromDefaultPlaces(); err != nil {
				return err
			}

			closer, err := setupLog()
			if err != nil {
				return err
			}
			closeLog = closer
			return applyLogLevel()
		},
	}
)

// renderError writes err the way every command reports failures: a one-line
// message followed by the detail block, if any.
func renderError(w io.Writer, err error) {
	var e *ttypes.Error
	if errors.As(err, &e) {
		fmt.Fprintf(w, "%s %s\n", errorLabel("Error:"), e.Error())
		if e.Detail != "" {
			fmt.Fprintln(w, strings.TrimRight(e.Detail, "\n"))
		}
		if ttypes.CodeOf(err) == ttypes.ErrorCodeMissingModelFile {
			fmt.Fprintln(w, faint("Execution aborted."))
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(w, "%s interrupted\n", errorLabel("Error:"))
		return
	}
	fmt.Fprintf(w, "%s %v\n", errorLabel("Error:"), err)
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = closeLog()

	if err != nil {
		renderError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// a missing .env is fine
	_ = godotenv.Load()

	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default kokoro.yml in the user config directory)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("model", kokoro.DefaultModelPath, "path to the Kokoro ONNX model")
	rootCmd.PersistentFlags().String("voices", kokoro.DefaultVoicesPath, "path to the voices file")

	_ = viper.BindPFlag("model.path", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("model.voices", rootCmd.PersistentFlags().Lookup("voices"))

	setDefaults()

	rootCmd.AddCommand(voicesCmd, sayCmd, fileCmd, configCmd, cacheCmd, manCmd)
}

func setDefaults() {
	viper.SetDefault("model.path", kokoro.DefaultModelPath)
	viper.SetDefault("model.voices", kokoro.DefaultVoicesPath)
	viper.SetDefault("model.onnxruntime_lib", "")
	viper.SetDefault("model.threads", 0)
	viper.SetDefault("model.vocab", "")

	viper.SetDefault("voice", tts.DefaultVoice)
	viper.SetDefault("lang", ttypes.DefaultLanguage)
	viper.SetDefault("speed", ttypes.DefaultSpeed)
	viper.SetDefault("trim", true)

	viper.SetDefault("phonemizer.command", kokoro.DefaultPhonemizerCommand)

	viper.SetDefault("encoder.binary", "ffmpeg")
	viper.SetDefault("encoder.codec", "aac")
	viper.SetDefault("encoder.bitrate", "128k")
	viper.SetDefault("encoder.extra_args", "")

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.max_size", 512)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
}

// bindEnv lets KOKORO_* variables override config keys, e.g.
// KOKORO_MODEL_PATH for model.path.
func bindEnv() {
	viper.SetEnvPrefix("kokoro")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// readConfigFile switches viper to an explicit config file. A file that
// does not exist yet is left for the config command to create.
func readConfigFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	log.Debug("Using configuration file", "path", path)
	return nil
}

// tryLoadConfigFromDefaultPlaces reads kokoro.yml from the user config
// directories, writing the default file on first run.
func tryLoadConfigFromDefaultPlaces() error {
	scope := gap.NewScope(gap.User, "kokoro")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return fmt.Errorf("could not find configuration directory: %w", err)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "kokoro")}, dirs...)
	}

	if c := os.Getenv("KOKORO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("kokoro")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		configFile = used
		log.Debug("Using configuration file", "path", used)
		return nil
	}

	configFile = filepath.Join(dirs[0], "kokoro.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
	return nil
}
