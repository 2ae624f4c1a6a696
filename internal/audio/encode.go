package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/kokoro/internal/ttypes"
	"github.com/mattn/go-shellwords"
)

// EncoderConfig selects the encoder binary and output codec.
type EncoderConfig struct {
	// Binary is the encoder executable, looked up on PATH (default "ffmpeg")
	Binary string

	// Codec is the output audio codec (default "aac")
	Codec string

	// Bitrate is the output bitrate (default "128k")
	Bitrate string

	// ExtraArgs is a shell-word string inserted before the output path
	ExtraArgs string
}

// DefaultEncoderConfig returns the AAC/M4A configuration.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Binary:  "ffmpeg",
		Codec:   "aac",
		Bitrate: "128k",
	}
}

// FFmpegEncoder pipes raw s16le mono PCM into an ffmpeg subprocess.
type FFmpegEncoder struct {
	config EncoderConfig
	extra  []string
}

// NewFFmpegEncoder creates an encoder, filling unset fields with defaults.
func NewFFmpegEncoder(config EncoderConfig) (*FFmpegEncoder, error) {
	def := DefaultEncoderConfig()
	if config.Binary == "" {
		config.Binary = def.Binary
	}
	if config.Codec == "" {
		config.Codec = def.Codec
	}
	if config.Bitrate == "" {
		config.Bitrate = def.Bitrate
	}

	var extra []string
	if strings.TrimSpace(config.ExtraArgs) != "" {
		args, err := shellwords.Parse(config.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parse encoder extra args: %w", err)
		}
		extra = args
	}

	return &FFmpegEncoder{config: config, extra: extra}, nil
}

// Args returns the full encoder argument list for an output path.
func (e *FFmpegEncoder) Args(sampleRate int, outputPath string) []string {
	args := []string{
		"-f", "s16le", // signed 16-bit little-endian input
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-i", "pipe:0",
		"-c:a", e.config.Codec,
		"-b:a", e.config.Bitrate,
		"-vn",
		"-y",
	}
	args = append(args, e.extra...)
	return append(args, outputPath)
}

// Encode runs the encoder with pcm on stdin and blocks until it exits.
func (e *FFmpegEncoder) Encode(ctx context.Context, pcm []byte, sampleRate int, outputPath string) error {
	if err := ValidatePCMData(pcm); err != nil {
		return fmt.Errorf("invalid pcm input: %w", err)
	}

	binPath, err := exec.LookPath(e.config.Binary)
	if err != nil {
		return ttypes.NewError(ttypes.ErrorCodeEncoderNotFound,
			fmt.Sprintf("'%s' command not found", e.config.Binary), err).
			WithDetail(fmt.Sprintf("Please ensure %s is installed and in your system's PATH (e.g., sudo apt install %s).",
				e.config.Binary, e.config.Binary))
	}

	args := e.Args(sampleRate, outputPath)
	log.Debug("Starting encoder", "binary", binPath, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, binPath, args...)
	// stdin is attached before start so the whole buffer is available
	cmd.Stdin = bytes.NewReader(pcm)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("encoder cancelled: %w", ctx.Err())
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			return ttypes.NewError(ttypes.ErrorCodeEncoderFailed,
				fmt.Sprintf("Error during %s conversion (return code %d)", e.config.Binary, code), err).
				WithDetail(stderr.String()).
				WithContext("exit_code", code)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return ttypes.NewError(ttypes.ErrorCodeEncoderNotFound,
				fmt.Sprintf("'%s' command not found", e.config.Binary), err)
		}
		return fmt.Errorf("unable to run encoder: %w", err)
	}

	return nil
}
