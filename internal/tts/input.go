package tts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgnsrekt/kokoro/internal/ttypes"
)

// Job is a validated conversion request.
type Job struct {
	InputPath  string
	OutputPath string
	Voice      string
	Text       string
}

// PrepareJob validates a conversion request in order: the input file must
// exist, the voice must be in the catalog and the text must not be empty.
// An empty outputPath is derived from the input path and voice.
func PrepareJob(inputPath, voice, outputPath string) (*Job, error) {
	if voice == "" {
		voice = DefaultVoice
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ttypes.NewError(ttypes.ErrorCodeInputNotFound,
				fmt.Sprintf("Input file '%s' not found.", inputPath), nil).
				WithContext("path", inputPath)
		}
		return nil, ttypes.NewError(ttypes.ErrorCodeInputNotFound,
			fmt.Sprintf("Cannot access input file '%s'", inputPath), err)
	}
	if info.IsDir() {
		return nil, ttypes.NewError(ttypes.ErrorCodeInputNotFound,
			fmt.Sprintf("Input path '%s' is a directory.", inputPath), nil)
	}

	if err := ValidateVoice(voice); err != nil {
		return nil, err
	}

	text, err := ReadInput(inputPath)
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = OutputPath(inputPath, voice)
	}

	return &Job{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Voice:      voice,
		Text:       text,
	}, nil
}

// ReadInput loads, normalizes and trims the text of path. Markdown files
// are reduced to plain text first.
func ReadInput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ttypes.NewError(ttypes.ErrorCodeInputNotFound,
			fmt.Sprintf("Error reading input file '%s'", path), err)
	}

	text := norm.NFKC.String(string(data))
	if IsMarkdown(path) {
		text = MarkdownToText(text)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ttypes.NewError(ttypes.ErrorCodeEmptyInput,
			fmt.Sprintf("Input file '%s' is empty.", path), nil)
	}
	return text, nil
}
