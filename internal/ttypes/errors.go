package ttypes

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per error code. Match with errors.Is.
var (
	// ErrMissingModelFile indicates the model weights or voices file is absent
	ErrMissingModelFile = errors.New("model files not found")

	// ErrInputNotFound indicates the input text file does not exist
	ErrInputNotFound = errors.New("input file not found")

	// ErrInvalidVoice indicates the voice is not in the catalog
	ErrInvalidVoice = errors.New("invalid voice name")

	// ErrEmptyInput indicates the input text is empty after trimming
	ErrEmptyInput = errors.New("input file is empty")

	// ErrNoAudioProduced indicates the stream yielded zero chunks
	ErrNoAudioProduced = errors.New("no audio data received from stream")

	// ErrEncoderNotFound indicates the encoder binary is not on PATH
	ErrEncoderNotFound = errors.New("encoder command not found")

	// ErrEncoderFailed indicates the encoder exited with a nonzero status
	ErrEncoderFailed = errors.New("encoder conversion failed")

	// ErrSynthesisFailed indicates the engine failed to produce audio
	ErrSynthesisFailed = errors.New("text synthesis failed")

	// ErrInvalidOption indicates a bad option value
	ErrInvalidOption = errors.New("invalid option")
)

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Asset errors
	ErrorCodeMissingModelFile ErrorCode = "MISSING_MODEL_FILE"

	// Input errors
	ErrorCodeInputNotFound ErrorCode = "INPUT_NOT_FOUND"
	ErrorCodeInvalidVoice  ErrorCode = "INVALID_VOICE"
	ErrorCodeEmptyInput    ErrorCode = "EMPTY_INPUT"
	ErrorCodeInvalidOption ErrorCode = "INVALID_OPTION"

	// Synthesis errors
	ErrorCodeNoAudioProduced ErrorCode = "NO_AUDIO_PRODUCED"
	ErrorCodeSynthesisFailed ErrorCode = "SYNTHESIS_FAILED"

	// Encoder errors
	ErrorCodeEncoderNotFound ErrorCode = "ENCODER_NOT_FOUND"
	ErrorCodeEncoderFailed   ErrorCode = "ENCODER_FAILED"
)

var sentinels = map[ErrorCode]error{
	ErrorCodeMissingModelFile: ErrMissingModelFile,
	ErrorCodeInputNotFound:    ErrInputNotFound,
	ErrorCodeInvalidVoice:     ErrInvalidVoice,
	ErrorCodeEmptyInput:       ErrEmptyInput,
	ErrorCodeInvalidOption:    ErrInvalidOption,
	ErrorCodeNoAudioProduced:  ErrNoAudioProduced,
	ErrorCodeSynthesisFailed:  ErrSynthesisFailed,
	ErrorCodeEncoderNotFound:  ErrEncoderNotFound,
	ErrorCodeEncoderFailed:    ErrEncoderFailed,
}

// Error is a pipeline error with a code, a human-readable message and an
// optional multi-line detail block (valid voices, encoder stderr).
type Error struct {
	Code    ErrorCode
	Message string
	Detail  string
	Cause   error
	Context map[string]interface{}
}

// NewError creates a new error with context
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Code]; ok && s == target {
		return true
	}
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// WithDetail attaches a detail block printed below the message.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
