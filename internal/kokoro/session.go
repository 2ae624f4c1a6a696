package kokoro

// SampleRate is the native output rate of the Kokoro model.
const SampleRate = 24000

// Session runs one model inference.
type Session interface {
	// Infer returns audio for padded tokens (shape [1, len(tokens)]), a
	// style vector of StyleDim values and a speed multiplier.
	Infer(tokens []int64, style []float32, speed float32) ([]float32, error)

	// Close releases the session.
	Close() error
}
