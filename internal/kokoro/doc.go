// Package kokoro wraps the Kokoro v1.0 ONNX text-to-speech model.
//
// An Engine turns text into audio in four steps: the text is phonemized
// with espeak-ng, the phoneme string is split into batches the model can
// accept, each batch is tokenized against the model vocabulary, and one
// inference is run per batch with the selected voice's style vector.
//
// Audio is produced at 24 kHz mono as float32 samples in [-1, 1]. Stream
// emits one chunk per batch in order; Create returns the concatenation.
package kokoro
