package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// Channels is the channel count of every buffer in this package (mono)
	Channels = 1

	// BitDepth is the output PCM bit depth
	BitDepth = 16

	// BytesPerSample is the size of one s16le mono frame
	BytesPerSample = BitDepth / 8 * Channels

	// int16Scale maps 1.0 to the largest positive int16
	int16Scale = 32767
)

// Concat joins chunk sample slices in the order given.
func Concat(chunks [][]float32) []float32 {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}

	out := make([]float32, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Float32ToInt16 scales samples by 32767 and truncates toward zero.
// There is no rounding, dithering or clipping; inputs are assumed to be in
// [-1.0, 1.0].
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = int16(int32(s * int16Scale))
	}
	return out
}

// Int16ToBytesLE serializes samples as interleaved little-endian s16 PCM.
func Int16ToBytesLE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// PCM16LE converts float samples to the byte stream the encoder expects.
func PCM16LE(samples []float32) []byte {
	return Int16ToBytesLE(Float32ToInt16(samples))
}

// Float32ToBytes serializes float samples little-endian, for caching.
func Float32ToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(s))
	}
	return out
}

// BytesToFloat32 is the inverse of Float32ToBytes.
func BytesToFloat32(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("float32 data length %d is not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}

// ValidatePCMData validates that PCM data is aligned to whole s16 samples
func ValidatePCMData(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty PCM data")
	}
	if len(data)%BytesPerSample != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte samples",
			len(data), BytesPerSample)
	}
	return nil
}

// PCMDuration calculates the duration of s16 mono PCM data
func PCMDuration(dataLen, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := dataLen / BytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
