package audio

import "math"

const (
	trimFrameLength = 2048
	trimHopLength   = 512
	trimTopDB       = 60.0

	// powerFloor keeps the dB scale finite for silent frames
	powerFloor = 1e-10
)

// TrimSilence drops leading and trailing frames whose power is more than
// 60 dB below the loudest frame. Frames are centered on multiples of the hop
// length, so the kept range is [first*hop, (last+1)*hop). Audio with no
// energy at all is returned unchanged.
func TrimSilence(samples []float32) []float32 {
	if len(samples) == 0 {
		return samples
	}

	power := framePower(samples)
	peak := powerFloor
	for _, p := range power {
		if p > peak {
			peak = p
		}
	}

	threshold := peak * math.Pow(10, -trimTopDB/10)
	first, last := -1, -1
	for i, p := range power {
		if math.Max(p, powerFloor) > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return samples
	}

	start := first * trimHopLength
	end := (last + 1) * trimHopLength
	if end > len(samples) {
		end = len(samples)
	}
	if start >= end {
		return samples[:0]
	}
	return samples[start:end]
}

// framePower computes the mean square of each centered analysis frame. The
// signal is zero-padded by half a frame on both sides.
func framePower(samples []float32) []float64 {
	n := 1 + len(samples)/trimHopLength
	half := trimFrameLength / 2

	out := make([]float64, n)
	for i := range out {
		start := i*trimHopLength - half
		end := start + trimFrameLength
		if start < 0 {
			start = 0
		}
		if end > len(samples) {
			end = len(samples)
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += float64(s) * float64(s)
		}
		out[i] = sum / trimFrameLength
	}
	return out
}
