// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples in the 24-bit range to any supported sample format
package encode

import (
	"fmt"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	format audio.SampleFormat
	bps    int
}

// NewPCM creates a new PCM encoder for the given format
func NewPCM(format audio.SampleFormat) (*PCMEncoder, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unsupported sample format: %s", audio.ErrFormat, format)
	}
	return &PCMEncoder{format: format, bps: format.BytesPerSample()}, nil
}

// Encode converts int32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	return e.EncodeInto(nil, samples), nil
}

// EncodeInto appends the encoded samples to dst
func (e *PCMEncoder) EncodeInto(dst []byte, samples []int32) []byte {
	off := len(dst)
	need := off + len(samples)*e.bps
	if cap(dst) < need {
		grown := make([]byte, off, need)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:need]
	for _, s := range samples {
		off += audio.PutSample(dst[off:], e.format, s)
	}
	return dst
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
