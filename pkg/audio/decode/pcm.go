// ABOUTME: PCM audio decoder
// ABOUTME: Decodes any supported sample format to int32 samples in the 24-bit range
package decode

import (
	"fmt"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	format audio.SampleFormat
	bps    int
}

// NewPCM creates a new PCM decoder for the given format
func NewPCM(format audio.SampleFormat) (*PCMDecoder, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unsupported sample format: %s", audio.ErrFormat, format)
	}
	return &PCMDecoder{format: format, bps: format.BytesPerSample()}, nil
}

// Decode converts PCM bytes to int32 samples. len(data) must be a multiple
// of the sample size.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	return d.DecodeInto(nil, data)
}

// DecodeInto appends the decoded samples to dst
func (d *PCMDecoder) DecodeInto(dst []int32, data []byte) ([]int32, error) {
	if len(data)%d.bps != 0 {
		return dst, fmt.Errorf("partial %s sample: %d bytes", d.format, len(data))
	}
	for i := 0; i < len(data); i += d.bps {
		dst = append(dst, audio.GetSample(data[i:i+d.bps], d.format))
	}
	return dst, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
