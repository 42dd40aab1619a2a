// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats, session configuration and sample conversion helpers
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// SampleFormat identifies the PCM sample encoding. The value is sent as a
// single byte in the handshake, so every format fits in 8 bits.
type SampleFormat uint8

const (
	FormatU8  SampleFormat = 8
	FormatS16 SampleFormat = 16
	FormatS24 SampleFormat = 24
	FormatS32 SampleFormat = 32
	FormatF32 SampleFormat = 0x80 | 32 // float flag | bit width
)

// Default session configuration used by the server
const (
	DefaultFormat     = FormatS16
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

// BytesPerSample returns the size of one sample, or 0 for unknown formats
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS24:
		return 3
	case FormatS32, FormatF32:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the format is one this module can produce or play
func (f SampleFormat) Valid() bool {
	return f.BytesPerSample() != 0
}

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS24:
		return "s24"
	case FormatS32:
		return "s32"
	case FormatF32:
		return "f32"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// ParseSampleFormat accepts names ("s16", "int16", "f32", "float32") or the
// numeric wire id ("16", "160")
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "u8", "uint8":
		return FormatU8, nil
	case "s16", "int16":
		return FormatS16, nil
	case "s24", "int24":
		return FormatS24, nil
	case "s32", "int32":
		return FormatS32, nil
	case "f32", "float32", "float":
		return FormatF32, nil
	}

	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !SampleFormat(n).Valid() {
		return 0, fmt.Errorf("unknown sample format: %q", s)
	}
	return SampleFormat(n), nil
}

// Config is the session configuration: fixed by the server, learned by the
// client from the handshake
type Config struct {
	Format     SampleFormat
	SampleRate int
	Channels   int
}

// DefaultConfig returns 16-bit PCM, 48000 Hz, stereo
func DefaultConfig() Config {
	return Config{
		Format:     DefaultFormat,
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
	}
}

// FrameSize returns the number of bytes in one frame (one sample per channel)
func (c Config) FrameSize() int {
	return c.Format.BytesPerSample() * c.Channels
}

// BytesFor returns the byte length of the given duration in milliseconds,
// rounded down to whole frames
func (c Config) BytesFor(ms int) int {
	return c.SampleRate * ms / 1000 * c.FrameSize()
}

// Validate checks that the configuration describes a playable stream
func (c Config) Validate() error {
	if !c.Format.Valid() {
		return fmt.Errorf("unsupported sample format: %s", c.Format)
	}
	if c.SampleRate <= 0 || c.SampleRate > math.MaxUint32 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels <= 0 || c.Channels > math.MaxUint8 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	return nil
}

// String renders format/rate/channels with the numeric format id
func (c Config) String() string {
	return fmt.Sprintf("%d/%d/%d", uint8(c.Format), c.SampleRate, c.Channels)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// PutSample writes a 24-bit range sample into dst using the given format
// and returns the number of bytes written. dst must hold BytesPerSample bytes.
func PutSample(dst []byte, f SampleFormat, sample int32) int {
	switch f {
	case FormatU8:
		dst[0] = byte(int8(sample>>16)) ^ 0x80
		return 1
	case FormatS16:
		binary.LittleEndian.PutUint16(dst, uint16(SampleToInt16(sample)))
		return 2
	case FormatS24:
		b := SampleTo24Bit(sample)
		copy(dst, b[:])
		return 3
	case FormatS32:
		binary.LittleEndian.PutUint32(dst, uint32(sample<<8))
		return 4
	case FormatF32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(sample)/float32(Max24Bit+1)))
		return 4
	default:
		return 0
	}
}

// GetSample reads one sample in the given format from src and returns it in
// the 24-bit range. It is the inverse of PutSample.
func GetSample(src []byte, f SampleFormat) int32 {
	switch f {
	case FormatU8:
		return int32(int8(src[0]^0x80)) << 16
	case FormatS16:
		return SampleFromInt16(int16(binary.LittleEndian.Uint16(src)))
	case FormatS24:
		return SampleFrom24Bit([3]byte{src[0], src[1], src[2]})
	case FormatS32:
		return int32(binary.LittleEndian.Uint32(src)) >> 8
	case FormatF32:
		v := float64(math.Float32frombits(binary.LittleEndian.Uint32(src))) * (Max24Bit + 1)
		if v > Max24Bit {
			return Max24Bit
		}
		if v < Min24Bit {
			return Min24Bit
		}
		return int32(v)
	default:
		return 0
	}
}
