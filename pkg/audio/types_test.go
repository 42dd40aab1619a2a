// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion, format and config helpers
package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"negative", -100 << 8, -100},
		{"24bit positive", 1000000, 3906}, // 1000000 >> 8 = 3906
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleTo24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleTo24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative", [3]byte{0x00, 0xFF, 0xFF}, -256},
		{"max positive", [3]byte{0xFF, 0xFF, 0x7F}, Max24Bit},
		{"max negative", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestRoundTrip16Bit(t *testing.T) {
	// Test that 16-bit samples survive round-trip conversion
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}

	for _, original := range samples {
		sample32 := SampleFromInt16(original)
		result := SampleToInt16(sample32)
		if result != original {
			t.Errorf("round-trip failed: %d -> %d -> %d", original, sample32, result)
		}
	}
}

func TestRoundTrip24Bit(t *testing.T) {
	// Test that 24-bit samples survive round-trip conversion
	samples := []int32{0, 100000, -100000, Max24Bit, Min24Bit}

	for _, original := range samples {
		bytes := SampleTo24Bit(original)
		result := SampleFrom24Bit(bytes)
		// Mask to 24-bit for comparison
		expected := original & 0xFFFFFF
		if expected&0x800000 != 0 {
			expected |= ^0xFFFFFF
		}
		if result != expected {
			t.Errorf("round-trip failed: %d -> %v -> %d (expected %d)", original, bytes, result, expected)
		}
	}
}

func TestPutSample(t *testing.T) {
	tests := []struct {
		name     string
		format   SampleFormat
		input    int32
		expected []byte
	}{
		{"s16 positive", FormatS16, 0x123456, []byte{0x34, 0x12}},
		{"s16 negative", FormatS16, -256, []byte{0xFF, 0xFF}},
		{"s24", FormatS24, 0x123456, []byte{0x56, 0x34, 0x12}},
		{"s32", FormatS32, 0x123456, []byte{0x00, 0x56, 0x34, 0x12}},
		{"u8 zero", FormatU8, 0, []byte{0x80}},
		{"u8 max", FormatU8, Max24Bit, []byte{0xFF}},
		{"f32 zero", FormatF32, 0, []byte{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.format.BytesPerSample())
			n := PutSample(dst, tt.format, tt.input)
			if n != len(tt.expected) {
				t.Fatalf("expected %d bytes, got %d", len(tt.expected), n)
			}
			for i := range tt.expected {
				if dst[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, dst)
					break
				}
			}
		})
	}
}

func TestParseSampleFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected SampleFormat
		wantErr  bool
	}{
		{"s16", FormatS16, false},
		{"INT16", FormatS16, false},
		{"16", FormatS16, false},
		{"f32", FormatF32, false},
		{"160", FormatF32, false},
		{"u8", FormatU8, false},
		{"s24", FormatS24, false},
		{"int32", FormatS32, false},
		{"17", 0, true},
		{"mp3", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseSampleFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Format != FormatS16 || cfg.SampleRate != 48000 || cfg.Channels != 2 {
		t.Fatalf("unexpected default config: %+v", cfg)
	}
	if cfg.String() != "16/48000/2" {
		t.Errorf("expected 16/48000/2, got %s", cfg.String())
	}
	if cfg.FrameSize() != 4 {
		t.Errorf("expected frame size 4, got %d", cfg.FrameSize())
	}
	if cfg.BytesFor(20) != 960*4 {
		t.Errorf("expected %d bytes for 20ms, got %d", 960*4, cfg.BytesFor(20))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	invalid := []Config{
		{Format: 17, SampleRate: 48000, Channels: 2},
		{Format: FormatS16, SampleRate: 0, Channels: 2},
		{Format: FormatS16, SampleRate: 48000, Channels: 0},
		{Format: FormatS16, SampleRate: 48000, Channels: 256},
	}
	for _, c := range invalid {
		if err := c.Validate(); err == nil {
			t.Errorf("expected %+v to be invalid", c)
		}
	}
}

func TestGetSampleInvertsPutSample(t *testing.T) {
	// Multiples of 1<<16 survive every format, including u8
	common := []int32{0, 5 << 16, -7 << 16, 127 << 16, Min24Bit}
	formats := []SampleFormat{FormatU8, FormatS16, FormatS24, FormatS32, FormatF32}

	for _, f := range formats {
		buf := make([]byte, f.BytesPerSample())
		for _, want := range common {
			PutSample(buf, f, want)
			if got := GetSample(buf, f); got != want {
				t.Errorf("%s: GetSample(PutSample(%d)) = %d", f, want, got)
			}
		}
	}

	// Full 24-bit precision formats
	for _, f := range []SampleFormat{FormatS24, FormatS32, FormatF32} {
		buf := make([]byte, 4)
		for _, want := range []int32{Max24Bit, Min24Bit, 1, -1, 123456} {
			PutSample(buf, f, want)
			if got := GetSample(buf, f); got != want {
				t.Errorf("%s: GetSample(PutSample(%d)) = %d", f, want, got)
			}
		}
	}
}

func TestGetSampleClampsFloat(t *testing.T) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(1.5))
	if got := GetSample(buf, FormatF32); got != Max24Bit {
		t.Errorf("expected clamp to %d, got %d", Max24Bit, got)
	}
	binary.LittleEndian.PutUint32(buf, math.Float32bits(-2))
	if got := GetSample(buf, FormatF32); got != Min24Bit {
		t.Errorf("expected clamp to %d, got %d", Min24Bit, got)
	}
}
