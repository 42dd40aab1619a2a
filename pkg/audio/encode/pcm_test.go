// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests encoding of every sample format
package encode

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/decode"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name    string
		format  audio.SampleFormat
		wantErr bool
	}{
		{name: "u8", format: audio.FormatU8},
		{name: "s16", format: audio.FormatS16},
		{name: "s24", format: audio.FormatS24},
		{name: "s32", format: audio.FormatS32},
		{name: "f32", format: audio.FormatF32},
		{name: "unknown", format: audio.SampleFormat(12), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.wantErr {
				if !errors.Is(err, audio.ErrFormat) {
					t.Errorf("expected ErrFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var _ Encoder = encoder
		})
	}
}

func TestPCMEncode16Bit(t *testing.T) {
	encoder, _ := NewPCM(audio.FormatS16)

	samples := []int32{
		0,
		audio.Max24Bit,
		audio.Min24Bit,
		256 << 8,
	}
	out, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(out))
	}

	want := []int16{0, 32767, -32768, 256}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[i*2:]))
		if got != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestPCMEncode24Bit(t *testing.T) {
	encoder, _ := NewPCM(audio.FormatS24)

	out, _ := encoder.Encode([]int32{audio.Max24Bit, audio.Min24Bit})
	want := []byte{0xFF, 0xFF, 0x7F, 0x00, 0x00, 0x80}
	if string(out) != string(want) {
		t.Errorf("expected % x, got % x", want, out)
	}
}

func TestPCMEncodeFloat(t *testing.T) {
	encoder, _ := NewPCM(audio.FormatF32)

	out, _ := encoder.Encode([]int32{audio.Min24Bit, 0})
	if v := math.Float32frombits(binary.LittleEndian.Uint32(out)); v != -1 {
		t.Errorf("expected -1.0, got %v", v)
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(out[4:])); v != 0 {
		t.Errorf("expected 0, got %v", v)
	}
}

func TestPCMEncodeIntoAppends(t *testing.T) {
	encoder, _ := NewPCM(audio.FormatU8)

	out := encoder.EncodeInto([]byte{0xAA}, []int32{0, 0})
	if string(out) != string([]byte{0xAA, 0x80, 0x80}) {
		t.Errorf("unexpected output % x", out)
	}
}

func TestPCMRoundTripThroughDecoder(t *testing.T) {
	// 16-bit aligned values survive every format
	samples := []int32{0, 1 << 16, -(1 << 16), 100 << 16, -(100 << 16)}

	for _, f := range []audio.SampleFormat{
		audio.FormatU8, audio.FormatS16, audio.FormatS24, audio.FormatS32, audio.FormatF32,
	} {
		encoder, _ := NewPCM(f)
		decoder, _ := decode.NewPCM(f)

		data, _ := encoder.Encode(samples)
		got, err := decoder.Decode(data)
		if err != nil {
			t.Fatalf("%s: decode failed: %v", f, err)
		}
		for i := range samples {
			if got[i] != samples[i] {
				t.Errorf("%s sample %d: expected %d, got %d", f, i, samples[i], got[i])
			}
		}
	}
}
