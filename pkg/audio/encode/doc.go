// ABOUTME: Audio encoder package for raw PCM streams
// ABOUTME: Provides the Encoder interface and a PCM implementation for every sample format
// Package encode turns samples into raw PCM bytes.
//
// Encoders accept int32 samples in the 24-bit range.
//
// Example:
//
//	encoder, err := encode.NewPCM(audio.FormatS16)
//	data, err := encoder.Encode(samples)
package encode
