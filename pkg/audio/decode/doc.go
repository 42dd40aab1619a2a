// ABOUTME: Audio decoder package for raw PCM streams
// ABOUTME: Provides the Decoder interface and a PCM implementation for every sample format
// Package decode turns raw PCM bytes into samples.
//
// Decoders output int32 samples in the 24-bit range so that conversion
// between any two sample formats goes through one representation.
//
// Example:
//
//	decoder, err := decode.NewPCM(audio.FormatS24)
//	samples, err := decoder.Decode(audioData)
package decode
