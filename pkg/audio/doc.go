// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Config, SampleFormat, device errors and the byte ring buffer
// Package audio provides the audio types shared by the audiospy server and client.
//
// This package defines:
//   - SampleFormat: PCM sample encoding, one byte on the wire
//   - Config: session configuration (format, sample rate, channels)
//   - ErrDevice / ErrFormat: device error sentinels
//   - RingBuffer: byte ring between device callbacks and blocking reads/writes
//
// Example:
//
//	cfg := audio.DefaultConfig() // s16, 48000 Hz, 2 channels
//	period := cfg.BytesFor(20)   // bytes in 20ms of audio
package audio
