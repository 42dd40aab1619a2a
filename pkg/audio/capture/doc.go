// ABOUTME: Audio capture package
// ABOUTME: Provides the Device interface with malgo, tone, file and sample source backends
// Package capture provides audio input devices for the audiospy server.
//
// Backends:
//   - Malgo: default system input via miniaudio
//   - Tone: 440Hz sine generator
//   - File: MP3 or FLAC file decoded to PCM
//   - Source: any SampleSource, encoded to the session format
//
// Example:
//
//	dev := capture.NewTone(true)
//	cfg := audio.DefaultConfig()
//	if err := dev.Open(&cfg); err != nil { ... }
//	frame, err := dev.Read()
package capture
