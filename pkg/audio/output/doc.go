// ABOUTME: Audio output package for playing raw PCM streams
// ABOUTME: Provides the Device interface with malgo, oto, PortAudio, raw and converting backends
// Package output provides audio playback devices.
//
// Every backend takes the byte stream exactly as it arrives from the server.
// Writes may be partial; callers loop until the whole buffer is taken. Formats
// a backend cannot play are reported as audio.ErrFormat; a Converter wraps
// such backends and plays the stream in a fallback format or rate instead.
//
// Example:
//
//	out, err := output.New(output.BackendOto, "", 0)
//	err = out.Open(audio.DefaultConfig())
//	n, err := out.Write(pcm)
package output
