// ABOUTME: audiospy wire protocol package
// ABOUTME: Defines the Hello handshake codec
// Package protocol implements the audiospy wire protocol.
//
// After accepting a TCP connection the server sends one 8-byte Hello message,
// then raw PCM bytes until the connection closes. There is no other framing.
//
//	offset  size  field
//	0       1     version (1)
//	1       1     opcode (1)
//	2       1     sample format (audio.SampleFormat)
//	3       1     channels
//	4       4     sample rate, big-endian
//
// Example:
//
//	msg := protocol.EncodeHello(audio.DefaultConfig())
//	cfg, err := protocol.DecodeHello(msg)
package protocol
