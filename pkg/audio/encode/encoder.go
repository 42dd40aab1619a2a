// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for turning samples into wire bytes
package encode

// Encoder encodes PCM int32 samples to raw audio bytes
type Encoder interface {
	// Encode converts interleaved samples to audio data
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
