// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for turning wire bytes into samples
package decode

// Decoder decodes raw audio bytes to PCM int32 samples
type Decoder interface {
	// Decode converts whole frames of audio data to interleaved samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}
