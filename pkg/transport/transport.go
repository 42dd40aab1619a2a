// ABOUTME: Partial-I/O completion loops over byte streams
// ABOUTME: SendAll and ReceiveExact absorb short writes and short reads
package transport

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNetwork reports a socket failure
	ErrNetwork = errors.New("network error")

	// ErrConnectionClosed reports an orderly close by the peer
	ErrConnectionClosed = errors.New("connection closed by peer")
)

// maxEmptyWrites bounds how many times a writer may accept zero bytes
// without reporting an error before SendAll gives up
const maxEmptyWrites = 100

// SendAll writes p to w, reissuing the write for the unsent suffix until
// every byte has been accepted. The first write error fails with ErrNetwork.
func SendAll(w io.Writer, p []byte) error {
	empty := 0
	for len(p) != 0 {
		n, err := w.Write(p)
		if err != nil {
			return fmt.Errorf("%w: send: %w", ErrNetwork, err)
		}
		if n == 0 {
			empty++
			if empty == maxEmptyWrites {
				return fmt.Errorf("%w: send: %w", ErrNetwork, io.ErrShortWrite)
			}
			continue
		}
		empty = 0
		p = p[n:]
	}
	return nil
}

// ReceiveExact reads from r until buf is full. An orderly close (io.EOF)
// before that fails with ErrConnectionClosed, any other error with ErrNetwork.
func ReceiveExact(r io.Reader, buf []byte) error {
	got := 0
	for got < len(buf) {
		n, err := r.Read(buf[got:])
		got += n
		if got == len(buf) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: received %d of %d bytes", ErrConnectionClosed, got, len(buf))
		}
		if err != nil {
			return fmt.Errorf("%w: receive: %w", ErrNetwork, err)
		}
	}
	return nil
}

// ReceiveN reads exactly n bytes from r into a new buffer
func ReceiveN(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := ReceiveExact(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
