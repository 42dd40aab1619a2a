// ABOUTME: TCP listener and dialer seams
// ABOUTME: Keeps blocking socket calls behind narrow interfaces
package transport

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// Listener accepts one connection at a time. net.Listener satisfies it.
type Listener interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

// Dialer opens outbound connections. *net.Dialer satisfies it.
type Dialer interface {
	Dial(network, address string) (net.Conn, error)
}

// Listen binds a TCP listener on all IPv4 interfaces
func Listen(port int) (net.Listener, error) {
	ln, err := net.Listen("tcp4", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, fmt.Errorf("%w: listen: %w", ErrNetwork, err)
	}
	return ln, nil
}

// Dial connects to addr over TCP using d, or a zero net.Dialer when d is nil
func Dial(d Dialer, addr netip.AddrPort) (net.Conn, error) {
	if d == nil {
		d = &net.Dialer{}
	}
	conn, err := d.Dial("tcp", addr.String())
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrNetwork, err)
	}
	return conn, nil
}
