// ABOUTME: Positional argument parsing for the audiospy commands
// ABOUTME: Strict decimal port numbers and dotted-quad IPv4 literals
package config

import (
	"errors"
	"net/netip"
)

// ErrConfig marks invalid arguments or configuration values
var ErrConfig = errors.New("configuration error")

// ArgError is a bad command-line argument. Its text is the one-line message
// shown to the user; it matches ErrConfig.
type ArgError string

func (e ArgError) Error() string { return string(e) }

func (e ArgError) Is(target error) bool { return target == ErrConfig }

const (
	errBadPort = ArgError("bad port number")
	errBadIP   = ArgError("bad IP address")
)

// ParsePort accepts a decimal number in 1..65535 with no sign or spaces
func ParsePort(s string) (int, error) {
	if s == "" {
		return 0, errBadPort
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, errBadPort
		}
		n = n*10 + int(c-'0')
		if n > 0xffff {
			return 0, errBadPort
		}
	}
	if n == 0 {
		return 0, errBadPort
	}
	return n, nil
}

// ParseIPv4 accepts exactly four dot-separated groups of one to three
// decimal digits, each at most 255. Leading zeros are decimal, not octal.
func ParseIPv4(s string) (netip.Addr, error) {
	var (
		addr  [4]byte
		group int
		value int
		ndig  int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9' && ndig < 3:
			value = value*10 + int(c-'0')
			if value > 255 {
				return netip.Addr{}, errBadIP
			}
			ndig++
		case c == '.' && ndig > 0 && group < 3:
			addr[group] = byte(value)
			group++
			value, ndig = 0, 0
		default:
			return netip.Addr{}, errBadIP
		}
	}
	if group != 3 || ndig == 0 {
		return netip.Addr{}, errBadIP
	}
	addr[3] = byte(value)
	return netip.AddrFrom4(addr), nil
}

// ParseAddr combines ParseIPv4 and ParsePort
func ParseAddr(ip, port string) (netip.AddrPort, error) {
	addr, err := ParseIPv4(ip)
	if err != nil {
		return netip.AddrPort{}, err
	}
	p, err := ParsePort(port)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return netip.AddrPortFrom(addr, uint16(p)), nil
}
