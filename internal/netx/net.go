package netx

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var ErrNotLoopback = errors.New("address is not a loopback address")

// IsLoopback reports whether host names this machine only.
func IsLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ListenLoopback listens on addr after checking that its host is a loopback
// address. Port 0 picks a free port.
func ListenLoopback(addr string) (net.Listener, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if !IsLoopback(host) {
		return nil, fmt.Errorf("listen %s: %w", addr, ErrNotLoopback)
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return l, nil
}
