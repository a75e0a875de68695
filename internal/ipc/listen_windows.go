//go:build windows

package ipc

import (
	"context"
	"fmt"
	"net"
)

// Windows has no socket file; the relay listens on DefaultTCPAddr and path is unused.
func listen(string) (net.Listener, error) {
	ln, err := net.Listen("tcp", DefaultTCPAddr)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", DefaultTCPAddr, err)
	}
	return ln, nil
}

func dial(ctx context.Context, _ string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", DefaultTCPAddr)
}

func unlink(string) error { return nil }

func describe(string) string {
	return DefaultTCPAddr + " (tcp)"
}
