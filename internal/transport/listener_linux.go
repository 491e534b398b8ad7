//go:build linux
// +build linux

package transport

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// newListener builds a dual-stack (IPv4+IPv6), SO_REUSEADDR, non-blocking
// TCP listener via raw syscalls, in the style of the pack's Linux
// transport implementation, then hands the file descriptor to net so the
// rest of the server works with an ordinary net.Listener.
func newListener(addr string) (net.Listener, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parse listen addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse listen port %q: %w", portStr, err)
	}

	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	closeFD := func() { _ = unix.Close(fd) }

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		closeFD()
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	// IPV6_V6ONLY=0 lets the same socket accept IPv4-mapped connections.
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
		closeFD()
		return nil, fmt.Errorf("setsockopt IPV6_V6ONLY: %w", err)
	}

	var sa unix.SockaddrInet6
	sa.Port = port
	if host != "" && host != "::" && host != "0.0.0.0" {
		ip := net.ParseIP(host)
		if ip == nil {
			closeFD()
			return nil, fmt.Errorf("invalid listen host %q", host)
		}
		ip16 := ip.To16()
		if ip16 == nil {
			closeFD()
			return nil, fmt.Errorf("host %q has no IPv6 representation", host)
		}
		copy(sa.Addr[:], ip16)
	}
	if err := unix.Bind(fd, &sa); err != nil {
		closeFD()
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		closeFD()
		return nil, fmt.Errorf("listen: %w", err)
	}

	f := os.NewFile(uintptr(fd), "c2hat-listener")
	defer f.Close() // net.FileListener dup()s the descriptor

	ln, err := net.FileListener(f)
	if err != nil {
		closeFD()
		return nil, fmt.Errorf("FileListener: %w", err)
	}
	return ln, nil
}
