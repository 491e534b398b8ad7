//go:build !linux
// +build !linux

package transport

import "net"

// newListener falls back to the portable net.Listen on non-Linux
// platforms; Go's runtime already sets SO_REUSEADDR and dual-stack
// binding by default for "tcp" listeners there.
func newListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
