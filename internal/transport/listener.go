package transport

import "net"

// Listen opens the dual-stack, reusable, non-blocking TCP listener the
// acceptor accepts TLS handshakes on. Platform-specific construction
// lives in listener_linux.go / listener_other.go.
func Listen(addr string) (net.Listener, error) {
	return newListener(addr)
}
