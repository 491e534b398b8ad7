// Package transport implements the TLS-wrapped transport session (C3):
// bounded read/write loops over a *tls.Conn, plus a dual-stack, reusable,
// non-blocking listener.
package transport

import (
	"errors"
	"io"
	"net"

	"github.com/nullbridge/c2hat/api"
)

// classify turns a raw net/tls error into the session-level error kind the
// rest of the server branches on.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return api.Wrap(api.ErrCodePeerClosed, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return api.Wrap(api.ErrCodeTimeout, err)
	}
	return api.Wrap(api.ErrCodeTransport, err)
}

// IsPeerClosed reports whether err represents an orderly remote close.
func IsPeerClosed(err error) bool {
	var e *api.Error
	return errors.As(err, &e) && e.Code == api.ErrCodePeerClosed
}

// IsTimeout reports whether err represents a deadline exceeding.
func IsTimeout(err error) bool {
	var e *api.Error
	return errors.As(err, &e) && e.Code == api.ErrCodeTimeout
}
