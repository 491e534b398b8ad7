// Package wire implements the line-oriented, NUL-terminated chat protocol:
// message encoding/decoding and the per-connection read buffer that
// reassembles frames split across TLS reads.
package wire

import "github.com/nullbridge/c2hat/api"

// Domain error kinds a session can observe while decoding or encoding
// protocol frames. Each wraps api.Error so callers can branch on Code.
var (
	// ErrIllegalCommand is returned by FromString when a client-typed line
	// attempts to forge a server-only prefix (/ok, /err, /log).
	ErrIllegalCommand = api.NewError(api.ErrCodeProtocol, "illegal command")

	// ErrContentTooLong is returned when content exceeds MaxContentLen.
	ErrContentTooLong = api.NewError(api.ErrCodeProtocol, "content too long")

	// ErrUserTooLong is returned when a nickname exceeds MaxNicknameLen.
	ErrUserTooLong = api.NewError(api.ErrCodeProtocol, "user name too long")

	// ErrBufferFull is returned by ReadBuffer.Fill when no decode has
	// happened to free space and the buffer's capacity is exhausted by an
	// oversized or malicious frame.
	ErrBufferFull = api.NewError(api.ErrCodeProtocol, "read buffer full")
)
