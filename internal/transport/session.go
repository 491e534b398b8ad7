package transport

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/nullbridge/c2hat/internal/wire"
)

// Session wraps a TLS-secured byte stream with the two primitives the
// client session handler needs: a buffered Read that reassembles frames,
// and a Write that completes a partial send in a loop. Go's net package
// already retries interrupted syscalls internally, so neither loop needs
// the manual want-read/want-write retry a C implementation requires.
//
// crypto/tls.Conn permits one concurrent reader and one concurrent writer,
// but not two concurrent writers; since both the owning worker (acks,
// greetings) and the broadcaster write to the same session, writeMu
// serializes them.
type Session struct {
	conn     *tls.Conn
	peerAddr string
	buf      *wire.ReadBuffer
	writeMu  sync.Mutex
}

// NewSession wraps an already-dialed or already-accepted TLS connection.
func NewSession(conn *tls.Conn) *Session {
	return &Session{
		conn:     conn,
		peerAddr: conn.RemoteAddr().String(),
		buf:      wire.NewReadBuffer(),
	}
}

// PeerAddr returns the remote address captured at construction time.
func (s *Session) PeerAddr() string { return s.peerAddr }

// Handshake performs the TLS handshake, bounded by ctx's deadline.
func (s *Session) Handshake(ctx context.Context) error {
	if err := s.conn.HandshakeContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// SetDeadline bounds the next Read call, used to enforce the
// authentication and idle timeouts without a separate timer goroutine.
func (s *Session) SetDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// Read performs one underlying TLS read into the session's frame buffer
// and returns the currently unread bytes. Callers decode with DecodeAll.
func (s *Session) Read() ([]byte, error) {
	_, err := s.buf.Fill(s.conn.Read)
	if err != nil {
		return nil, classify(err)
	}
	return s.buf.Unread(), nil
}

// DecodeAll drains every complete frame currently buffered into sink.
func (s *Session) DecodeAll(sink func(wire.Msg)) {
	s.buf.DecodeAll(sink)
}

// Write encodes msg and writes until every byte is sent.
func (s *Session) Write(msg wire.Msg) (int, error) {
	enc, err := wire.Encode(msg)
	if err != nil {
		return 0, err
	}
	return s.writeAll(enc)
}

func (s *Session) writeAll(data []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	total := 0
	for total < len(data) {
		n, err := s.conn.Write(data[total:])
		total += n
		if err != nil {
			return total, classify(err)
		}
	}
	return total, nil
}

// Close performs the TLS shutdown (close_notify) and closes the socket.
func (s *Session) Close() error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return s.conn.Close()
}
