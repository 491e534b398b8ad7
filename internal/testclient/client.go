// Package testclient is a minimal TLS chat client used by integration
// tests to drive a running Server through full conversations.
package testclient

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/nullbridge/c2hat/internal/transport"
	"github.com/nullbridge/c2hat/internal/wire"
)

// Client is a thin wrapper over transport.Session for test use: dial,
// send a line, read the next decoded message, close.
type Client struct {
	sess *transport.Session
}

// Dial connects to addr, performs the TLS handshake within timeout, and
// returns a ready Client. insecureSkipVerify should be true against the
// self-signed certificates test fixtures generate.
func Dial(addr string, insecureSkipVerify bool, timeout time.Duration) (*Client, error) {
	rawConn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.Client(rawConn, transport.ClientTLSConfig(host, insecureSkipVerify))
	sess := transport.NewSession(tlsConn)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sess.Handshake(ctx); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return &Client{sess: sess}, nil
}

// SendLine parses s as a user-typed line and writes its wire encoding.
func (c *Client) SendLine(s string) error {
	msg, err := wire.FromString(s)
	if err != nil {
		return err
	}
	_, err = c.sess.Write(msg)
	return err
}

// Send writes msg as-is, bypassing FromString's restriction on
// server-only commands; used to exercise /ok, /err and /log from tests.
func (c *Client) Send(msg wire.Msg) error {
	_, err := c.sess.Write(msg)
	return err
}

// ReadMsg blocks until one complete frame has been decoded or deadline
// elapses.
func (c *Client) ReadMsg(deadline time.Duration) (wire.Msg, error) {
	if err := c.sess.SetDeadline(time.Now().Add(deadline)); err != nil {
		return wire.Msg{}, err
	}
	for {
		if _, err := c.sess.Read(); err != nil {
			return wire.Msg{}, err
		}
		var got wire.Msg
		var ok bool
		c.sess.DecodeAll(func(m wire.Msg) {
			if ok {
				return
			}
			got, ok = m, true
		})
		if ok {
			return got, nil
		}
	}
}

// Close closes the underlying transport.
func (c *Client) Close() error { return c.sess.Close() }
