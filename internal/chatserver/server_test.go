package chatserver

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nullbridge/c2hat/internal/config"
	"github.com/nullbridge/c2hat/internal/testclient"
	"github.com/nullbridge/c2hat/internal/wire"
)

func writeTestCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()
	dir := t.TempDir()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatal(err)
	}
	keyBytes, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	certOut, err := os.Create(certFile)
	if err != nil {
		t.Fatal(err)
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		t.Fatal(err)
	}
	keyOut, err := os.Create(keyFile)
	if err != nil {
		t.Fatal(err)
	}
	defer keyOut.Close()
	if err := pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

func startTestServer(t *testing.T, maxConns int) (*Server, func()) {
	t.Helper()
	certFile, keyFile := writeTestCert(t)
	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.CertFile = certFile
	cfg.KeyFile = keyFile
	cfg.MaxConnections = maxConns
	cfg.AuthTimeout = 2 * time.Second
	cfg.IdleTimeout = 2 * time.Second
	cfg.BroadcastPoll = 10 * time.Millisecond

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = srv.Run(ctx)
		close(runDone)
	}()
	return srv, func() {
		cancel()
		<-runDone
	}
}

func dialAndAuthenticate(t *testing.T, addr, nickname string) *testclient.Client {
	t.Helper()
	c, err := testclient.Dial(addr, true, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	welcome, err := c.ReadMsg(2 * time.Second)
	if err != nil || welcome.Kind != wire.KindOk {
		t.Fatalf("welcome: %+v, %v", welcome, err)
	}
	prompt, err := c.ReadMsg(2 * time.Second)
	if err != nil || prompt.Kind != wire.KindNick {
		t.Fatalf("nick prompt: %+v, %v", prompt, err)
	}
	if err := c.SendLine("/nick " + nickname); err != nil {
		t.Fatalf("send nick: %v", err)
	}
	hello, err := c.ReadMsg(2 * time.Second)
	if err != nil || hello.Kind != wire.KindOk {
		t.Fatalf("hello: %+v, %v", hello, err)
	}
	return c
}

// readSkippingJoins returns the next frame that is not a "just joined"
// notice. Every join is broadcast to every authenticated session,
// including the one that joined, and its arrival races the frames a test
// is waiting for.
func readSkippingJoins(c *testclient.Client, deadline time.Duration) (wire.Msg, error) {
	for {
		m, err := c.ReadMsg(deadline)
		if err != nil || m.Kind != wire.KindLog || m.Content != msgJustJoinedTheChat {
			return m, err
		}
	}
}

func TestHappyAuthentication(t *testing.T) {
	srv, stop := startTestServer(t, 8)
	defer stop()

	c := dialAndAuthenticate(t, srv.Addr().String(), "Alice")
	defer c.Close()
}

func TestNicknameConflictClosesWithoutChangingRegistry(t *testing.T) {
	srv, stop := startTestServer(t, 8)
	defer stop()

	alice := dialAndAuthenticate(t, srv.Addr().String(), "Alice")
	defer alice.Close()

	bob, err := testclient.Dial(srv.Addr().String(), true, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer bob.Close()
	if _, err := bob.ReadMsg(2 * time.Second); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if _, err := bob.ReadMsg(2 * time.Second); err != nil {
		t.Fatalf("nick prompt: %v", err)
	}
	if err := bob.SendLine("/nick Alice"); err != nil {
		t.Fatalf("send nick: %v", err)
	}
	conflictErr, err := bob.ReadMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("expected an /err frame before close, got read error: %v", err)
	}
	if conflictErr.Kind != wire.KindErr {
		t.Fatalf("got %+v, want an err frame", conflictErr)
	}
	if _, err := bob.ReadMsg(2 * time.Second); err == nil {
		t.Fatal("expected connection close after nickname conflict")
	}

	if got := srv.registry.AuthenticatedCount(); got != 1 {
		t.Fatalf("authenticated count = %d, want 1", got)
	}
}

func TestMessageRelayToAllAuthenticatedPeers(t *testing.T) {
	srv, stop := startTestServer(t, 8)
	defer stop()

	alice := dialAndAuthenticate(t, srv.Addr().String(), "Alice")
	defer alice.Close()
	bobby := dialAndAuthenticate(t, srv.Addr().String(), "Bobby")
	defer bobby.Close()

	if err := alice.SendLine("hello there"); err != nil {
		t.Fatalf("send: %v", err)
	}
	ack, err := readSkippingJoins(alice, 2*time.Second)
	if err != nil || ack.Kind != wire.KindOk {
		t.Fatalf("ack: %+v, %v", ack, err)
	}

	relayed, err := readSkippingJoins(bobby, 2*time.Second)
	if err != nil {
		t.Fatalf("relay to bobby: %v", err)
	}
	if relayed.Kind != wire.KindMsg || relayed.User != "Alice" || relayed.Content != "hello there" {
		t.Fatalf("relayed = %+v", relayed)
	}

	selfEcho, err := readSkippingJoins(alice, 2*time.Second)
	if err != nil {
		t.Fatalf("relay to alice (self-echo): %v", err)
	}
	if selfEcho.Kind != wire.KindMsg || selfEcho.User != "Alice" {
		t.Fatalf("self echo = %+v", selfEcho)
	}
}

func TestGracefulQuit(t *testing.T) {
	srv, stop := startTestServer(t, 8)
	defer stop()

	alice := dialAndAuthenticate(t, srv.Addr().String(), "Alice")
	defer alice.Close()
	bobby := dialAndAuthenticate(t, srv.Addr().String(), "Bobby")
	defer bobby.Close()

	if err := alice.SendLine("/quit"); err != nil {
		t.Fatalf("send quit: %v", err)
	}

	leftMsg, err := readSkippingJoins(bobby, 2*time.Second)
	if err != nil {
		t.Fatalf("leave notice: %v", err)
	}
	if leftMsg.Kind != wire.KindLog || leftMsg.User != "Alice" {
		t.Fatalf("leave notice = %+v", leftMsg)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if srv.registry.AuthenticatedCount() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("registry still has %d authenticated entries after quit", srv.registry.AuthenticatedCount())
}

func TestIdleTimeoutDisconnects(t *testing.T) {
	srv, stop := startTestServer(t, 8)
	defer stop()

	c := dialAndAuthenticate(t, srv.Addr().String(), "Alice")
	defer c.Close()

	timeoutErr, err := readSkippingJoins(c, 3*time.Second)
	if err != nil {
		t.Fatalf("expected idle timeout err frame, got read error: %v", err)
	}
	if timeoutErr.Kind != wire.KindErr {
		t.Fatalf("got %+v, want an err frame", timeoutErr)
	}
}

func TestCapacityRefusal(t *testing.T) {
	srv, stop := startTestServer(t, 1)
	defer stop()

	first := dialAndAuthenticate(t, srv.Addr().String(), "Alice")
	defer first.Close()

	second, err := testclient.Dial(srv.Addr().String(), true, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()

	refusal, err := second.ReadMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("refusal: %v", err)
	}
	if refusal.Kind != wire.KindErr || refusal.Content != msgCapacityExceeded {
		t.Fatalf("refusal = %+v", refusal)
	}
}
