package transport

import "crypto/tls"

// ServerTLSConfig builds the TLS context policy the server applies to
// every accepted session: minimum TLS 1.2, modern AEAD ciphersuites only,
// no client certificate request, and renegotiation disabled.
func ServerTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_AES_128_GCM_SHA256,
			tls.TLS_AES_256_GCM_SHA384,
			tls.TLS_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
		ClientAuth:    tls.NoClientCert,
		Renegotiation: tls.RenegotiateNever,
	}, nil
}

// ClientTLSConfig builds the symmetric client-side policy: hostname
// verification on for non-loopback peers. Loopback/test dials that need
// to bypass verification (e.g. against a self-signed test certificate) do
// so explicitly via insecureSkipVerify, never by default.
func ClientTLSConfig(serverName string, insecureSkipVerify bool) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecureSkipVerify,
	}
}
