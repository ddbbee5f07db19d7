package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/url"
	"time"
)

// StubCertificate is a self-signed certificate for tests and local runs
type StubCertificate struct {
	Certificate *x509.Certificate
	PEM         string
}

// Fingerprint returns the fingerprint identity key of the certificate
func (c *StubCertificate) Fingerprint() string {
	return Fingerprint(c.Certificate.Raw)
}

// EscapedPEM returns the URL-escaped PEM, as Envoy forwards it
func (c *StubCertificate) EscapedPEM() string {
	return url.QueryEscape(c.PEM)
}

// NewStubCertificate creates a self-signed certificate with the given common name.
// If spiffeID is non-empty it is added as a URI SAN.
func NewStubCertificate(commonName, spiffeID string) (*StubCertificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	if spiffeID != "" {
		u, err := url.Parse(spiffeID)
		if err != nil {
			return nil, fmt.Errorf("invalid SPIFFE ID %q: %w", spiffeID, err)
		}
		template.URIs = []*url.URL{u}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return &StubCertificate{
		Certificate: cert,
		PEM:         string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
	}, nil
}
