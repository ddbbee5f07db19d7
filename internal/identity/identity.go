// Package identity derives identity keys from already-authenticated caller certificates.
//
// No chain or signature verification happens here; the transport that accepted the
// certificate is trusted to have done that.
package identity

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/svid/x509svid"
)

var (
	ErrNoCertificate      = errors.New("no certificate presented")
	ErrInvalidCertificate = errors.New("invalid certificate")
)

// Extractor kinds accepted by NewExtractor
const (
	KindFingerprint = "fingerprint"
	KindSPIFFE      = "spiffe"
)

// Extractor derives the identity key for a certificate
type Extractor interface {
	IdentityKey(cert *x509.Certificate) (string, error)
}

// FingerprintExtractor identifies a certificate by the hex SHA-256 of its DER encoding.
// This is the member id used by the governance service.
type FingerprintExtractor struct{}

// IdentityKey implements Extractor
func (FingerprintExtractor) IdentityKey(cert *x509.Certificate) (string, error) {
	if cert == nil {
		return "", ErrNoCertificate
	}
	return Fingerprint(cert.Raw), nil
}

// Fingerprint returns the lower-case hex SHA-256 of a DER-encoded certificate
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// SPIFFEExtractor identifies a certificate by the SPIFFE ID in its URI SAN
type SPIFFEExtractor struct {
	// TrustDomain restricts accepted IDs to one trust domain.
	// The zero value accepts any trust domain.
	TrustDomain spiffeid.TrustDomain
}

// IdentityKey implements Extractor
func (e SPIFFEExtractor) IdentityKey(cert *x509.Certificate) (string, error) {
	if cert == nil {
		return "", ErrNoCertificate
	}

	id, err := x509svid.IDFromCert(cert)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	if !e.TrustDomain.IsZero() && !id.MemberOf(e.TrustDomain) {
		return "", fmt.Errorf("%w: %s is not a member of trust domain %s", ErrInvalidCertificate, id, e.TrustDomain)
	}

	return id.String(), nil
}

// NewExtractor creates an extractor by kind.
// trustDomain is only used by the spiffe extractor and may be empty.
func NewExtractor(kind string, trustDomain string) (Extractor, error) {
	switch kind {
	case KindFingerprint, "":
		return FingerprintExtractor{}, nil
	case KindSPIFFE:
		e := SPIFFEExtractor{}
		if trustDomain != "" {
			td, err := spiffeid.TrustDomainFromString(trustDomain)
			if err != nil {
				return nil, fmt.Errorf("invalid trust domain %q: %w", trustDomain, err)
			}
			e.TrustDomain = td
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown identity extractor: %s (supported: fingerprint, spiffe)", kind)
	}
}

// ParseCertificate parses the first certificate of a PEM block.
// URL-escaped PEM, as forwarded by Envoy and nginx, is accepted too.
func ParseCertificate(encoded string) (*x509.Certificate, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, ErrNoCertificate
	}

	block, _ := pem.Decode([]byte(encoded))
	if block == nil && strings.Contains(encoded, "%") {
		// URL escaping leaves the dashes of the PEM armor intact
		block = decodeEscapedPEM(encoded)
	}
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: no PEM certificate block", ErrInvalidCertificate)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return cert, nil
}

// decodeEscapedPEM decodes PEM escaped either as a path (%20 spaces, literal +)
// or as a query (+ spaces, %2B).
func decodeEscapedPEM(encoded string) *pem.Block {
	for _, unescape := range []func(string) (string, error){url.PathUnescape, url.QueryUnescape} {
		unescaped, err := unescape(encoded)
		if err != nil {
			continue
		}
		if block, _ := pem.Decode([]byte(unescaped)); block != nil {
			return block
		}
	}
	return nil
}

// DecodePEM returns the DER bytes of the first certificate in a PEM string
func DecodePEM(encoded string) ([]byte, error) {
	cert, err := ParseCertificate(encoded)
	if err != nil {
		return nil, err
	}
	return cert.Raw, nil
}
