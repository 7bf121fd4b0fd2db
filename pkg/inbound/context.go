package inbound

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/soap"
	"go.uber.org/multierr"
)

// RequestSecurityContext derives the requester subject of an HTTP
// invocation from the WS-Security header of its envelope and the TLS
// connection it arrived on.
//
// Certificates are ordered WS-Security tokens first (document order), then
// TLS peer certificates (leaf first).
type RequestSecurityContext struct {
	Envelope *soap.Envelope
	TLS      *tls.ConnectionState
}

// RequesterSubject returns nil when no credential was presented. Tokens that
// cannot be decoded are skipped and reported in the returned error, which
// may accompany a non-nil subject.
func (c *RequestSecurityContext) RequesterSubject() (*Subject, error) {
	subject := &Subject{}
	var errs error

	if c.Envelope != nil {
		tokens := c.Envelope.SecurityTokens()
		for _, bst := range tokens.BinaryTokens {
			cert, err := decodeBinaryToken(bst)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			subject.Certificates = append(subject.Certificates, cert)
		}
		subject.Assertions = append(subject.Assertions, tokens.Assertions...)
	}

	if c.TLS != nil {
		subject.Certificates = append(subject.Certificates, c.TLS.PeerCertificates...)
	}

	if len(subject.Certificates) == 0 && len(subject.Assertions) == 0 {
		return nil, errs
	}
	return subject, errs
}

func decodeBinaryToken(bst *etree.Element) (*x509.Certificate, error) {
	data := strings.Join(strings.Fields(bst.Text()), "")
	der, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decoding BinarySecurityToken: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing BinarySecurityToken certificate: %w", err)
	}
	return cert, nil
}
