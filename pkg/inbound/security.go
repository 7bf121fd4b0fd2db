// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package inbound

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"
	"github.com/leifj/signedxml"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/soap"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

// Subject is the authenticated requester of an invocation. Credentials are
// kept in the order they were presented; the first of each kind is used.
type Subject struct {
	Certificates []*x509.Certificate
	Assertions   []*etree.Element
}

// SecurityContext gives access to the authenticated subject of one
// invocation. A nil subject means the request was not authenticated.
type SecurityContext interface {
	RequesterSubject() (*Subject, error)
}

// Diagnostic records a problem absorbed during security extraction
type Diagnostic struct {
	Step string
	Err  error
}

func (d Diagnostic) String() string {
	return d.Step + ": " + d.Err.Error()
}

// SecurityEvidence is the provenance captured for an inbound message.
// Missing parts are empty strings, never an error.
type SecurityEvidence struct {
	SenderSubject    string
	SenderCert       string
	SamlAssertionXML string
	Certificate      *x509.Certificate
	Diagnostics      []Diagnostic
}

var (
	errNoSubject     = errors.New("no security subject found")
	errNoEncoding    = errors.New("certificate has no DER encoding")
	errExtraCerts    = errors.New("additional certificates ignored")
	errExtraSAML     = errors.New("additional assertions ignored")
	errNilAssertion  = errors.New("nil assertion element")
	errNilCredential = errors.New("nil certificate credential")
)

// SecurityExtractor pulls the sender certificate and SAML assertion out of
// an invocation's security context
type SecurityExtractor struct {
	logger *slog.Logger
}

// NewSecurityExtractor creates an extractor logging to logger, or to
// slog.Default when logger is nil
func NewSecurityExtractor(logger *slog.Logger) *SecurityExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityExtractor{logger: logger}
}

// ExtractSecurity never fails: any problem is logged, recorded as a
// diagnostic, and leaves the corresponding evidence empty.
func (x *SecurityExtractor) ExtractSecurity(sc SecurityContext) SecurityEvidence {
	var ev SecurityEvidence

	var subject *Subject
	if sc != nil {
		var err error
		subject, err = sc.RequesterSubject()
		if err != nil {
			x.record(&ev, "subject", err)
		}
	}
	if subject == nil {
		x.logger.Info("no security subject found")
		ev.Diagnostics = append(ev.Diagnostics, Diagnostic{Step: "subject", Err: errNoSubject})
		return ev
	}

	x.extractCertificate(&ev, subject.Certificates)
	x.extractAssertion(&ev, subject.Assertions)
	return ev
}

func (x *SecurityExtractor) extractCertificate(ev *SecurityEvidence, certs []*x509.Certificate) {
	if len(certs) == 0 {
		return
	}
	if len(certs) > 1 {
		x.record(ev, "certificate", fmt.Errorf("%w: %d", errExtraCerts, len(certs)-1))
	}

	cert := certs[0]
	if cert == nil {
		x.record(ev, "certificate", errNilCredential)
		return
	}

	ev.SenderSubject = cert.Subject.String()
	x.logger.Info("certificate found", slog.String("subject", ev.SenderSubject))

	if len(cert.Raw) == 0 {
		x.record(ev, "certificate", errNoEncoding)
		return
	}
	ev.Certificate = cert
	ev.SenderCert = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
}

func (x *SecurityExtractor) extractAssertion(ev *SecurityEvidence, assertions []*etree.Element) {
	if len(assertions) == 0 {
		return
	}
	if len(assertions) > 1 {
		x.record(ev, "assertion", fmt.Errorf("%w: %d", errExtraSAML, len(assertions)-1))
	}

	xml, err := SerializeAssertion(assertions[0])
	if err != nil {
		x.record(ev, "assertion", err)
		return
	}
	x.logger.Info("SAML assertion found")
	ev.SamlAssertionXML = xml
}

func (x *SecurityExtractor) record(ev *SecurityEvidence, step string, err error) {
	x.logger.Warn("security extraction problem", slog.String("step", step), slog.String("error", err.Error()))
	ev.Diagnostics = append(ev.Diagnostics, Diagnostic{Step: step, Err: err})
}

// SerializeAssertion writes a SAML assertion as a standalone XML document.
// Namespaces declared on ancestors of the assertion are carried over and the
// result is exclusively canonicalized, so the output does not depend on how
// the sender laid out its envelope.
func SerializeAssertion(assertion *etree.Element) (string, error) {
	if assertion == nil {
		return "", errNilAssertion
	}
	c14n := signedxml.ExclusiveCanonicalization{WithComments: false}
	canonical, err := c14n.ProcessElement(soap.Detach(assertion), "")
	if err != nil {
		return "", fmt.Errorf("canonicalizing assertion: %w", err)
	}
	return xmlDeclaration + canonical, nil
}
