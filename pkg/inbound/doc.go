// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package inbound extracts the metadata and security evidence of an inbound
PEPPOL message.

# Metadata

[ParseHeaders] reads the six BusDox transport headers and returns a
[MessageHeader], or a [*MissingHeaderError] / [*MalformedIdentifierError]:

	header, err := inbound.ParseHeaders(envelope)
	if errors.Is(err, inbound.ErrMissingHeader) {
	    // reject the message
	}

# Security evidence

[SecurityExtractor] takes the first certificate and the first SAML
assertion of the requester subject. Extraction never fails the message;
problems are logged and returned as diagnostics:

	ev := inbound.NewSecurityExtractor(logger).ExtractSecurity(
	    &inbound.RequestSecurityContext{Envelope: envelope, TLS: r.TLS})
	header = header.WithSecurity(ev)
*/
package inbound
