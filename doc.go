// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package peppolinbound implements the receiving side of a PEPPOL access point:
the intake and file based persistence of business documents delivered over
the BusDox/START transport.

# Overview

An inbound message is a SOAP envelope whose header carries six transport
identifiers in the http://busdox.org/transport/identifiers/1.0/ namespace
(message, channel, recipient, sender, document type and process) and whose
body carries the business document. The sender is identified by an X.509
certificate and optionally a SAML assertion taken from WS-Security headers
or the TLS connection.

Each accepted message is written as four files below
<root>/<recipientId>/<senderId>/: the document, the PEM encoded sender
certificate, the SAML assertion and an XML descriptor indexing them.

# Package Structure

	github.com/sirosfoundation/go-peppol-inbound/pkg/identifier  - Transport identifier catalog and typed identifiers
	github.com/sirosfoundation/go-peppol-inbound/pkg/soap        - SOAP envelope parsing, responses and faults
	github.com/sirosfoundation/go-peppol-inbound/pkg/inbound     - Header parsing and security evidence extraction
	github.com/sirosfoundation/go-peppol-inbound/pkg/repository  - File based message repository
	github.com/sirosfoundation/go-peppol-inbound/pkg/reliability - Duplicate message detection

	github.com/sirosfoundation/go-peppol-inbound/internal/as4    - Request intake
	github.com/sirosfoundation/go-peppol-inbound/internal/server - HTTP server
	github.com/sirosfoundation/go-peppol-inbound/internal/config - YAML configuration

	github.com/sirosfoundation/go-peppol-inbound/cmd/peppol-inbound - Server command

# Quick Start

	env, err := soap.Parse(data)
	if err != nil {
	    return err
	}
	header, err := inbound.ParseHeaders(env)
	if err != nil {
	    return err
	}
	evidence := inbound.NewSecurityExtractor(logger).
	    ExtractSecurity(&inbound.RequestSecurityContext{Envelope: env, TLS: r.TLS})
	body, err := env.BodyDocument()
	if err != nil {
	    return err
	}

	repo := repository.NewFileRepository(repository.WithLogger(logger))
	err = repo.SaveInboundMessage("/var/peppol/inbound", header.WithSecurity(evidence), body)

See examples/basic for a runnable program.
*/
package peppolinbound
