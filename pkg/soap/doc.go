// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package soap reads inbound BusDox SOAP envelopes and builds the replies sent
back to the sending access point.

An [Envelope] exposes the header collection by qualified name, the business
document carried in the body, and the credentials found in the WS-Security
header:

	env, err := soap.Parse(data)
	h, ok := env.Header(identifier.MessageIDName.QName())
	doc, err := env.BodyDocument()
	tokens := env.SecurityTokens()

Both SOAP 1.1 and SOAP 1.2 envelopes are accepted.
*/
package soap
