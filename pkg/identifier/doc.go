// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package identifier defines the BusDox transport identifiers carried in the
SOAP header of every inbound PEPPOL message.

# Catalog

The six well-known metadata fields are enumerated by [Name]. Each has a
canonical name (used in stored descriptors) and a wire name (the local name
of its SOAP header in [TransportNamespace]):

	MessageId    MessageIdentifier
	ChannelId    ChannelIdentifier
	RecipientId  RecipientIdentifier
	SenderId     SenderIdentifier
	DocumentId   DocumentIdentifier
	ProcessId    ProcessIdentifier

# Typed identifiers

Document and process type identifiers are validated by [ParseDocumentTypeID]
and [ParseProcessTypeID]:

	doc, err := identifier.ParseDocumentTypeID("busdox-docid-qns",
	    "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2::Invoice##"+
	        "urn:www.cenbii.eu:transaction:biicoretrdm010:ver1.0::2.0")

# Path segments

Identifiers such as "9908:810017902" are turned into path segments with
[PathSegment], which replaces ':' with '_'.
*/
package identifier
