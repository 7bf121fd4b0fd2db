// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package repository persists inbound PEPPOL messages on the file system.

# Layout

Every message is stored as four files sharing a stem derived from its
message id (':' replaced by '_'):

	<root>/<recipientId>/<senderId>/
	    <stem>_message.xml   the business document
	    <stem>.cer           PEM encoded sender certificate (may be empty)
	    <stem>_saml.xml      SAML assertion (may be empty)
	    <stem>_info.xml      descriptor indexing the files and metadata

The descriptor root element is Info with the children TimeStamp,
MessageFileName, CertFileName, SamlFileName, MessageId, ChannelId,
RecipientId, SenderId, DocumentId, ProcessId and SenderSubject, in that order.

# Usage

	repo := repository.NewFileRepository(repository.WithLogger(logger))
	if err := repo.SaveInboundMessage("/var/peppol/inbound", header, body); err != nil {
	    var unavailable *repository.StorageUnavailableError
	    if errors.As(err, &unavailable) {
	        // nothing was written
	    }
	}

Stored messages are found again with [ListInbound] and [ReadDescriptor].
*/
package repository
