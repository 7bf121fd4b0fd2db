package inbound

import "github.com/sirosfoundation/go-peppol-inbound/pkg/identifier"

// MessageHeader is the transport metadata of one inbound message together
// with the security evidence captured for it. A MessageHeader is not
// modified after construction; WithSecurity returns a copy.
type MessageHeader struct {
	MessageID      identifier.MessageID
	ChannelID      identifier.ChannelID
	RecipientID    identifier.ParticipantID
	SenderID       identifier.ParticipantID
	DocumentTypeID identifier.DocumentTypeID
	ProcessTypeID  identifier.ProcessTypeID

	// SenderSubject is the RFC 2253 subject of the sender certificate
	SenderSubject string
	// SenderCert is the PEM encoded sender certificate
	SenderCert string
	// SamlAssertionXML is the serialized SAML assertion
	SamlAssertionXML string
}

// WithSecurity returns a copy of h carrying the given evidence
func (h MessageHeader) WithSecurity(ev SecurityEvidence) *MessageHeader {
	h.SenderSubject = ev.SenderSubject
	h.SenderCert = ev.SenderCert
	h.SamlAssertionXML = ev.SamlAssertionXML
	return &h
}

// Valid reports whether all six transport identifiers are present
func (h *MessageHeader) Valid() bool {
	return h != nil &&
		h.MessageID != "" &&
		h.ChannelID != "" &&
		!h.RecipientID.IsZero() &&
		!h.SenderID.IsZero() &&
		!h.DocumentTypeID.IsZero() &&
		!h.ProcessTypeID.IsZero()
}
