package inbound

import (
	"errors"
	"fmt"

	"github.com/sirosfoundation/go-peppol-inbound/pkg/identifier"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/soap"
)

var (
	// ErrMissingHeader matches every MissingHeaderError
	ErrMissingHeader = errors.New("missing transport header")
	// ErrMalformedIdentifier matches every MalformedIdentifierError
	ErrMalformedIdentifier = errors.New("malformed transport identifier")
)

// HeaderList looks up SOAP header blocks by qualified name.
// *soap.Envelope implements it.
type HeaderList interface {
	Header(name identifier.QName) (*soap.Header, bool)
}

// MissingHeaderError reports a required transport header that is absent or empty
type MissingHeaderError struct {
	Name identifier.QName
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("missing transport header %s", e.Name)
}

func (e *MissingHeaderError) Is(target error) bool {
	return target == ErrMissingHeader
}

// MalformedIdentifierError reports a header value that does not parse into its typed identifier
type MalformedIdentifierError struct {
	Name  identifier.QName
	Value string
	Err   error
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed value %q in transport header %s: %v", e.Value, e.Name, e.Err)
}

func (e *MalformedIdentifierError) Unwrap() error {
	return e.Err
}

func (e *MalformedIdentifierError) Is(target error) bool {
	return target == ErrMalformedIdentifier
}

// ParseHeaders builds a MessageHeader from the BusDox transport headers.
// Either all six identifiers are present and well formed, or an error is
// returned and no header is produced.
func ParseHeaders(headers HeaderList) (*MessageHeader, error) {
	values := make(map[identifier.Name]*soap.Header, len(identifier.Names()))
	for _, name := range identifier.Names() {
		h, ok := headers.Header(name.QName())
		if !ok || h.Text == "" {
			return nil, &MissingHeaderError{Name: name.QName()}
		}
		values[name] = h
	}

	docHeader := values[identifier.DocumentIDName]
	docType, err := identifier.ParseDocumentTypeID(docHeader.Attr("scheme"), docHeader.Text)
	if err != nil {
		return nil, &MalformedIdentifierError{Name: docHeader.Name, Value: docHeader.Text, Err: err}
	}

	procHeader := values[identifier.ProcessIDName]
	procType, err := identifier.ParseProcessTypeID(procHeader.Attr("scheme"), procHeader.Text)
	if err != nil {
		return nil, &MalformedIdentifierError{Name: procHeader.Name, Value: procHeader.Text, Err: err}
	}

	// These three name directories and files in the message store
	for _, name := range []identifier.Name{identifier.MessageIDName, identifier.RecipientIDName, identifier.SenderIDName} {
		h := values[name]
		if err := identifier.CheckPathSegment(h.Text); err != nil {
			return nil, &MalformedIdentifierError{Name: h.Name, Value: h.Text, Err: err}
		}
	}

	recipient := values[identifier.RecipientIDName]
	sender := values[identifier.SenderIDName]

	return &MessageHeader{
		MessageID:      identifier.MessageID(values[identifier.MessageIDName].Text),
		ChannelID:      identifier.ChannelID(values[identifier.ChannelIDName].Text),
		RecipientID:    identifier.NewParticipantID(recipient.Attr("scheme"), recipient.Text),
		SenderID:       identifier.NewParticipantID(sender.Attr("scheme"), sender.Text),
		DocumentTypeID: docType,
		ProcessTypeID:  procType,
	}, nil
}
