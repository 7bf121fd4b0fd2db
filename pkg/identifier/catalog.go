package identifier

import "fmt"

// TransportNamespace is the BusDox namespace of all transport identifier headers.
const TransportNamespace = "http://busdox.org/transport/identifiers/1.0/"

// QName is a namespace qualified XML name
type QName struct {
	Space string
	Local string
}

// String returns the name in Clark notation, {namespace}local
func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return fmt.Sprintf("{%s}%s", q.Space, q.Local)
}

// Name enumerates the well-known transport metadata fields
type Name int

const (
	MessageIDName Name = iota
	ChannelIDName
	RecipientIDName
	SenderIDName
	DocumentIDName
	ProcessIDName
)

var catalog = [...]struct {
	canonical string
	wire      string
}{
	MessageIDName:   {"MessageId", "MessageIdentifier"},
	ChannelIDName:   {"ChannelId", "ChannelIdentifier"},
	RecipientIDName: {"RecipientId", "RecipientIdentifier"},
	SenderIDName:    {"SenderId", "SenderIdentifier"},
	DocumentIDName:  {"DocumentId", "DocumentIdentifier"},
	ProcessIDName:   {"ProcessId", "ProcessIdentifier"},
}

// Names returns all catalog entries in their fixed order
func Names() []Name {
	return []Name{MessageIDName, ChannelIDName, RecipientIDName, SenderIDName, DocumentIDName, ProcessIDName}
}

// String returns the canonical field name, e.g. "MessageId". Stored
// descriptors use these names as element names.
func (n Name) String() string {
	if n < 0 || int(n) >= len(catalog) {
		return fmt.Sprintf("Name(%d)", int(n))
	}
	return catalog[n].canonical
}

// WireName returns the local name of the SOAP header carrying the field
func (n Name) WireName() string {
	if n < 0 || int(n) >= len(catalog) {
		return ""
	}
	return catalog[n].wire
}

// QName returns the qualified header name in the transport namespace
func (n Name) QName() QName {
	return QName{Space: TransportNamespace, Local: n.WireName()}
}
