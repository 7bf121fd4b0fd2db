package identifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceDocType = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2::Invoice##" +
	"urn:www.cenbii.eu:transaction:biicoretrdm010:ver1.0:#urn:www.peppol.eu:bis:peppol4a:ver1.0::2.0"

func TestCatalog(t *testing.T) {
	names := Names()
	require.Len(t, names, 6)

	want := []struct {
		canonical string
		wire      string
	}{
		{"MessageId", "MessageIdentifier"},
		{"ChannelId", "ChannelIdentifier"},
		{"RecipientId", "RecipientIdentifier"},
		{"SenderId", "SenderIdentifier"},
		{"DocumentId", "DocumentIdentifier"},
		{"ProcessId", "ProcessIdentifier"},
	}
	for i, n := range names {
		assert.Equal(t, want[i].canonical, n.String())
		assert.Equal(t, want[i].wire, n.WireName())
		assert.Equal(t, QName{Space: TransportNamespace, Local: want[i].wire}, n.QName())
	}

	assert.Equal(t, "{http://busdox.org/transport/identifiers/1.0/}SenderIdentifier", SenderIDName.QName().String())
	assert.Equal(t, "Name(42)", Name(42).String())
	assert.Empty(t, Name(-1).WireName())
}

func TestParseDocumentTypeID(t *testing.T) {
	doc, err := ParseDocumentTypeID("", invoiceDocType)
	require.NoError(t, err)

	assert.Equal(t, DefaultDocumentTypeScheme, doc.Scheme)
	assert.Equal(t, "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2", doc.RootNamespace)
	assert.Equal(t, "Invoice", doc.LocalName)
	assert.Equal(t, "urn:www.cenbii.eu:transaction:biicoretrdm010:ver1.0:#urn:www.peppol.eu:bis:peppol4a:ver1.0", doc.CustomizationID)
	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, invoiceDocType, doc.String())
	assert.False(t, doc.IsZero())

	custom, err := ParseDocumentTypeID("my-scheme", invoiceDocType)
	require.NoError(t, err)
	assert.Equal(t, "my-scheme", custom.Scheme)
}

func TestParseDocumentTypeID_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		scheme string
		value  string
	}{
		{"empty", "", ""},
		{"no customization", "", "urn:x::Invoice::2.0"},
		{"no local name", "", "urn:x##cust::2.0"},
		{"no version", "", "urn:x::Invoice##cust"},
		{"empty version", "", "urn:x::Invoice##cust::"},
		{"bad scheme", "busdox docid", invoiceDocType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocumentTypeID(tt.scheme, tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestParseProcessTypeID(t *testing.T) {
	p, err := ParseProcessTypeID("", " urn:www.cenbii.eu:profile:bii04:ver1.0 ")
	require.NoError(t, err)
	assert.Equal(t, DefaultProcessTypeScheme, p.Scheme)
	assert.Equal(t, "urn:www.cenbii.eu:profile:bii04:ver1.0", p.String())

	_, err = ParseProcessTypeID("", "")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseProcessTypeID("", "urn:a b")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewParticipantID(t *testing.T) {
	p := NewParticipantID("", "9908:810017902")
	assert.Equal(t, DefaultParticipantScheme, p.Scheme)
	assert.Equal(t, "9908:810017902", p.String())
	assert.False(t, p.IsZero())
	assert.True(t, ParticipantID{}.IsZero())
}

func TestPathSegment(t *testing.T) {
	assert.Equal(t, "9908_810017902", PathSegment("9908:810017902"))
	assert.Equal(t, "uuid_abc-123", PathSegment("uuid:abc-123"))
	assert.Equal(t, "a_b_c", PathSegment("a:b:c"))
	assert.Equal(t, "no-colon/kept", PathSegment("no-colon/kept"))
}

func TestCheckPathSegment(t *testing.T) {
	for _, ok := range []string{"9908:810017902", "uuid:abc-123", "..abc", "a.b"} {
		assert.NoError(t, CheckPathSegment(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "a/b", "/abs", `a\b`, "a\x00b"} {
		assert.ErrorIs(t, CheckPathSegment(bad), ErrUnsafePathSegment, bad)
	}
}
