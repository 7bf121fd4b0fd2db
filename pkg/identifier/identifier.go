package identifier

import (
	"errors"
	"fmt"
	"strings"
)

// Default identifier schemes used by BusDox when a header carries no scheme attribute
const (
	DefaultParticipantScheme  = "iso6523-actorid-upis"
	DefaultDocumentTypeScheme = "busdox-docid-qns"
	DefaultProcessTypeScheme  = "cenbii-procid-ubl"
)

var (
	// ErrMalformed is wrapped by every identifier parse failure
	ErrMalformed = errors.New("malformed identifier")
	// ErrUnsafePathSegment is returned for identifiers that cannot name a single directory entry
	ErrUnsafePathSegment = errors.New("identifier is not a safe path segment")
)

// MessageID identifies a single transmitted message, e.g. "uuid:7c5b..."
type MessageID string

func (id MessageID) String() string { return string(id) }

// ChannelID names a logical delivery channel
type ChannelID string

func (id ChannelID) String() string { return string(id) }

// ParticipantID identifies a sender or receiver in the network, e.g. "9908:810017902"
type ParticipantID struct {
	Scheme string
	Value  string
}

// NewParticipantID creates a participant identifier. An empty scheme
// selects DefaultParticipantScheme.
func NewParticipantID(scheme, value string) ParticipantID {
	if scheme == "" {
		scheme = DefaultParticipantScheme
	}
	return ParticipantID{Scheme: scheme, Value: value}
}

func (p ParticipantID) String() string { return p.Value }

// IsZero reports whether the participant has no value
func (p ParticipantID) IsZero() bool { return p.Value == "" }

// DocumentTypeID identifies a business document schema and version.
// The value form is rootNamespace::localName##customizationId::version.
type DocumentTypeID struct {
	Scheme          string
	RootNamespace   string
	LocalName       string
	CustomizationID string
	Version         string
}

// ParseDocumentTypeID parses the value of a document identifier header
func ParseDocumentTypeID(scheme, value string) (DocumentTypeID, error) {
	if err := checkScheme(scheme); err != nil {
		return DocumentTypeID{}, err
	}
	if scheme == "" {
		scheme = DefaultDocumentTypeScheme
	}

	value = strings.TrimSpace(value)
	syntax, customization, ok := strings.Cut(value, "##")
	if !ok {
		return DocumentTypeID{}, fmt.Errorf("%w: document type %q lacks '##' separator", ErrMalformed, value)
	}
	root, local, ok := strings.Cut(syntax, "::")
	if !ok || root == "" || local == "" {
		return DocumentTypeID{}, fmt.Errorf("%w: document type %q must start with rootNamespace::localName", ErrMalformed, value)
	}
	// the customization id may itself contain "::" so the version is taken from the right
	i := strings.LastIndex(customization, "::")
	if i <= 0 || i+2 == len(customization) {
		return DocumentTypeID{}, fmt.Errorf("%w: document type %q must end with customizationId::version", ErrMalformed, value)
	}

	return DocumentTypeID{
		Scheme:          scheme,
		RootNamespace:   root,
		LocalName:       local,
		CustomizationID: customization[:i],
		Version:         customization[i+2:],
	}, nil
}

// String returns the canonical value form
func (d DocumentTypeID) String() string {
	if d.RootNamespace == "" && d.LocalName == "" {
		return ""
	}
	return d.RootNamespace + "::" + d.LocalName + "##" + d.CustomizationID + "::" + d.Version
}

// IsZero reports whether the identifier is unset
func (d DocumentTypeID) IsZero() bool { return d.String() == "" }

// ProcessTypeID identifies the business process a message belongs to
type ProcessTypeID struct {
	Scheme string
	Value  string
}

// ParseProcessTypeID parses the value of a process identifier header
func ParseProcessTypeID(scheme, value string) (ProcessTypeID, error) {
	if err := checkScheme(scheme); err != nil {
		return ProcessTypeID{}, err
	}
	if scheme == "" {
		scheme = DefaultProcessTypeScheme
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return ProcessTypeID{}, fmt.Errorf("%w: empty process type", ErrMalformed)
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return ProcessTypeID{}, fmt.Errorf("%w: process type %q contains whitespace", ErrMalformed, value)
	}
	return ProcessTypeID{Scheme: scheme, Value: value}, nil
}

func (p ProcessTypeID) String() string { return p.Value }

// IsZero reports whether the identifier is unset
func (p ProcessTypeID) IsZero() bool { return p.Value == "" }

func checkScheme(scheme string) error {
	if strings.ContainsAny(scheme, " \t\r\n") {
		return fmt.Errorf("%w: scheme %q contains whitespace", ErrMalformed, scheme)
	}
	return nil
}

// PathSegment makes an identifier usable as a file or directory name by
// replacing every ':' with '_'. No other characters are touched.
func PathSegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// CheckPathSegment reports whether s stays a single directory entry once
// passed through PathSegment. Separators, NUL and the dot names are refused.
func CheckPathSegment(s string) error {
	switch {
	case s == "", s == ".", s == "..":
		return fmt.Errorf("%w: %q", ErrUnsafePathSegment, s)
	case strings.ContainsAny(s, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrUnsafePathSegment, s)
	}
	return nil
}
