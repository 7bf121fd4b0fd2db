package repository

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirosfoundation/go-peppol-inbound/pkg/identifier"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/inbound"
)

// Artifact file name suffixes, appended to the sanitized message id
const (
	MessageSuffix    = "_message.xml"
	CertSuffix       = ".cer"
	SamlSuffix       = "_saml.xml"
	DescriptorSuffix = "_info.xml"
)

// Artifacts holds the paths of the four files stored for one message
type Artifacts struct {
	Message    string
	Cert       string
	Saml       string
	Descriptor string
}

// ArtifactPaths returns the artifact paths for messageID inside dir
func ArtifactPaths(dir string, messageID identifier.MessageID) Artifacts {
	stem := identifier.PathSegment(messageID.String())
	return Artifacts{
		Message:    filepath.Join(dir, stem+MessageSuffix),
		Cert:       filepath.Join(dir, stem+CertSuffix),
		Saml:       filepath.Join(dir, stem+SamlSuffix),
		Descriptor: filepath.Join(dir, stem+DescriptorSuffix),
	}
}

// InboundDirectory computes root/{recipientId}/{senderId}
func InboundDirectory(root string, header *inbound.MessageHeader) string {
	return participantDirectory(root, header.RecipientID, header.SenderID)
}

// OutboundDirectory computes root/{senderId}/{recipientId}, the mirror of
// the inbound layout used by outbound senders
func OutboundDirectory(root string, header *inbound.MessageHeader) string {
	return participantDirectory(root, header.SenderID, header.RecipientID)
}

func participantDirectory(root string, first, second identifier.ParticipantID) string {
	return filepath.Join(root,
		identifier.PathSegment(first.String()),
		identifier.PathSegment(second.String()))
}

// checkContained verifies that dir is a proper descendant of root
func checkContained(root, dir string) error {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(dir))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutsideRoot, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, dir)
	}
	return nil
}

// checkSegments verifies that each identifier names a single directory entry
func checkSegments(ids ...fmt.Stringer) error {
	for _, id := range ids {
		if err := identifier.CheckPathSegment(id.String()); err != nil {
			return fmt.Errorf("%w: %v", ErrOutsideRoot, err)
		}
	}
	return nil
}
