package repository

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/identifier"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/inbound"
)

// TimeStampLayout is the format of the descriptor TimeStamp element (UTC)
const TimeStampLayout = "2006-01-02T15:04:05"

// Descriptor element names besides the transport identifier names
const (
	elemInfo            = "Info"
	elemTimeStamp       = "TimeStamp"
	elemMessageFileName = "MessageFileName"
	elemCertFileName    = "CertFileName"
	elemSamlFileName    = "SamlFileName"
	elemSenderSubject   = "SenderSubject"
)

// Descriptor is the content of an _info.xml file
type Descriptor struct {
	TimeStamp       time.Time `json:"timeStamp"`
	MessageFileName string    `json:"messageFileName"`
	CertFileName    string    `json:"certFileName"`
	SamlFileName    string    `json:"samlFileName"`
	MessageID       string    `json:"messageId"`
	ChannelID       string    `json:"channelId"`
	RecipientID     string    `json:"recipientId"`
	SenderID        string    `json:"senderId"`
	DocumentID      string    `json:"documentId"`
	ProcessID       string    `json:"processId"`
	SenderSubject   string    `json:"senderSubject,omitempty"`
}

func newDescriptor(header *inbound.MessageHeader, paths Artifacts, now time.Time) *Descriptor {
	return &Descriptor{
		TimeStamp:       now.UTC().Truncate(time.Second),
		MessageFileName: paths.Message,
		CertFileName:    paths.Cert,
		SamlFileName:    paths.Saml,
		MessageID:       header.MessageID.String(),
		ChannelID:       header.ChannelID.String(),
		RecipientID:     header.RecipientID.String(),
		SenderID:        header.SenderID.String(),
		DocumentID:      header.DocumentTypeID.String(),
		ProcessID:       header.ProcessTypeID.String(),
		SenderSubject:   header.SenderSubject,
	}
}

// fields returns element name/value pairs in their fixed document order
func (d *Descriptor) fields() [][2]string {
	return [][2]string{
		{elemTimeStamp, d.TimeStamp.UTC().Format(TimeStampLayout)},
		{elemMessageFileName, d.MessageFileName},
		{elemCertFileName, d.CertFileName},
		{elemSamlFileName, d.SamlFileName},
		{identifier.MessageIDName.String(), d.MessageID},
		{identifier.ChannelIDName.String(), d.ChannelID},
		{identifier.RecipientIDName.String(), d.RecipientID},
		{identifier.SenderIDName.String(), d.SenderID},
		{identifier.DocumentIDName.String(), d.DocumentID},
		{identifier.ProcessIDName.String(), d.ProcessID},
		{elemSenderSubject, d.SenderSubject},
	}
}

// WriteTo writes the descriptor as an Info XML document
func (d *Descriptor) WriteTo(w io.Writer) (int64, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	info := doc.CreateElement(elemInfo)
	for _, f := range d.fields() {
		info.CreateElement(f[0]).SetText(f[1])
	}
	return doc.WriteTo(w)
}

// ReadDescriptor parses an _info.xml file
func ReadDescriptor(path string) (*Descriptor, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}

	info := doc.Root()
	if info == nil || info.Tag != elemInfo {
		return nil, fmt.Errorf("%w: %s has no Info root", ErrInvalidDescriptor, path)
	}

	text := func(name string) string {
		if e := info.SelectElement(name); e != nil {
			return e.Text()
		}
		return ""
	}

	d := &Descriptor{
		MessageFileName: text(elemMessageFileName),
		CertFileName:    text(elemCertFileName),
		SamlFileName:    text(elemSamlFileName),
		MessageID:       text(identifier.MessageIDName.String()),
		ChannelID:       text(identifier.ChannelIDName.String()),
		RecipientID:     text(identifier.RecipientIDName.String()),
		SenderID:        text(identifier.SenderIDName.String()),
		DocumentID:      text(identifier.DocumentIDName.String()),
		ProcessID:       text(identifier.ProcessIDName.String()),
		SenderSubject:   text(elemSenderSubject),
	}
	if d.MessageID == "" {
		return nil, fmt.Errorf("%w: %s has no %s", ErrInvalidDescriptor, path, identifier.MessageIDName)
	}

	ts, err := time.ParseInLocation(TimeStampLayout, text(elemTimeStamp), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, path, err)
	}
	d.TimeStamp = ts

	return d, nil
}

// ListInbound returns the descriptors of all messages received by recipient
// from sender, ordered by message id. A directory that does not exist yet
// yields an empty result.
func ListInbound(root string, recipient, sender identifier.ParticipantID) ([]*Descriptor, error) {
	if err := checkSegments(recipient, sender); err != nil {
		return nil, err
	}
	dir := participantDirectory(root, recipient, sender)
	if err := checkContained(root, dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var descriptors []*Descriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), DescriptorSuffix) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		d, err := ReadDescriptor(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].MessageID < descriptors[j].MessageID
	})
	return descriptors, nil
}
