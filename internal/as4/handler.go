// Package as4 provides message intake for the inbound access point.
//
// # Message Flow (Inbound)
//
//  1. HTTP POST received with a SOAP envelope, either as the whole body or
//     as the first part of a multipart/related body, optionally GZIP encoded
//  2. SOAP envelope parsed and the BusDox transport headers extracted
//  3. Sender certificate and SAML assertion captured from WS-Security
//     headers and the TLS connection
//  4. Duplicate message ids detected and logged
//  5. Message persisted by the message repository
package as4

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/compression"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/inbound"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/reliability"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/repository"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/soap"
)

// ErrUnsupportedContentType is returned for request bodies that cannot carry a SOAP envelope
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Handler accepts inbound messages and hands them to a message repository
type Handler struct {
	repository   repository.MessageRepository
	inboundRoot  string
	outboundRoot string
	extractor    *inbound.SecurityExtractor
	duplicates   *reliability.DuplicateDetector
	logger       *slog.Logger
}

// Config holds handler configuration
type Config struct {
	Repository  repository.MessageRepository
	InboundRoot string
	// OutboundRoot is where an outbound sender keeps documents for this
	// sender/recipient pair. Optional.
	OutboundRoot string
	// Duplicates is optional; without it duplicate ids are not reported
	Duplicates *reliability.DuplicateDetector
	Logger     *slog.Logger
}

// NewHandler creates a new intake handler
func NewHandler(cfg *Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repository:   cfg.Repository,
		inboundRoot:  cfg.InboundRoot,
		outboundRoot: cfg.OutboundRoot,
		extractor:    inbound.NewSecurityExtractor(logger),
		duplicates:   cfg.Duplicates,
		logger:       logger,
	}
}

// InboundResult contains the result of processing an inbound message
type InboundResult struct {
	// ReceiptID identifies this reception; it is generated per request
	ReceiptID     string
	MessageID     string
	ChannelID     string
	SenderID      string
	RecipientID   string
	SenderSubject string
	// Namespace is the SOAP namespace of the request, used for the reply
	Namespace string
	// OutboundDir is the mirror directory below the outbound root, empty
	// when no outbound root is configured
	OutboundDir string
	Duplicate   bool
	Diagnostics []inbound.Diagnostic
}

// InboundError is returned by HandleInbound. Namespace is the SOAP namespace
// of the request when the envelope could be parsed.
type InboundError struct {
	Namespace string
	MessageID string
	Err       error
}

func (e *InboundError) Error() string {
	if e.MessageID != "" {
		return fmt.Sprintf("message %s: %v", e.MessageID, e.Err)
	}
	return e.Err.Error()
}

func (e *InboundError) Unwrap() error { return e.Err }

// IsClientError reports whether err was caused by the request content
// rather than by the receiving side
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrUnsupportedContentType,
		soap.ErrInvalidEnvelope,
		soap.ErrEmptyBody,
		inbound.ErrMissingHeader,
		inbound.ErrMalformedIdentifier,
		repository.ErrInvalidHeader,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// HandleInbound processes an incoming message
func (h *Handler) HandleInbound(ctx context.Context, r *http.Request) (*InboundResult, error) {
	body, err := compression.NewReader(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, &InboundError{Err: fmt.Errorf("%w: %v", ErrUnsupportedContentType, err)}
	}
	defer body.Close()

	envelopeBytes, err := readEnvelope(body, r.Header.Get("Content-Type"))
	if err != nil {
		return nil, &InboundError{Err: err}
	}

	env, err := soap.Parse(envelopeBytes)
	if err != nil {
		return nil, &InboundError{Err: err}
	}

	header, err := inbound.ParseHeaders(env)
	if err != nil {
		return nil, &InboundError{Namespace: env.Namespace, Err: err}
	}
	fail := func(err error) error {
		return &InboundError{Namespace: env.Namespace, MessageID: header.MessageID.String(), Err: err}
	}
	log := h.logger.With(slog.String("message_id", header.MessageID.String()))

	document, err := env.BodyDocument()
	if err != nil {
		return nil, fail(err)
	}

	evidence := h.extractor.ExtractSecurity(&inbound.RequestSecurityContext{Envelope: env, TLS: r.TLS})
	header = header.WithSecurity(evidence)

	duplicate := h.duplicates != nil && h.duplicates.IsDuplicate(header.MessageID.String())
	if duplicate {
		log.Info("duplicate message received, storing again")
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}

	if err := h.repository.SaveInboundMessage(h.inboundRoot, header, document); err != nil {
		log.Error("storing message failed", slog.String("error", err.Error()))
		return nil, fail(err)
	}
	if h.duplicates != nil {
		h.duplicates.MarkReceived(header.MessageID.String())
	}

	var outboundDir string
	if h.outboundRoot != "" {
		outboundDir = repository.OutboundDirectory(h.outboundRoot, header)
	}

	log.Info("message received",
		slog.String("from", header.SenderID.String()),
		slog.String("to", header.RecipientID.String()),
		slog.String("document", header.DocumentTypeID.String()),
		slog.String("process", header.ProcessTypeID.String()),
		slog.String("signer", header.SenderSubject),
		slog.String("outbound_dir", outboundDir))

	return &InboundResult{
		ReceiptID:     uuid.NewString(),
		MessageID:     header.MessageID.String(),
		ChannelID:     header.ChannelID.String(),
		SenderID:      header.SenderID.String(),
		RecipientID:   header.RecipientID.String(),
		SenderSubject: header.SenderSubject,
		Namespace:     env.Namespace,
		OutboundDir:   outboundDir,
		Duplicate:     duplicate,
		Diagnostics:   evidence.Diagnostics,
	}, nil
}

// readEnvelope returns the SOAP envelope bytes of the request body
func readEnvelope(body io.Reader, contentType string) ([]byte, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))

	switch mediaType {
	case "", "text/xml", "application/soap+xml", "application/xml":
		return readAll(body)
	case "multipart/related":
		// handled below
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, mediaType)
	}

	boundary := extractBoundary(contentType)
	if boundary == "" {
		return nil, fmt.Errorf("%w: missing boundary in content type", ErrUnsupportedContentType)
	}

	mr := multipart.NewReader(body, boundary)

	// The SOAP envelope is the first part
	envelopePart, err := mr.NextPart()
	if err != nil {
		return nil, fmt.Errorf("%w: reading envelope part: %v", soap.ErrInvalidEnvelope, err)
	}
	defer envelopePart.Close()

	return readAll(envelopePart)
}

// readAll reads an envelope, inflating it when it is GZIP data sent without
// a Content-Encoding header
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading envelope: %w", err)
	}
	if !compression.IsGzip(data) {
		return data, nil
	}

	zr, err := compression.NewReader(bytes.NewReader(data), compression.EncodingGzip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", soap.ErrInvalidEnvelope, err)
	}
	defer zr.Close()

	data, err = io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: inflating envelope: %v", soap.ErrInvalidEnvelope, err)
	}
	return data, nil
}

func extractBoundary(contentType string) string {
	parts := strings.Split(contentType, ";")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "boundary=") {
			boundary := strings.TrimPrefix(p, "boundary=")
			return strings.Trim(boundary, "\"")
		}
	}
	return ""
}
