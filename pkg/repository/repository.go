package repository

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/inbound"
	"go.uber.org/multierr"
)

// MessageRepository persists inbound messages
type MessageRepository interface {
	SaveInboundMessage(root string, header *inbound.MessageHeader, body *etree.Document) error
}

var _ MessageRepository = (*FileRepository)(nil)

// FileRepository stores each inbound message as four files below
// root/{recipientId}/{senderId}. It holds no state between calls; saves of
// distinct message ids may run concurrently.
type FileRepository struct {
	renderer Renderer
	logger   *slog.Logger
	now      func() time.Time
	atomic   bool
}

// Option configures a FileRepository
type Option func(*FileRepository)

// WithRenderer sets the renderer used for message bodies
func WithRenderer(r Renderer) Option {
	return func(fr *FileRepository) {
		fr.renderer = r
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(fr *FileRepository) {
		fr.logger = logger
	}
}

// WithClock sets the time source for descriptor timestamps
func WithClock(now func() time.Time) Option {
	return func(fr *FileRepository) {
		fr.now = now
	}
}

// WithAtomicWrites makes every artifact appear under its final name only
// once completely written. Each file is staged under a temporary name in
// the same directory and renamed into place.
func WithAtomicWrites(enabled bool) Option {
	return func(fr *FileRepository) {
		fr.atomic = enabled
	}
}

// NewFileRepository creates a file based message repository
func NewFileRepository(opts ...Option) *FileRepository {
	r := &FileRepository{
		renderer: XMLRenderer{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SaveInboundMessage writes the body, sender certificate, SAML assertion and
// descriptor of a message. Steps run in that order; the first failure stops
// the sequence and files already written are left in place. Saving the same
// message id again overwrites its files.
func (r *FileRepository) SaveInboundMessage(root string, header *inbound.MessageHeader, body *etree.Document) error {
	if !header.Valid() {
		return ErrInvalidHeader
	}
	target := InboundDirectory(root, header)
	if err := checkSegments(header.RecipientID, header.SenderID, header.MessageID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if err := checkContained(root, target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	log := r.logger.With(slog.String("message_id", header.MessageID.String()))

	dir, err := r.prepareDirectory(target)
	if err != nil {
		return &StorageUnavailableError{MessageID: header.MessageID, Dir: target, Err: err}
	}

	paths := ArtifactPaths(dir, header.MessageID)

	steps := []struct {
		path  string
		write func(io.Writer) error
	}{
		{paths.Message, func(w io.Writer) error { return r.renderer.Render(w, body) }},
		{paths.Cert, writeString(header.SenderCert)},
		{paths.Saml, writeString(header.SamlAssertionXML)},
		{paths.Descriptor, func(w io.Writer) error {
			_, err := newDescriptor(header, paths, r.now()).WriteTo(w)
			return err
		}},
	}

	for _, step := range steps {
		if err := r.writeFile(step.path, step.write); err != nil {
			log.Error("failed to persist message", slog.String("file", step.path), slog.String("error", err.Error()))
			return &PersistenceError{MessageID: header.MessageID, Path: step.path, Err: err}
		}
		log.Debug("file written", slog.String("file", step.path))
	}

	log.Info("inbound message stored",
		slog.String("dir", dir),
		slog.String("sender", header.SenderID.String()),
		slog.String("recipient", header.RecipientID.String()),
		slog.String("channel", header.ChannelID.String()))
	return nil
}

// prepareDirectory creates dir if needed and returns its absolute path
func (r *FileRepository) prepareDirectory(dir string) (string, error) {
	if err := EnsureWritable(dir); err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}

// EnsureWritable creates dir if needed and verifies that it is a directory
// in which files can be created
func EnsureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errNotDirectory
	}

	if err := probeWritable(dir); err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	return nil
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	return multierr.Combine(f.Close(), os.Remove(f.Name()))
}

func (r *FileRepository) writeFile(path string, write func(io.Writer) error) error {
	target := path
	if r.atomic {
		target = filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	err = write(bw)
	if err == nil {
		err = bw.Flush()
	}
	err = multierr.Append(err, f.Close())

	if r.atomic {
		if err == nil {
			err = os.Rename(target, path)
		}
		if err != nil {
			os.Remove(target)
		}
	}
	return err
}

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}
