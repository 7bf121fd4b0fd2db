package repository

import (
	"errors"
	"fmt"

	"github.com/sirosfoundation/go-peppol-inbound/pkg/identifier"
)

var (
	// ErrInvalidHeader is returned when a header lacks one of the six transport identifiers
	ErrInvalidHeader = errors.New("message header is incomplete")
	// ErrStorageUnavailable matches every StorageUnavailableError
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrPersistence matches every PersistenceError
	ErrPersistence = errors.New("persisting message failed")
	// ErrInvalidDescriptor is returned when an _info.xml file cannot be interpreted
	ErrInvalidDescriptor = errors.New("invalid message descriptor")
	// ErrOutsideRoot is returned when identifiers would place a file outside the storage root
	ErrOutsideRoot = errors.New("path outside storage root")

	errNotDirectory = errors.New("not a directory")
	errNilDocument  = errors.New("nil document")
)

// StorageUnavailableError reports that the message directory could not be
// created or is not a writable directory. Nothing was written.
type StorageUnavailableError struct {
	MessageID identifier.MessageID
	Dir       string
	Err       error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage directory %s unavailable for message %s: %v", e.Dir, e.MessageID, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func (e *StorageUnavailableError) Is(target error) bool { return target == ErrStorageUnavailable }

// PersistenceError reports a failed artifact write. Artifacts written before
// the failing one are left on disk.
type PersistenceError struct {
	MessageID identifier.MessageID
	Path      string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("unable to persist message %s: writing %s: %v", e.MessageID, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
