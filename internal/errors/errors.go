// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotSignedIn      = errors.New("not signed in")
	ErrAccountNotFound  = errors.New("account not found")
	ErrTradeNotFound    = errors.New("trade not found")
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrRemoteClosed     = errors.New("remote store closed")
)

// User-facing import failure messages. The import flow surfaces these
// verbatim, so they are fixed strings, not wrapped errors.
const (
	MsgInvalidBackupFormat = "Invalid backup file format"
	MsgBackupParseFailed   = "Failed to parse backup file"
	MsgBackupReadFailed    = "Failed to read file"
)

// StorageError represents a failure reading or writing the local store.
// Reads recover by substituting a default value; the error is logged only.
type StorageError struct {
	Collection string
	Op         string // "load", "save"
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [%s] %s: %v", e.Collection, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError.
func NewStorageError(collection, op string, err error) *StorageError {
	return &StorageError{Collection: collection, Op: op, Err: err}
}

// RemoteWriteError represents a rejected remote create/update/delete/upload.
// Optimistic in-memory state is never rolled back for these; reconciliation
// happens on the next authoritative snapshot.
type RemoteWriteError struct {
	Collection string
	DocID      string
	Op         string
	Err        error
}

func (e *RemoteWriteError) Error() string {
	if e.DocID != "" {
		return fmt.Sprintf("remote write error [%s/%s] %s: %v", e.Collection, e.DocID, e.Op, e.Err)
	}
	return fmt.Sprintf("remote write error [%s] %s: %v", e.Collection, e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// NewRemoteWriteError creates a new RemoteWriteError.
func NewRemoteWriteError(collection, docID, op string, err error) *RemoteWriteError {
	return &RemoteWriteError{Collection: collection, DocID: docID, Op: op, Err: err}
}

// MigrationError represents a failed local-to-cloud migration pass. The
// completion marker is withheld so the next sign-in retries the upload.
type MigrationError struct {
	Identity   string
	Collection string
	Err        error
}

func (e *MigrationError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("migration error [%s] %s: %v", e.Identity, e.Collection, e.Err)
	}
	return fmt.Sprintf("migration error [%s]: %v", e.Identity, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a new MigrationError.
func NewMigrationError(identity, collection string, err error) *MigrationError {
	return &MigrationError{Identity: identity, Collection: collection, Err: err}
}

// ImportError represents a rejected backup import. Message is one of the
// Msg* constants and is shown to the user as-is; no partial import occurs.
type ImportError struct {
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new ImportError.
func NewImportError(message string, err error) *ImportError {
	return &ImportError{Message: message, Err: err}
}

// IsImportError reports whether err is an ImportError and returns it.
func IsImportError(err error) (*ImportError, bool) {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
