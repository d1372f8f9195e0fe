package accounts

import (
	"errors"
	"fmt"
)

// ErrNoAccountsSelected means an export resolved to zero accounts.
var ErrNoAccountsSelected = errors.New("no accounts selected for export")

// AccountNotFoundError means the id has no metadata entry.
type AccountNotFoundError struct {
	ID string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", e.ID)
}

// UnsupportedFileVersionError rejects export files newer than this build
// understands.
type UnsupportedFileVersionError struct {
	Version uint32
}

func (e *UnsupportedFileVersionError) Error() string {
	return fmt.Sprintf("unsupported export file version %d", e.Version)
}

// CredentialError wraps a credential store failure with the operation that
// hit it.
type CredentialError struct {
	Op  string
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential store: %s: %v", e.Op, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// ValidationError is a local input validation failure.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Detail
}
