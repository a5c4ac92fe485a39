// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the error taxonomy used across wardensync.
package errors

import (
	"fmt"
)

// Error types
const (
	// ErrMapping is returned when a vault item cannot be translated into a
	// mapping target. Non-fatal: the item is excluded from the sync plan.
	ErrMapping = "mapping"

	// ErrTransientStore is returned when a Secret Store or Vault Client call
	// fails in a way that is expected to succeed on a later attempt.
	ErrTransientStore = "transient_store"

	// ErrConfiguration is returned for missing credentials or an unreachable
	// vault/cluster. Fatal: the whole run aborts before any writes.
	ErrConfiguration = "configuration"

	// ErrBusy is returned when the run coordinator's queue is full.
	ErrBusy = "busy"

	// ErrVaultAuth is returned when authentication against the vault fails.
	ErrVaultAuth = "vault_auth"

	// ErrNotManaged is returned when a delete is refused because the target
	// secret does not carry the managed-by label.
	ErrNotManaged = "not_managed"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewMappingError creates a new mapping error
func NewMappingError(message string, cause error) *Error {
	return NewError(ErrMapping, message, cause)
}

// NewTransientStoreError creates a new transient store error
func NewTransientStoreError(message string, cause error) *Error {
	return NewError(ErrTransientStore, message, cause)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, cause error) *Error {
	return NewError(ErrConfiguration, message, cause)
}

// NewBusyError creates a new busy error
func NewBusyError(message string, cause error) *Error {
	return NewError(ErrBusy, message, cause)
}

// NewVaultAuthError creates a new vault authentication error
func NewVaultAuthError(message string, cause error) *Error {
	return NewError(ErrVaultAuth, message, cause)
}

// NewNotManagedError creates a new not-managed error
func NewNotManagedError(message string, cause error) *Error {
	return NewError(ErrNotManaged, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// IsMapping checks if the error is a mapping error
func IsMapping(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrMapping
}

// IsTransientStore checks if the error is a transient store error
func IsTransientStore(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrTransientStore
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrConfiguration
}

// IsBusy checks if the error is a busy error
func IsBusy(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrBusy
}

// IsVaultAuth checks if the error is a vault authentication error
func IsVaultAuth(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrVaultAuth
}

// IsNotManaged checks if the error is a not-managed error
func IsNotManaged(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrNotManaged
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrInternal
}
