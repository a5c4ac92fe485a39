// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrMapping,
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			want: "mapping: test message: underlying error",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrTransientStore,
				Message: "test message",
				Cause:   nil,
			},
			want: "transient_store: test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{
		Type:    ErrInternal,
		Message: "test message",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Error.Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &Error{
		Type:    ErrInternal,
		Message: "test message",
		Cause:   nil,
	}

	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Error.Unwrap() = %v, want nil", got)
	}
}

func TestNewError(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewError(ErrConfiguration, "test message", cause)

	if err.Type != ErrConfiguration {
		t.Errorf("NewError().Type = %v, want %v", err.Type, ErrConfiguration)
	}
	if err.Message != "test message" {
		t.Errorf("NewError().Message = %v, want %v", err.Message, "test message")
	}
	if err.Cause != cause {
		t.Errorf("NewError().Cause = %v, want %v", err.Cause, cause)
	}
}

func TestTypeCheckers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"mapping matches", NewMappingError("bad tag", nil), IsMapping, true},
		{"mapping mismatch", NewBusyError("queue full", nil), IsMapping, false},
		{"busy matches", NewBusyError("queue full", nil), IsBusy, true},
		{"transient matches", NewTransientStoreError("write failed", nil), IsTransientStore, true},
		{"configuration matches", NewConfigurationError("no credentials", nil), IsConfiguration, true},
		{"vault auth matches", NewVaultAuthError("token rejected", nil), IsVaultAuth, true},
		{"not managed matches", NewNotManagedError("unmanaged secret", nil), IsNotManaged, true},
		{"plain error never matches", errors.New("plain"), IsBusy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
