package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the operator sees what went wrong regardless of
// how many layers wrapped it
type Kind string

const (
	KindInvalidInput            Kind = "InvalidInput"
	KindInvalidAddress          Kind = "InvalidAddress"
	KindInvalidAmount           Kind = "InvalidAmount"
	KindConfiguration           Kind = "ConfigurationError"
	KindProverService           Kind = "ProverServiceError"
	KindMalformedProverResponse Kind = "MalformedProverResponse"
	KindAmountConversion        Kind = "AmountConversionError"
	KindInvalidCredential       Kind = "InvalidCredential"
	KindBroadcast               Kind = "BroadcastError"
	KindConfirmationTimeout     Kind = "ConfirmationTimeout"
)

// Error is a classified failure
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError creates a classified error without a cause
func NewError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf creates a classified error with a formatted message
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies cause under kind
func WrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf returns the outermost Kind found in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any *Error in err's chain has the given Kind
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
