package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrStorage       = errors.New("storage error")
	ErrDelivery      = errors.New("delivery error")
	ErrGroupNotFound = errors.New("group not registered")
	ErrEmptyReport   = &ValidationError{Field: "content", Reason: "report is empty"}
)

// ValidationError is bad user or admin input. No state was changed.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StorageError wraps a ledger I/O failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// DeliveryError is a failed send to one group.
type DeliveryError struct {
	ChatID  int64
	TopicID int64
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to chat %d (topic %d): %v", e.ChatID, e.TopicID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }
