package db

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrPermissionDenied is returned when the store rejects the caller.
	ErrPermissionDenied = errors.New("permission-denied")
)

// storeError wraps a Firestore error so callers can test it with errors.Is.
func storeError(op, id string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s '%s': %w", op, id, ErrNotFound)
	case codes.PermissionDenied:
		return fmt.Errorf("%s '%s': %w: %v", op, id, ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%s '%s': %w", op, id, err)
	}
}
