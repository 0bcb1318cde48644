package core

import (
	"errors"
	"fmt"

	"cadastre-backend-go/internal/db"
)

var (
	// ErrUnauthorized means the identity has no permission record. The session must end.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the session lacks a flag or role the operation needs.
	ErrForbidden = errors.New("forbidden")
	// ErrDocumentNotFound means the document service has no case file for the code.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrFeatureNotFound means no parcel answered at the requested point.
	ErrFeatureNotFound = errors.New("feature not found")
	// ErrUpstream wraps failures of the map server, geocoder or document service.
	ErrUpstream = errors.New("upstream service failed")
	// ErrStoreDenied means the document database rejected the caller.
	ErrStoreDenied = errors.New("permission-denied")
	// ErrInvalidInput rejects malformed requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound means the admin target has no permission record.
	ErrUserNotFound = errors.New("user not found")
)

// storeErr lifts a repository failure into the core vocabulary.
func storeErr(op string, err error) error {
	if errors.Is(err, db.ErrPermissionDenied) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreDenied, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func upstreamErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
}
