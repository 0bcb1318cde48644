package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStoreError(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		err := storeError("get user", "u1", status.Error(codes.NotFound, "missing"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "u1")
	})

	t.Run("permission denied", func(t *testing.T) {
		err := storeError("get user", "u1", status.Error(codes.PermissionDenied, "rules"))
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("other errors keep their cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := storeError("patch user", "u1", cause)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
