package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/models"
)

func TestSessionService_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(
		&models.User{ID: "plain", Correo: "ana@sicdi.mx", Nombre: "Ana"},
		&models.User{ID: "tipo", Tipo: "Administrador"},
		&models.User{ID: "legacy-super", Super: true},
		&models.User{ID: "record-admin", Admin: true},
	)
	svc := NewSessionService(repo, zap.NewNop())

	tests := []struct {
		name      string
		id        Identity
		wantAdmin bool
		wantSuper bool
	}{
		{name: "no roles", id: Identity{UID: "plain"}},
		{name: "superAdmin claim implies admin", id: Identity{UID: "plain", Claims: map[string]interface{}{"superAdmin": true}}, wantAdmin: true, wantSuper: true},
		{name: "admin claim", id: Identity{UID: "plain", Claims: map[string]interface{}{"admin": true}}, wantAdmin: true},
		{name: "tipo administrador", id: Identity{UID: "tipo"}, wantAdmin: true},
		{name: "legacy super field", id: Identity{UID: "legacy-super"}, wantAdmin: true, wantSuper: true},
		{name: "record admin", id: Identity{UID: "record-admin"}, wantAdmin: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.Resolve(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdmin, sess.Admin)
			assert.Equal(t, tt.wantSuper, sess.Super)
			if sess.Super {
				assert.True(t, sess.Admin, "super implies admin")
			}
		})
	}

	t.Run("falls back to record email and name", func(t *testing.T) {
		sess, err := svc.Resolve(ctx, Identity{UID: "plain", IDToken: "tok"})
		require.NoError(t, err)
		assert.Equal(t, "ana@sicdi.mx", sess.Email)
		assert.Equal(t, "Ana", sess.Name)
		assert.Equal(t, "tok", sess.IDToken)
	})

	t.Run("missing record is unauthorized", func(t *testing.T) {
		_, err := svc.Resolve(ctx, Identity{UID: "ghost", Claims: map[string]interface{}{"superAdmin": true}})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("read failure is unauthorized", func(t *testing.T) {
		failing := newFakeUserRepo()
		failing.err = fmt.Errorf("get user 'x': %w: denied", db.ErrPermissionDenied)
		_, err := NewSessionService(failing, zap.NewNop()).Resolve(ctx, Identity{UID: "x"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("empty uid", func(t *testing.T) {
		_, err := svc.Resolve(ctx, Identity{})
		assert.True(t, errors.Is(err, ErrUnauthorized))
	})
}
