package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/identity"
)

type sessionService struct {
	users  db.UserRepository
	logger *zap.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(users db.UserRepository, logger *zap.Logger) SessionService {
	return &sessionService{users: users, logger: logger}
}

// Resolve reads the permission record of a verified identity and folds the
// identity claims and record flags into one admin and one super flag.
// Without a readable record there is no session.
func (s *sessionService) Resolve(ctx context.Context, id Identity) (*Session, error) {
	if id.UID == "" {
		return nil, fmt.Errorf("%w: empty uid", ErrUnauthorized)
	}
	rec, err := s.users.GetByID(ctx, id.UID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Signed-in identity has no permission record", zap.String("uid", id.UID))
			return nil, fmt.Errorf("%w: no permission record for %s", ErrUnauthorized, id.UID)
		}
		s.logger.Error("Failed to read permission record", zap.String("uid", id.UID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	super := identity.ClaimTrue(id.Claims, identity.ClaimSuperAdmin) || rec.IsSuperRecord()
	admin := identity.ClaimTrue(id.Claims, identity.ClaimAdmin) || rec.IsAdminRecord() || super

	sess := &Session{
		UID:     id.UID,
		Email:   id.Email,
		Name:    id.Name,
		Admin:   admin,
		Super:   super,
		Record:  rec,
		IDToken: id.IDToken,
	}
	if sess.Email == "" {
		sess.Email = rec.Mail()
	}
	if sess.Name == "" {
		sess.Name = rec.DisplayLabel()
	}
	return sess, nil
}
