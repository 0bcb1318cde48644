package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cadastre-backend-go/internal/documents"
)

// DocumentResolver verifies case file URLs on the document service.
type DocumentResolver interface {
	Resolve(ctx context.Context, code, idToken string) (string, error)
}

type documentService struct {
	resolver DocumentResolver
	perms    PermissionService
	logger   *zap.Logger
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(resolver DocumentResolver, perms PermissionService, logger *zap.Logger) DocumentService {
	return &documentService{resolver: resolver, perms: perms, logger: logger}
}

// Open returns the case file of a parcel code. Only a 2xx answer from the document
// service yields a URL.
func (s *documentService) Open(ctx context.Context, sess *Session, code string) (*DocumentLink, error) {
	perms := s.perms.Load(sess)
	if !perms.CanOpenDocuments {
		return nil, fmt.Errorf("%w: documents are disabled for this user", ErrForbidden)
	}

	u, err := s.resolver.Resolve(ctx, code, sess.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrEmptyCode):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case errors.Is(err, documents.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", code, ErrDocumentNotFound)
		case errors.Is(err, documents.ErrForbidden):
			return nil, fmt.Errorf("%s: %w: %v", code, ErrForbidden, err)
		default:
			return nil, upstreamErr("resolve document", err)
		}
	}

	s.logger.Debug("Opened case file", zap.String("uid", sess.UID), zap.String("code", code))
	return &DocumentLink{
		Code:        code,
		URL:         u,
		FrameURL:    documents.FrameURL(u, perms.CanPrint, perms.CanDownload),
		CanPrint:    perms.CanPrint,
		CanDownload: perms.CanDownload,
	}, nil
}
