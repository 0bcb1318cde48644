package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/models"
	"cadastre-backend-go/pkg/messagequeue"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
	publisher messagequeue.Publisher
	queue     string
	logger    *zap.Logger
}

// NewAuditService creates an AuditService. Entries are stored first and then
// published to queue; a failed publish is logged and does not fail the write.
func NewAuditService(auditRepo db.AuditRepository, publisher messagequeue.Publisher, queue string, logger *zap.Logger) AuditService {
	if publisher == nil {
		publisher = messagequeue.NopPublisher{}
	}
	return &auditService{auditRepo: auditRepo, publisher: publisher, queue: queue, logger: logger}
}

func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		return storeErr("create audit log", err)
	}

	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(logEntry)
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.queue, body); err != nil {
		s.logger.Warn("Failed to publish audit log", zap.String("action", logEntry.Action), zap.Error(err))
	}
	return nil
}
