package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"cadastre-backend-go/internal/models"
)

const auditCollection = "auditoria"

type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates an AuditRepository backed by Firestore.
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	return &firestoreAuditRepository{client: client}
}

// Create stores the entry under a generated ID. Timestamp is set server-side when zero.
func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	docRef := r.client.Collection(auditCollection).NewDoc()
	logEntry.ID = docRef.ID
	if _, err := docRef.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}
