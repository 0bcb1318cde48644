package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"cadastre-backend-go/internal/models"
)

const usersCollection = "usuarios"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client, logger *zap.Logger) UserRepository {
	if client == nil {
		logger.Fatal("Firestore client is not initialized for UserRepository")
	}
	return &firestoreUserRepository{client: client, logger: logger}
}

// GetByID retrieves a permission record by identity UID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, storeError("get user", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID
	return &user, nil
}

// List scans the whole collection. Records that fail to decode are skipped.
func (r *firestoreUserRepository) List(ctx context.Context) ([]*models.User, error) {
	iter := r.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []*models.User
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, storeError("list users", usersCollection, err)
		}
		var user models.User
		if err := doc.DataTo(&user); err != nil {
			r.logger.Warn("Skipping undecodable user record", zap.String("userID", doc.Ref.ID), zap.Error(err))
			continue
		}
		user.ID = doc.Ref.ID
		users = append(users, &user)
	}
	return users, nil
}

// Patch merges fields into the record and stamps updatedAt.
func (r *firestoreUserRepository) Patch(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Patch operation")
	}
	data := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data["updatedAt"] = firestore.ServerTimestamp

	if _, err := r.client.Collection(usersCollection).Doc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return storeError("patch user", userID, err)
	}
	return nil
}
