package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"cadastre-backend-go/internal/models"
)

const preferencesCollection = "preferencias"

type firestorePreferencesRepository struct {
	client *firestore.Client
}

// NewFirestorePreferencesRepository creates a PreferencesRepository backed by Firestore.
func NewFirestorePreferencesRepository(client *firestore.Client) PreferencesRepository {
	return &firestorePreferencesRepository{client: client}
}

func (r *firestorePreferencesRepository) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for Get operation")
	}
	docSnap, err := r.client.Collection(preferencesCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, storeError("get preferences", userID, err)
	}
	var prefs models.Preferences
	if err := docSnap.DataTo(&prefs); err != nil {
		return nil, fmt.Errorf("failed to decode preferences for ID '%s': %w", userID, err)
	}
	prefs.UserID = docSnap.Ref.ID
	if prefs.ActiveLayers == nil {
		prefs.ActiveLayers = []string{}
	}
	return &prefs, nil
}

// Create writes the full record, replacing anything already there.
func (r *firestorePreferencesRepository) Create(ctx context.Context, prefs *models.Preferences) error {
	if prefs.UserID == "" {
		return errors.New("userID cannot be empty for Create operation")
	}
	if _, err := r.client.Collection(preferencesCollection).Doc(prefs.UserID).Set(ctx, prefs); err != nil {
		return storeError("create preferences", prefs.UserID, err)
	}
	return nil
}

func (r *firestorePreferencesRepository) Patch(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Patch operation")
	}
	if _, err := r.client.Collection(preferencesCollection).Doc(userID).Set(ctx, fields, firestore.MergeAll); err != nil {
		return storeError("patch preferences", userID, err)
	}
	return nil
}
