// Package identity wraps the identity provider's admin API: user lookup, creation
// and custom claims.
package identity

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// Custom claims this service understands.
const (
	ClaimAdmin      = "admin"
	ClaimSuperAdmin = "superAdmin"
)

// ErrUserNotFound is returned when no identity has the requested email or UID.
var ErrUserNotFound = errors.New("identity not found")

// ErrUnknownClaim rejects claims other than admin and superAdmin.
var ErrUnknownClaim = errors.New("unknown claim")

// FirebaseDirectory manages identities through the Firebase Auth admin client.
type FirebaseDirectory struct {
	client *auth.Client
}

// NewFirebaseDirectory creates a FirebaseDirectory.
func NewFirebaseDirectory(client *auth.Client) *FirebaseDirectory {
	return &FirebaseDirectory{client: client}
}

// LookupUID returns the UID registered for email.
func (d *FirebaseDirectory) LookupUID(ctx context.Context, email string) (string, error) {
	rec, err := d.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", fmt.Errorf("%s: %w", email, ErrUserNotFound)
		}
		return "", fmt.Errorf("get user by email: %w", err)
	}
	return rec.UID, nil
}

// CreateUser registers a password identity and returns its UID.
func (d *FirebaseDirectory) CreateUser(ctx context.Context, email, password string) (string, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	rec, err := d.client.CreateUser(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return rec.UID, nil
}

// SetClaim sets one boolean claim, keeping the identity's other custom claims.
// It returns the claims now stored.
func (d *FirebaseDirectory) SetClaim(ctx context.Context, uid, claim string, value bool) (map[string]interface{}, error) {
	if claim != ClaimAdmin && claim != ClaimSuperAdmin {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClaim, claim)
	}
	rec, err := d.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, fmt.Errorf("%s: %w", uid, ErrUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	claims := MergeClaims(rec.CustomClaims, claim, value)
	if err := d.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return nil, fmt.Errorf("set custom claims: %w", err)
	}
	return claims, nil
}

// MergeClaims returns a copy of existing with claim set to value.
func MergeClaims(existing map[string]interface{}, claim string, value bool) map[string]interface{} {
	out := make(map[string]interface{}, len(existing)+1)
	for k, v := range existing {
		out[k] = v
	}
	out[claim] = value
	return out
}

// ClaimTrue reads a boolean claim; anything but true is false.
func ClaimTrue(claims map[string]interface{}, name string) bool {
	v, ok := claims[name].(bool)
	return ok && v
}
