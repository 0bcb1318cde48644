package models

import (
	"strings"
	"time"
)

// User is the per-user permission record kept in the "usuarios" collection.
// The document ID is the identity provider UID.
//
// Several fields exist in near-duplicate spellings because records were written by
// different generations of the admin tooling. DisplayLabel, Mail and the session
// resolver collapse them into one value each.
type User struct {
	ID          string `json:"id" firestore:"-"`
	Email       string `json:"email,omitempty" firestore:"email,omitempty"`
	Correo      string `json:"correo,omitempty" firestore:"correo,omitempty"`
	Nombre      string `json:"Nombre,omitempty" firestore:"Nombre,omitempty"`
	NombreLower string `json:"nombre,omitempty" firestore:"nombre,omitempty"`
	DisplayName string `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`

	Admin      bool   `json:"admin" firestore:"admin"`
	SuperAdmin bool   `json:"superAdmin,omitempty" firestore:"superAdmin,omitempty"`
	Super      bool   `json:"super,omitempty" firestore:"super,omitempty"`
	Tipo       string `json:"tipo,omitempty" firestore:"tipo,omitempty"`

	// Absent means allowed.
	AllowPopup *bool `json:"allowPopup,omitempty" firestore:"allowPopup,omitempty"`
	CanPrint   *bool `json:"canPrint,omitempty" firestore:"canPrint,omitempty"`
	CanDown    *bool `json:"canDown,omitempty" firestore:"canDown,omitempty"`
	ShowPdf    *bool `json:"showPdf,omitempty" firestore:"showPdf,omitempty"`

	VisibleFields  []string `json:"visibleFields,omitempty" firestore:"visibleFields,omitempty"`
	AllowAllLayers bool     `json:"allowAllLayers" firestore:"allowAllLayers,omitempty"`
	AllowedLayers  []string `json:"allowedLayers,omitempty" firestore:"allowedLayers,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// DisplayLabel returns the first populated name field.
func (u *User) DisplayLabel() string {
	for _, n := range []string{u.Nombre, u.NombreLower, u.DisplayName} {
		if n != "" {
			return n
		}
	}
	return ""
}

// Mail returns the first populated email field.
func (u *User) Mail() string {
	if u.Correo != "" {
		return u.Correo
	}
	return u.Email
}

// IsSuperRecord reports whether the record itself marks a super-admin.
func (u *User) IsSuperRecord() bool {
	return u.SuperAdmin || u.Super
}

// IsAdminRecord reports whether the record itself marks an admin. Super implies admin.
func (u *User) IsAdminRecord() bool {
	return u.IsSuperRecord() || u.Admin || strings.EqualFold(strings.TrimSpace(u.Tipo), "administrador")
}

// HasRestrictedLayers reports an explicit, non-empty allow-list without the all-layers flag.
func (u *User) HasRestrictedLayers() bool {
	return !u.AllowAllLayers && len(u.AllowedLayers) > 0
}

// FlagOrDefault reads a tri-state permission flag where nil means allowed.
func FlagOrDefault(v *bool) bool {
	return v == nil || *v
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
