package models

import "encoding/json"

// UserPermissionPatch is the admin editor's merge patch. Nil fields are left untouched.
type UserPermissionPatch struct {
	AllowPopup     *bool     `json:"allowPopup,omitempty"`
	CanPrint       *bool     `json:"canPrint,omitempty"`
	CanDown        *bool     `json:"canDown,omitempty"`
	ShowPdf        *bool     `json:"showPdf,omitempty"`
	VisibleFields  *[]string `json:"visibleFields,omitempty"`
	AllowAllLayers *bool     `json:"allowAllLayers,omitempty"`
	AllowedLayers  *[]string `json:"allowedLayers,omitempty"`
}

// Fields returns the Firestore field map of the populated members.
func (p UserPermissionPatch) Fields() map[string]interface{} {
	out := map[string]interface{}{}
	if p.AllowPopup != nil {
		out["allowPopup"] = *p.AllowPopup
	}
	if p.CanPrint != nil {
		out["canPrint"] = *p.CanPrint
	}
	if p.CanDown != nil {
		out["canDown"] = *p.CanDown
	}
	if p.ShowPdf != nil {
		out["showPdf"] = *p.ShowPdf
	}
	if p.VisibleFields != nil {
		out["visibleFields"] = nonNil(*p.VisibleFields)
	}
	if p.AllowAllLayers != nil {
		out["allowAllLayers"] = *p.AllowAllLayers
	}
	if p.AllowedLayers != nil {
		out["allowedLayers"] = nonNil(*p.AllowedLayers)
	}
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPermissionPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// ProvisionUserRequest creates or reuses an identity and its permission record.
type ProvisionUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Admin bool   `json:"admin"`
}

// SetAdminRequest toggles the admin flag of a record.
type SetAdminRequest struct {
	Admin bool `json:"admin"`
}

// PreferencesPatch updates any subset of the preferences record.
type PreferencesPatch struct {
	MapStyle      *string   `json:"mapStyle,omitempty"`
	ActiveLayers  *[]string `json:"capas,omitempty"`
	VisibleFields *[]string `json:"visibleFields,omitempty"`
}

// IdentifyRequest carries a map click and the viewport it happened in.
type IdentifyRequest struct {
	Lng    float64    `json:"lng"`
	Lat    float64    `json:"lat"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Width  int        `json:"width" binding:"required,gt=0"`
	Height int        `json:"height" binding:"required,gt=0"`
	BBox   [4]float64 `json:"bbox"` // [west, south, east, north] of the viewport
}

// SnapRequest carries one pin position in viewport pixels, the viewport it is
// dragged over and the road lines rendered in it. Release marks the drop.
type SnapRequest struct {
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Width   float64         `json:"width" binding:"required,gt=0"`
	Height  float64         `json:"height" binding:"required,gt=0"`
	BBox    [4]float64      `json:"bbox"`
	Roads   json.RawMessage `json:"roads"` // GeoJSON FeatureCollection of rendered road lines
	Release bool            `json:"release"`
}

// SearchSubmitRequest is sent when the user presses enter in the search box.
type SearchSubmitRequest struct {
	Query string `json:"q"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
