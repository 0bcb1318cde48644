package core

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"cadastre-backend-go/internal/canvas"
	"cadastre-backend-go/internal/geoserver"
	"cadastre-backend-go/internal/models"
	"cadastre-backend-go/internal/popup"
	"cadastre-backend-go/internal/search"
)

// Identity is a verified ID token as the auth middleware hands it over.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Claims  map[string]interface{}
	IDToken string
}

// Session is a signed-in user with resolved roles.
type Session struct {
	UID    string       `json:"uid"`
	Email  string       `json:"email"`
	Name   string       `json:"name"`
	Admin  bool         `json:"admin"`
	Super  bool         `json:"super"`
	Record *models.User `json:"-"`
	// IDToken is forwarded to the document service.
	IDToken string `json:"-"`
}

// Permissions are the effective viewer flags of a session.
type Permissions struct {
	AllowPopup       bool     `json:"allowPopup"`
	CanPrint         bool     `json:"canPrint"`
	CanDownload      bool     `json:"canDownload"`
	ShowPdf          bool     `json:"showPdf"`
	CanOpenDocuments bool     `json:"canOpenDocuments"`
	VisibleFields    []string `json:"visibleFields"`
	AllowAllLayers   bool     `json:"allowAllLayers"`
	AllowedLayers    []string `json:"allowedLayers"`
}

// SessionService turns a verified identity into a session.
type SessionService interface {
	Resolve(ctx context.Context, id Identity) (*Session, error)
}

// PermissionService derives effective permissions from a session.
type PermissionService interface {
	Load(sess *Session) Permissions
	VisibleLayers(sess *Session, catalog []models.Layer) []models.Layer
}

// PreferencesService reads and writes per-user map preferences.
type PreferencesService interface {
	Load(ctx context.Context, userID string) (*models.Preferences, error)
	SaveStyle(ctx context.Context, userID, style string) error
	SaveActiveLayers(ctx context.Context, userID string, layers []string) error
	SaveVisibleFields(ctx context.Context, userID string, fields []string) error
	Apply(ctx context.Context, userID string, patch models.PreferencesPatch, visible []models.Layer) (*models.Preferences, error)
	ToggleLayer(ctx context.Context, userID, layer string, visible []models.Layer) (*models.Preferences, bool, error)
}

// MapServer is the part of the map server client the services use.
type MapServer interface {
	Workspace() string
	Capabilities(ctx context.Context) ([]models.Layer, error)
	RawCapabilities(ctx context.Context) ([]byte, error)
	TileURL(layer, style string) string
	FirstFeatureInfo(ctx context.Context, p geoserver.FeatureInfoParams, layers []string) (*geojson.Feature, error)
	GetAllFeatures(ctx context.Context, layers []string) ([]*geojson.Feature, error)
}

// CatalogService serves the layer catalog and the parcel index built from it.
type CatalogService interface {
	Layers(ctx context.Context) ([]models.Layer, error)
	RawCapabilities(ctx context.Context) ([]byte, error)
	FeatureIndex(ctx context.Context) (*search.Index, error)
}

// MapService composes the map descriptor and resolves clicks.
type MapService interface {
	State(ctx context.Context, sess *Session) (*MapView, error)
	Identify(ctx context.Context, sess *Session, req models.IdentifyRequest) (*IdentifyResult, error)
}

// MapView is everything the page needs to draw the map for a session.
type MapView struct {
	State       canvas.State        `json:"state"`
	Layers      []models.Layer      `json:"layers"`
	Preferences *models.Preferences `json:"preferences"`
	Permissions Permissions         `json:"permissions"`
	IndexReady  bool                `json:"indexReady"`
}

// IdentifyResult is the answer to a map click.
type IdentifyResult struct {
	Feature   *geojson.Feature           `json:"feature"`
	Highlight *geojson.FeatureCollection `json:"highlight"`
	PopupHTML string                     `json:"popupHtml,omitempty"`
	Source    string                     `json:"source,omitempty"` // "index" or "feature-info"
}

// SearchService answers the search box.
type SearchService interface {
	Suggest(ctx context.Context, sess *Session, q string) (*Suggestions, error)
	Submit(ctx context.Context, sess *Session, q string) (*SubmitResult, error)
}

// Suggestions is the dropdown content for a query.
type Suggestions struct {
	Local  []*geojson.Feature `json:"local"`
	Remote []search.Place     `json:"remote"`
	Ready  bool               `json:"ready"`
}

// SubmitResult is a submit outcome plus the popup of an opened parcel.
type SubmitResult struct {
	search.Outcome
	PopupHTML string `json:"popupHtml,omitempty"`
}

// StreetViewService snaps pin positions and builds the panorama URL.
type StreetViewService interface {
	Snap(ctx context.Context, req models.SnapRequest) (*SnapResult, error)
}

// SnapResult is the resolved pin coordinate and, on release, the panorama to open.
type SnapResult struct {
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Snapped     bool    `json:"snapped"`
	Open        bool    `json:"open"`
	EmbedURL    string  `json:"embedUrl,omitempty"`
	OpenDelayMs int64   `json:"openDelayMs,omitempty"`
}

// DocumentService opens case-file documents.
type DocumentService interface {
	Open(ctx context.Context, sess *Session, code string) (*DocumentLink, error)
}

// DocumentLink is a verified document URL and how to frame it.
type DocumentLink struct {
	Code        string `json:"code"`
	URL         string `json:"url"`
	FrameURL    string `json:"frameUrl"`
	CanPrint    bool   `json:"canPrint"`
	CanDownload bool   `json:"canDownload"`
}

// AdminService manages permission records and identities.
type AdminService interface {
	List(ctx context.Context, filter UserFilter) (*UserPage, error)
	Get(ctx context.Context, uid string) (*models.User, error)
	Patch(ctx context.Context, actor *Session, uid string, patch models.UserPermissionPatch) (*models.User, error)
	ApplyTemplate(ctx context.Context, actor *Session, uid, template string) (*models.User, error)
	Templates() []Template
	SetAdmin(ctx context.Context, actor *Session, uid string, admin bool) (*models.User, error)
	Provision(ctx context.Context, actor *Session, email string, admin bool) (*ProvisionResult, error)
	Fields() []popup.Field
}

// IdentityDirectory is the identity provider's admin surface.
type IdentityDirectory interface {
	LookupUID(ctx context.Context, email string) (string, error)
	CreateUser(ctx context.Context, email, password string) (string, error)
}

// Notifier delivers provisioning mail.
type Notifier interface {
	Enabled() bool
	SendEmail(recipient, subject, body string) error
}

// AuditService records admin writes.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
