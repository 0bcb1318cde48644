package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/identity"
	"cadastre-backend-go/internal/models"
	"cadastre-backend-go/internal/popup"
)

// PageSize is the number of records per admin list page.
const PageSize = 12

// Role filters for the admin list.
const (
	RoleAll   = ""
	RoleAdmin = "admin"
	RoleSuper = "super"
	RoleUser  = "user"

	LayerModeAll        = ""
	LayerModeRestricted = "restricted"
)

// Audit actions.
const (
	ActionUserPatch     = "USER_PATCH"
	ActionUserTemplate  = "USER_TEMPLATE"
	ActionUserSetAdmin  = "USER_SET_ADMIN"
	ActionUserProvision = "USER_PROVISION"
)

// UserFilter selects and pages permission records.
type UserFilter struct {
	Query     string
	Role      string
	LayerMode string
	Page      int // 1-based; out-of-range values are clamped
}

// UserPage is one page of filtered records.
type UserPage struct {
	Users      []*models.User `json:"users"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}

// Template is a named permission preset.
type Template struct {
	Key   string                     `json:"key"`
	Label string                     `json:"label"`
	Patch models.UserPermissionPatch `json:"patch"`
}

// ProvisionResult reports the outcome of provisioning an identity.
type ProvisionResult struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
	// TempPassword is only set when the identity was created.
	TempPassword string `json:"tempPassword,omitempty"`
	Notified     bool   `json:"notified"`
}

var templates = []Template{
	{Key: "consulta", Label: "Consulta", Patch: flagPatch(true, false, false, true)},
	{Key: "operador", Label: "Operador", Patch: flagPatch(true, true, true, true)},
	{Key: "supervisor", Label: "Supervisor", Patch: flagPatch(true, true, false, true)},
}

func flagPatch(allowPopup, canPrint, canDown, showPdf bool) models.UserPermissionPatch {
	return models.UserPermissionPatch{
		AllowPopup: models.Bool(allowPopup),
		CanPrint:   models.Bool(canPrint),
		CanDown:    models.Bool(canDown),
		ShowPdf:    models.Bool(showPdf),
	}
}

type adminService struct {
	users     db.UserRepository
	prefs     db.PreferencesRepository
	directory IdentityDirectory
	audit     AuditService
	notifier  Notifier
	catalog   *popup.Catalog
	clientURL string
	logger    *zap.Logger
}

// AdminDeps groups the collaborators of the admin service.
type AdminDeps struct {
	Users     db.UserRepository
	Prefs     db.PreferencesRepository
	Directory IdentityDirectory
	Audit     AuditService
	Notifier  Notifier // optional
	Fields    *popup.Catalog
	ClientURL string
}

// NewAdminService creates an AdminService.
func NewAdminService(deps AdminDeps, logger *zap.Logger) AdminService {
	return &adminService{
		users:     deps.Users,
		prefs:     deps.Prefs,
		directory: deps.Directory,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		catalog:   deps.Fields,
		clientURL: deps.ClientURL,
		logger:    logger,
	}
}

// List scans every record and filters in memory.
func (s *adminService) List(ctx context.Context, filter UserFilter) (*UserPage, error) {
	switch filter.Role {
	case RoleAll, RoleAdmin, RoleSuper, RoleUser:
	default:
		return nil, fmt.Errorf("%w: unknown role filter %q", ErrInvalidInput, filter.Role)
	}
	switch filter.LayerMode {
	case LayerModeAll, LayerModeRestricted:
	default:
		return nil, fmt.Errorf("%w: unknown layer mode %q", ErrInvalidInput, filter.LayerMode)
	}

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}

	term := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := make([]*models.User, 0, len(all))
	for _, u := range all {
		if matchUser(u, term, filter) {
			matched = append(matched, u)
		}
	}

	totalPages := (len(matched) + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(matched))

	return &UserPage{
		Users:      matched[start:end],
		Page:       page,
		PageSize:   PageSize,
		Total:      len(matched),
		TotalPages: totalPages,
	}, nil
}

func matchUser(u *models.User, term string, f UserFilter) bool {
	if term != "" {
		mail := strings.ToLower(u.Mail())
		name := strings.ToLower(u.DisplayLabel())
		if !strings.Contains(mail, term) && !strings.Contains(name, term) {
			return false
		}
	}
	switch f.Role {
	case RoleAdmin:
		if !u.IsAdminRecord() {
			return false
		}
	case RoleSuper:
		if !u.IsSuperRecord() {
			return false
		}
	case RoleUser:
		if u.IsAdminRecord() {
			return false
		}
	}
	if f.LayerMode == LayerModeRestricted && !u.HasRestrictedLayers() {
		return false
	}
	return true
}

func (s *adminService) Get(ctx context.Context, uid string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", uid, ErrUserNotFound)
		}
		return nil, storeErr("get user", err)
	}
	return u, nil
}

// Patch merges permission changes into the record, creating it when the identity
// has none yet. visibleFields is also copied into the user's preferences. An empty
// patch writes nothing.
func (s *adminService) Patch(ctx context.Context, actor *Session, uid string, patch models.UserPermissionPatch) (*models.User, error) {
	return s.patch(ctx, actor, uid, patch, ActionUserPatch, nil)
}

func (s *adminService) patch(ctx context.Context, actor *Session, uid string, patch models.UserPermissionPatch, action string, details map[string]interface{}) (*models.User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, fmt.Errorf("%w: uid cannot be empty", ErrInvalidInput)
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return s.Get(ctx, uid)
	}

	if err := s.users.Patch(ctx, uid, fields); err != nil {
		return nil, storeErr("patch user", err)
	}
	if vf, ok := fields["visibleFields"]; ok {
		if err := s.prefs.Patch(ctx, uid, map[string]interface{}{"visibleFields": vf}); err != nil {
			return nil, storeErr("patch preferences", err)
		}
	}

	if details == nil {
		details = map[string]interface{}{}
	}
	details["fields"] = fields
	s.record(ctx, actor, action, uid, details)
	return s.Get(ctx, uid)
}

func (s *adminService) Templates() []Template {
	return append([]Template(nil), templates...)
}

// ApplyTemplate writes the preset's four flags.
func (s *adminService) ApplyTemplate(ctx context.Context, actor *Session, uid, key string) (*models.User, error) {
	for _, t := range templates {
		if t.Key == key {
			return s.patch(ctx, actor, uid, t.Patch, ActionUserTemplate, map[string]interface{}{"template": key})
		}
	}
	return nil, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, key)
}

// SetAdmin flips the record's admin flag. Only super-admins may do it, and never on
// their own record.
func (s *adminService) SetAdmin(ctx context.Context, actor *Session, uid string, admin bool) (*models.User, error) {
	if actor == nil || !actor.Super {
		return nil, fmt.Errorf("%w: super-admin required", ErrForbidden)
	}
	if actor.UID == uid {
		return nil, fmt.Errorf("%w: cannot change own admin flag", ErrForbidden)
	}
	if _, err := s.Get(ctx, uid); err != nil {
		return nil, err
	}
	if err := s.users.Patch(ctx, uid, map[string]interface{}{"admin": admin}); err != nil {
		return nil, storeErr("set admin", err)
	}
	s.record(ctx, actor, ActionUserSetAdmin, uid, map[string]interface{}{"admin": admin})
	return s.Get(ctx, uid)
}

// Provision reuses or creates the identity for email and merges {email, admin}
// into its record. A created identity gets a random temporary password which is
// returned and, when mail is configured, sent to the user.
func (s *adminService) Provision(ctx context.Context, actor *Session, email string, admin bool) (*ProvisionResult, error) {
	if actor == nil || !actor.Super {
		return nil, fmt.Errorf("%w: super-admin required", ErrForbidden)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}

	res := &ProvisionResult{Email: email}
	uid, err := s.directory.LookupUID(ctx, email)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		res.TempPassword = TempPassword()
		uid, err = s.directory.CreateUser(ctx, email, res.TempPassword)
		if err != nil {
			return nil, upstreamErr("create identity", err)
		}
		res.Created = true
	case err != nil:
		return nil, upstreamErr("lookup identity", err)
	}
	res.UID = uid

	if err := s.users.Patch(ctx, uid, map[string]interface{}{"email": email, "admin": admin}); err != nil {
		return nil, storeErr("provision user", err)
	}
	s.record(ctx, actor, ActionUserProvision, uid, map[string]interface{}{
		"email": email, "admin": admin, "created": res.Created,
	})

	if res.Created && s.notifier != nil && s.notifier.Enabled() {
		if err := s.notifier.SendEmail(email, "Acceso al visor catastral", s.welcomeBody(email, res.TempPassword)); err != nil {
			s.logger.Warn("Failed to send provisioning mail", zap.String("email", email), zap.Error(err))
		} else {
			res.Notified = true
		}
	}
	return res, nil
}

func (s *adminService) welcomeBody(email, password string) string {
	var b strings.Builder
	b.WriteString("Se creó su acceso al visor catastral.\r\n\r\n")
	b.WriteString("Usuario: " + email + "\r\n")
	b.WriteString("Contraseña temporal: " + password + "\r\n")
	if s.clientURL != "" {
		b.WriteString("\r\nIngrese en " + s.clientURL + " y cambie su contraseña.\r\n")
	}
	return b.String()
}

// TempPassword returns a random initial password.
func TempPassword() string {
	return "Tmp-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Fields lists the popup fields an admin can choose from.
func (s *adminService) Fields() []popup.Field {
	if s.catalog == nil {
		return nil
	}
	return append([]popup.Field(nil), s.catalog.Fields...)
}

func (s *adminService) record(ctx context.Context, actor *Session, action, uid string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	entry := models.AuditLog{Action: action, TargetType: "usuario", TargetID: uid, Details: details}
	if actor != nil {
		entry.UserID = actor.UID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to write audit log", zap.String("action", action), zap.String("target", uid), zap.Error(err))
	}
}
