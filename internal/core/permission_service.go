package core

import (
	"cadastre-backend-go/internal/models"
)

type permissionService struct {
	workspace string
}

// NewPermissionService creates a PermissionService. Allowed-layer entries are
// compared with the workspace prefix stripped.
func NewPermissionService(workspace string) PermissionService {
	return &permissionService{workspace: workspace}
}

// Load resolves the viewer flags. An absent flag allows; admins get every flag.
func (s *permissionService) Load(sess *Session) Permissions {
	rec := sess.Record
	if rec == nil {
		rec = &models.User{}
	}
	elevated := sess.Admin || sess.Super

	p := Permissions{
		AllowPopup:     models.FlagOrDefault(rec.AllowPopup) || elevated,
		CanPrint:       models.FlagOrDefault(rec.CanPrint) || elevated,
		CanDownload:    models.FlagOrDefault(rec.CanDown) || elevated,
		ShowPdf:        models.FlagOrDefault(rec.ShowPdf) || elevated,
		VisibleFields:  append([]string{}, rec.VisibleFields...),
		AllowAllLayers: rec.AllowAllLayers,
		AllowedLayers:  append([]string{}, rec.AllowedLayers...),
	}
	p.CanOpenDocuments = (p.CanPrint || p.CanDownload) && p.ShowPdf
	return p
}

// VisibleLayers filters the catalog down to what the session may see, keeping
// catalog order.
func (s *permissionService) VisibleLayers(sess *Session, catalog []models.Layer) []models.Layer {
	rec := sess.Record
	if sess.Admin || sess.Super || (rec != nil && rec.AllowAllLayers) {
		return append([]models.Layer{}, catalog...)
	}

	out := []models.Layer{}
	if rec == nil || len(rec.AllowedLayers) == 0 {
		return out
	}
	allowed := make(map[string]bool, len(rec.AllowedLayers))
	for _, name := range rec.AllowedLayers {
		allowed[models.StripWorkspace(name, s.workspace)] = true
	}
	for _, l := range catalog {
		if allowed[models.StripWorkspace(l.Name, s.workspace)] {
			out = append(out, l)
		}
	}
	return out
}

func layerNames(layers []models.Layer) []string {
	out := make([]string, 0, len(layers))
	for _, l := range layers {
		out = append(out, l.Name)
	}
	return out
}

func layerSet(layers []models.Layer) map[string]bool {
	out := make(map[string]bool, len(layers))
	for _, l := range layers {
		out[l.Name] = true
	}
	return out
}
