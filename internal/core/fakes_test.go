package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb/geojson"

	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/geoserver"
	"cadastre-backend-go/internal/identity"
	"cadastre-backend-go/internal/models"
)

// fakeUserRepo applies merge patches onto in-memory records.
type fakeUserRepo struct {
	mu      sync.Mutex
	records map[string]*models.User
	err     error
	patches int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{records: map[string]*models.User{}}
	for _, u := range users {
		r.records[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("get user '%s': %w", id, db.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) List(context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		cp := *r.records[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) Patch(_ context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.patches++
	u, ok := r.records[id]
	if !ok {
		u = &models.User{ID: id}
		r.records[id] = u
	}
	for k, v := range fields {
		switch k {
		case "email":
			u.Email = v.(string)
		case "admin":
			u.Admin = v.(bool)
		case "allowPopup":
			u.AllowPopup = models.Bool(v.(bool))
		case "canPrint":
			u.CanPrint = models.Bool(v.(bool))
		case "canDown":
			u.CanDown = models.Bool(v.(bool))
		case "showPdf":
			u.ShowPdf = models.Bool(v.(bool))
		case "visibleFields":
			u.VisibleFields = v.([]string)
		case "allowAllLayers":
			u.AllowAllLayers = v.(bool)
		case "allowedLayers":
			u.AllowedLayers = v.([]string)
		default:
			return fmt.Errorf("fake user repo: unexpected field %q", k)
		}
	}
	return nil
}

type fakePrefsRepo struct {
	mu      sync.Mutex
	records map[string]*models.Preferences
	err     error
	creates int
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{records: map[string]*models.Preferences{}}
}

func (r *fakePrefsRepo) Get(_ context.Context, id string) (*models.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("get preferences '%s': %w", id, db.ErrNotFound)
	}
	cp := *p
	cp.ActiveLayers = append([]string{}, p.ActiveLayers...)
	return &cp, nil
}

func (r *fakePrefsRepo) Create(_ context.Context, p *models.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.creates++
	cp := *p
	r.records[p.UserID] = &cp
	return nil
}

func (r *fakePrefsRepo) Patch(_ context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	p, ok := r.records[id]
	if !ok {
		p = &models.Preferences{UserID: id}
		r.records[id] = p
	}
	for k, v := range fields {
		switch k {
		case "mapStyle":
			p.MapStyle = v.(string)
		case "capas":
			p.ActiveLayers = v.([]string)
		case "visibleFields":
			p.VisibleFields = v.([]string)
		default:
			return fmt.Errorf("fake prefs repo: unexpected field %q", k)
		}
	}
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, e models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, queue string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = map[string][][]byte{}
	}
	p.messages[queue] = append(p.messages[queue], body)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fakeMapServer serves a fixed catalog and feature set.
type fakeMapServer struct {
	mu           sync.Mutex
	layers       []models.Layer
	features     []*geojson.Feature
	info         *geojson.Feature
	infoLayers   []string
	capErr       error
	featuresErr  error
	capCalls     int
	featureCalls int
	// featuresHold, when set, blocks GetAllFeatures until it is closed.
	featuresHold chan struct{}
}

func (f *fakeMapServer) Workspace() string { return "SICDI" }

func (f *fakeMapServer) Capabilities(context.Context) ([]models.Layer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capCalls++
	if f.capErr != nil {
		return nil, f.capErr
	}
	return append([]models.Layer(nil), f.layers...), nil
}

func (f *fakeMapServer) RawCapabilities(context.Context) ([]byte, error) {
	if f.capErr != nil {
		return nil, f.capErr
	}
	return []byte("<WMS_Capabilities/>"), nil
}

func (f *fakeMapServer) TileURL(layer, style string) string {
	return "https://geo.test/wms?layers=" + layer + "&styles=" + style
}

func (f *fakeMapServer) FirstFeatureInfo(_ context.Context, _ geoserver.FeatureInfoParams, layers []string) (*geojson.Feature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoLayers = append([]string(nil), layers...)
	if f.info == nil || len(layers) == 0 {
		return nil, geoserver.ErrNoFeature
	}
	return f.info, nil
}

func (f *fakeMapServer) GetAllFeatures(context.Context, []string) ([]*geojson.Feature, error) {
	f.mu.Lock()
	f.featureCalls++
	features, err, hold := f.features, f.featuresErr, f.featuresHold
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if err != nil {
		return nil, err
	}
	return features, nil
}

func (f *fakeMapServer) featureCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.featureCalls
}

func (f *fakeMapServer) setFeatures(features []*geojson.Feature, err error, hold chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.features, f.featuresErr, f.featuresHold = features, err, hold
}

type fakeDirectory struct {
	uids    map[string]string
	created []string
}

func (d *fakeDirectory) LookupUID(_ context.Context, email string) (string, error) {
	if uid, ok := d.uids[email]; ok {
		return uid, nil
	}
	return "", fmt.Errorf("%s: %w", email, identity.ErrUserNotFound)
}

func (d *fakeDirectory) CreateUser(_ context.Context, email, password string) (string, error) {
	if len(password) < 6 {
		return "", fmt.Errorf("weak password")
	}
	uid := "new-" + email
	if d.uids == nil {
		d.uids = map[string]string{}
	}
	d.uids[email] = uid
	d.created = append(d.created, email)
	return uid, nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) Enabled() bool { return true }

func (n *fakeNotifier) SendEmail(recipient, _, _ string) error {
	n.sent = append(n.sent, recipient)
	return nil
}

type fakeResolver struct {
	url string
	err error
}

func (r *fakeResolver) Resolve(_ context.Context, code, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.url + code + "?token=" + token, nil
}
