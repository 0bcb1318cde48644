// Package popup renders the parcel attribute balloon.
package popup

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"cadastre-backend-go/internal/models"
)

const pdfIcon = template.HTML(`<svg xmlns="http://www.w3.org/2000/svg" fill="#d4382d" viewBox="0 0 24 24" width="20" height="20"><path d="M6 2a2 2 0 0 0-2 2v16c0 1.1.9 2 2 2h12a2 2 0 0 0 2-2V8l-6-6H6z" opacity=".15"/><path d="M8 13h1.5a1.5 1.5 0 0 1 0 3H8v-3zm4 0v3m-2-1.5H8m6-1.5h2a1 1 0 0 1 0 2h-2v-2zM14 2v6h6" stroke="#d4382d" stroke-width="1.4" stroke-linecap="round" stroke-linejoin="round" fill="none"/></svg>`)

var popupTemplate = template.Must(template.New("popup").Funcs(template.FuncMap{
	"pdfIcon": func() template.HTML { return pdfIcon },
}).Parse(`<div class="pop-head"><span class="pop-key">{{.Code}}</span>` +
	`{{if .DocumentLink}}<a href="#" data-id="{{.Code}}" class="pop-pdf" title="Expediente PDF">{{pdfIcon}}</a>{{end}}</div>` +
	`<table class="pop">{{range .Rows}}<tr><th>{{.Label}}</th><td>` +
	`{{if .Link}}<a href="{{.Link}}" target="_blank" class="pop-link">{{if .PDF}}{{pdfIcon}}{{else}}🔗{{end}}</a>{{else}}{{.Value}}{{end}}` +
	`</td></tr>{{end}}</table>`))

type row struct {
	Label string
	Value string
	Link  string
	PDF   bool
}

type view struct {
	Code         string
	DocumentLink bool
	Rows         []row
}

// Renderer builds popup HTML from feature attributes.
type Renderer struct {
	catalog *Catalog
	fmt     *Formatter
}

// NewRenderer creates a Renderer over catalog.
func NewRenderer(catalog *Catalog) *Renderer {
	return &Renderer{catalog: catalog, fmt: NewFormatter()}
}

// Catalog returns the field catalog in use.
func (r *Renderer) Catalog() *Catalog {
	return r.catalog
}

// Build renders the popup to a string. See Render.
func (r *Renderer) Build(props map[string]interface{}, visible []string, allowPDF bool) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, props, visible, allowPDF); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render writes the popup to w. An empty visible list shows every non-omitted field.
// Internal keys such as __layer are never shown.
// Rows follow catalog order, then the remaining keys alphabetically.
func (r *Renderer) Render(w io.Writer, props map[string]interface{}, visible []string, allowPDF bool) error {
	v := view{Code: stringify(props, models.PropCode)}
	v.DocumentLink = allowPDF && v.Code != ""

	show := make(map[string]bool, len(visible))
	for _, k := range visible {
		show[k] = true
	}

	for _, key := range r.orderedKeys(props) {
		if key == models.PropCode || strings.HasPrefix(key, "__") || r.catalog.Omitted(key) {
			continue
		}
		if len(show) > 0 && !show[key] {
			continue
		}
		v.Rows = append(v.Rows, r.row(key, stringify(props, key)))
	}

	if err := popupTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render popup %q: %w", v.Code, err)
	}
	return nil
}

func (r *Renderer) row(key, raw string) row {
	out := row{Label: r.catalog.Label(key)}
	switch {
	case raw == "":
	case IsLink(raw):
		out.Link = raw
		out.PDF = IsPDFLink(raw)
	default:
		format := FormatText
		if f, ok := r.catalog.Lookup(key); ok {
			format = f.Format
		}
		out.Value = r.fmt.Format(format, raw)
	}
	return out
}

func (r *Renderer) orderedKeys(props map[string]interface{}) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ii, iok := r.catalog.byKey[keys[i]]
		jj, jok := r.catalog.byKey[keys[j]]
		switch {
		case iok && jok:
			return ii < jj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
