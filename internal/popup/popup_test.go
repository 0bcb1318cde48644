package popup

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, "Clave catastral", c.Label("cve_cat"))
	assert.Equal(t, "Ubicación", c.Label("ubicación"))
	assert.Equal(t, "sin_etiqueta", c.Label("sin_etiqueta"))

	f, ok := c.Lookup("total_a_pa")
	require.True(t, ok)
	assert.Equal(t, FormatCurrency, f.Format)

	assert.True(t, c.Omitted("THE_GEOM"))
	assert.True(t, c.Omitted("url"))
	assert.False(t, c.Omitted("colonia_"))

	enabled := c.Enabled()
	assert.Len(t, enabled, 18)
	assert.Equal(t, "cve_cat", enabled[0])
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog([]byte("fields:\n  - {key: a, format: bogus}\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("fields:\n  - {label: x}\n"))
	assert.Error(t, err)

	c, err := ParseCatalog([]byte("fields:\n  - {key: a, label: A}\n"))
	require.NoError(t, err)
	f, _ := c.Lookup("a")
	assert.Equal(t, FormatText, f.Format)
}

func TestFormatter(t *testing.T) {
	f := NewFormatter()

	t.Run("currency", func(t *testing.T) {
		assert.Equal(t, "$ 12,345.50", f.Currency("12345.5"))
		assert.Equal(t, "$ 250,000.00", f.Currency("250000"))
		assert.Equal(t, "n/d", f.Currency("n/d"))
	})

	t.Run("area", func(t *testing.T) {
		assert.Equal(t, "12,500 m²", f.Area("12500"))
		assert.Equal(t, "350.25 m²", f.Area("350.25"))
		assert.Equal(t, "abc", f.Area("abc"))
	})

	t.Run("date", func(t *testing.T) {
		assert.Equal(t, "15/3/2024", f.Date("2024-03-15"))
		assert.Equal(t, "1/12/2023", f.Date("2023-12-01T00:00:00Z"))
		assert.Equal(t, "2024-31-31", f.Date("2024-31-31"))
		assert.Equal(t, "pendiente", f.Date("pendiente"))
	})

	t.Run("passthrough", func(t *testing.T) {
		assert.Equal(t, "260101002001", f.Format(FormatNumber, "260101002001"))
		assert.Equal(t, "HABITACIONAL", f.Format(FormatText, "HABITACIONAL"))
	})
}

func TestRenderer_Build(t *testing.T) {
	r := NewRenderer(DefaultCatalog())
	props := map[string]interface{}{
		"cve_cat":    "260101002001",
		"nombre_del": "María <b>López</b>",
		"valor_cata": 12345.5,
		"terreno_m2": "12500",
		"adeudo_des": "2024-03-15",
		"the_geom":   "POLYGON(...)",
		"URL":        "https://exp.sic-di.com/x.pdf",
		"expediente": "https://exp.sic-di.com/docs/260101002001.PDF",
		"mapa":       "http://maps.example/x",
		"colonia_":   "",
		"extra_col":  "valor",
		"__layer":    "SICDI:SECTOR_01",
	}

	t.Run("all fields", func(t *testing.T) {
		html, err := r.Build(props, nil, true)
		require.NoError(t, err)

		assert.Contains(t, html, `<span class="pop-key">260101002001</span>`)
		assert.Contains(t, html, `data-id="260101002001" class="pop-pdf"`)
		assert.Contains(t, html, `<tr><th>Propietario</th><td>María &lt;b&gt;López&lt;/b&gt;</td></tr>`)
		assert.Contains(t, html, `<tr><th>Valor catastral</th><td>$ 12,345.50</td></tr>`)
		assert.Contains(t, html, `<tr><th>Terreno (m²)</th><td>12,500 m²</td></tr>`)
		assert.Contains(t, html, `<tr><th>Adeudo desde</th><td>15/3/2024</td></tr>`)
		assert.Contains(t, html, `<tr><th>Colonia</th><td></td></tr>`)
		assert.Contains(t, html, `<tr><th>extra_col</th><td>valor</td></tr>`)
		assert.Contains(t, html, `<a href="http://maps.example/x" target="_blank" class="pop-link">🔗</a>`)
		assert.Contains(t, html, `<a href="https://exp.sic-di.com/docs/260101002001.PDF" target="_blank" class="pop-link"><svg`)

		assert.NotContains(t, html, "Clave catastral", "the code is shown in the header only")
		assert.NotContains(t, html, "POLYGON")
		assert.NotContains(t, html, "x.pdf", "omission is case-insensitive")
		assert.NotContains(t, html, "__layer")
	})

	t.Run("catalog order first", func(t *testing.T) {
		html, err := r.Build(props, nil, false)
		require.NoError(t, err)
		colonia := strings.Index(html, "<th>Colonia</th>")
		owner := strings.Index(html, "<th>Propietario</th>")
		extra := strings.Index(html, "<th>extra_col</th>")
		require.True(t, colonia >= 0 && owner >= 0 && extra >= 0)
		assert.Less(t, colonia, owner)
		assert.Less(t, owner, extra)
	})

	t.Run("visible filter", func(t *testing.T) {
		html, err := r.Build(props, []string{"valor_cata", "cve_cat"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(html, "<tr>"))
		assert.Contains(t, html, "Valor catastral")
		assert.NotContains(t, html, "pop-pdf")
	})

	t.Run("no code no document link", func(t *testing.T) {
		html, err := r.Build(map[string]interface{}{"colonia_": "Centro"}, nil, true)
		require.NoError(t, err)
		assert.Contains(t, html, `<span class="pop-key"></span>`)
		assert.NotContains(t, html, "pop-pdf")
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("connection closed") }

func TestRenderer_RenderError(t *testing.T) {
	r := NewRenderer(DefaultCatalog())
	err := r.Render(failingWriter{}, map[string]interface{}{"cve_cat": "260101002001"}, nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "260101002001")
	assert.Contains(t, err.Error(), "connection closed")
}
