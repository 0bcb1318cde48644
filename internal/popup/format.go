package popup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"cadastre-backend-go/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`(?i)^https?://`)
	pdfPattern  = regexp.MustCompile(`(?i)\.pdf$`)

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02Z",
		"2006-01-02",
		"2006/01/02",
	}
)

// Formatter renders attribute values in es-MX conventions.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a formatter for the es-MX locale.
func NewFormatter() *Formatter {
	return &Formatter{printer: message.NewPrinter(language.MustParse("es-MX"))}
}

// Currency renders "$ 12,345.50".
func (f *Formatter) Currency(raw string) string {
	v, ok := toNumber(raw)
	if !ok {
		return raw
	}
	return "$ " + f.printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Area renders "1,234.5 m²".
func (f *Formatter) Area(raw string) string {
	v, ok := toNumber(raw)
	if !ok {
		return raw
	}
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3))) + " m²"
}

// Date renders d/m/yyyy, or raw when the value is not a recognizable date.
func (f *Formatter) Date(raw string) string {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
		}
	}
	return raw
}

// Format applies the named display format.
func (f *Formatter) Format(format, raw string) string {
	switch format {
	case FormatCurrency:
		return f.Currency(raw)
	case FormatArea:
		return f.Area(raw)
	case FormatDate:
		return f.Date(raw)
	default:
		return raw
	}
}

func toNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// IsLink reports whether a value renders as an anchor.
func IsLink(s string) bool {
	return linkPattern.MatchString(s)
}

// IsPDFLink reports whether a link points at a PDF.
func IsPDFLink(s string) bool {
	return pdfPattern.MatchString(s)
}

func stringify(props map[string]interface{}, key string) string {
	return models.PropString(props, key)
}
