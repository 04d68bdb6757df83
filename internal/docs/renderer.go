package docs

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/pkg/errors"

	"github.com/voyago/trip-planner/internal/model"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

// TripData is the flattened view of a trip handed to the markdown templates.
// Optional fields are plain strings so templates can fall back to a default.
type TripData struct {
	Title       string
	Description string
	Destination string
	StartDate   string
	EndDate     string
	Status      string
	Adults      int
	Children    int
	Currency    string
	BudgetTotal string
	Breakdown   []BudgetLine
	Days        []DayData
}

// BudgetLine is one category row of the budget breakdown.
type BudgetLine struct {
	Category string
	Amount   string
}

// DayData is one itinerary day for rendering.
type DayData struct {
	Number     int
	Date       string
	Notes      string
	Activities []ActivityData
	Stay       *StayData
}

type ActivityData struct {
	Name     string
	Window   string
	Location string
	Cost     string
}

type StayData struct {
	Name     string
	Address  string
	CheckIn  string
	CheckOut string
}

// Renderer renders the four trip documents from embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates. It fails only on a bad template,
// which is a build defect rather than a runtime condition.
func NewRenderer() (*Renderer, error) {
	t := template.New("docs").Funcs(template.FuncMap{
		"fallback": func(s string) string {
			if s == "" {
				return "Not specified"
			}
			return s
		},
	})
	t, err := t.ParseFS(templateFS, "templates/*.md.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "parse document templates")
	}
	return &Renderer{tmpl: t}, nil
}

// Render produces the markdown body for the given document type.
func (r *Renderer) Render(typ model.DocumentType, data *TripData) ([]byte, error) {
	name := fmt.Sprintf("%s.md.tmpl", typ)
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.Wrapf(err, "render %s document", typ)
	}
	return buf.Bytes(), nil
}
