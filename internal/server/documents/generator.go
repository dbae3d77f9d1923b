package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/server/models"
)

const studentNamePlaceholder = "{{student_name}}"

// LetterSource looks up letter templates by review status.
type LetterSource interface {
	GetByStatus(ctx context.Context, status models.ReviewStatus) (*models.Letter, error)
}

// Link is an attachment link shown at the end of an application document.
type Link struct {
	Label string
	URL   string
}

type Generator struct {
	converter Converter
	letters   LetterSource
	program   string
	now       func() time.Time
}

func NewGenerator(converter Converter, letters LetterSource, program string) *Generator {
	return &Generator{converter: converter, letters: letters, program: program, now: time.Now}
}

// WithClock replaces the source of the generated-at timestamp.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Render produces the application document. Converter failures are reported
// as common.ErrRender and no bytes are returned.
func (g *Generator) Render(app *models.Application, activities []models.Activity, links []Link) ([]byte, error) {
	layout := &Layout{
		Title:       fmt.Sprintf("%s application #%d", g.program, app.ID),
		GeneratedAt: g.now(),
	}

	layout.heading("Application")
	layout.field("Status", string(app.Status))
	if app.SubmittedAt != nil {
		layout.field("Submitted at", app.SubmittedAt.UTC().Format(time.RFC3339))
	}

	for _, group := range app.Fields.Groups() {
		layout.heading(group.Title)
		for _, f := range group.Fields {
			layout.field(f.Label, f.Value)
		}
	}

	layout.heading("Activities")
	if len(activities) == 0 {
		layout.paragraph("None listed.")
	}
	for i, a := range activities {
		layout.field(fmt.Sprintf("Activity %d", i+1), a.Type)
		layout.field("Position", a.Position)
		layout.field("Organization", a.Org)
		layout.field("Description", a.Desc)
	}

	if len(links) > 0 {
		layout.heading("Attachments")
		for _, l := range links {
			layout.link(l.Label, l.URL)
		}
	}

	return g.convert(layout)
}

// RenderLetter renders the letter for reviewStatus addressed to studentName.
func (g *Generator) RenderLetter(ctx context.Context, reviewStatus models.ReviewStatus, studentName string) ([]byte, error) {
	letter, err := g.letters.GetByStatus(ctx, reviewStatus)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrLetterNotFound
		}
		return nil, fmt.Errorf("load letter: %w", err)
	}

	body := strings.ReplaceAll(letter.Content, studentNamePlaceholder, studentName)

	layout := &Layout{
		Title:       g.program,
		GeneratedAt: g.now(),
	}
	for _, p := range splitParagraphs(body) {
		layout.paragraph(p)
	}

	return g.convert(layout)
}

func (g *Generator) convert(layout *Layout) ([]byte, error) {
	out, err := g.converter.Convert(layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	return out, nil
}

func splitParagraphs(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
