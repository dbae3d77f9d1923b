// Package export bundles every submitted application into a ZIP archive.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/admissions/internal/logging"
	"github.com/dmitrijs2005/admissions/internal/server/documents"
	"github.com/dmitrijs2005/admissions/internal/server/metrics"
	"github.com/dmitrijs2005/admissions/internal/server/models"
)

// Source lists what gets exported.
type Source interface {
	ListSubmitted(ctx context.Context) ([]*models.Application, error)
	ListActivities(ctx context.Context, appID int64) ([]models.Activity, error)
}

type Renderer interface {
	Render(app *models.Application, activities []models.Activity, links []documents.Link) ([]byte, error)
}

// AttachmentReader returns attachment content by reference.
type AttachmentReader interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

// Summary counts the applications written to and skipped from an archive.
type Summary struct {
	Exported int
	Skipped  int
}

type Exporter struct {
	source   Source
	renderer Renderer
	files    AttachmentReader
	metrics  *metrics.Metrics
	log      logging.Logger
	now      func() time.Time
}

func NewExporter(source Source, renderer Renderer, files AttachmentReader, m *metrics.Metrics, log logging.Logger) *Exporter {
	return &Exporter{
		source:   source,
		renderer: renderer,
		files:    files,
		metrics:  m,
		log:      log.With("module", "export"),
		now:      time.Now,
	}
}

// WithClock sets the modification time stamped on archive entries.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

type entry struct {
	name string
	data []byte
}

// ExportAllSubmitted returns the archive as a byte slice. See ExportTo.
func (e *Exporter) ExportAllSubmitted(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := e.ExportTo(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportTo writes one PDF per submitted application plus its attachments to
// w. An application whose activities, document or attachments cannot be
// produced is logged and left out entirely; the rest of the archive is still
// written. Only a failure to list applications or to write the archive
// itself is returned.
func (e *Exporter) ExportTo(ctx context.Context, w io.Writer) (Summary, error) {
	var sum Summary

	apps, err := e.source.ListSubmitted(ctx)
	if err != nil {
		return sum, fmt.Errorf("error listing submitted applications: %w", err)
	}

	zw := zip.NewWriter(w)
	modified := e.now()

	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		entries, err := e.collect(ctx, app)
		if err != nil {
			e.log.Warn(ctx, "application skipped from export", "application_id", app.ID, "error", err)
			e.metrics.ExportItem(metrics.OutcomeSkipped)
			sum.Skipped++
			continue
		}

		for _, en := range entries {
			fw, err := zw.CreateHeader(&zip.FileHeader{Name: en.name, Method: zip.Deflate, Modified: modified})
			if err != nil {
				return sum, fmt.Errorf("zip entry %s: %w", en.name, err)
			}
			if _, err := fw.Write(en.data); err != nil {
				return sum, fmt.Errorf("zip entry %s: %w", en.name, err)
			}
		}
		e.metrics.ExportItem(metrics.OutcomeOK)
		sum.Exported++
	}

	if err := zw.Close(); err != nil {
		return sum, fmt.Errorf("zip close: %w", err)
	}

	e.log.Info(ctx, "export finished", "exported", sum.Exported, "skipped", sum.Skipped)
	return sum, nil
}

// collect builds every entry of one application in memory so that a failure
// leaves nothing half-written.
func (e *Exporter) collect(ctx context.Context, app *models.Application) ([]entry, error) {
	base := fmt.Sprintf("%s_application_%d", namePrefix(app), app.ID)

	var entries []entry
	var links []documents.Link

	attach := func(label, suffix string, ref *string) error {
		if ref == nil || *ref == "" {
			return nil
		}
		data, err := e.files.Read(ctx, *ref)
		if err != nil {
			return fmt.Errorf("%s %q: %w", label, *ref, err)
		}
		name := base + suffix + strings.ToLower(path.Ext(*ref))
		entries = append(entries, entry{name: name, data: data})
		links = append(links, documents.Link{Label: label, URL: name})
		return nil
	}

	if err := attach("Grade report", "_grade_report", app.GradeReportPath); err != nil {
		return nil, err
	}
	if err := attach("Optional upload", "_optional_upload", app.UploadPath); err != nil {
		return nil, err
	}

	acts, err := e.source.ListActivities(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	pdf, err := e.renderer.Render(app, acts, links)
	if err != nil {
		return nil, err
	}

	return append([]entry{{name: base + ".pdf", data: pdf}}, entries...), nil
}

// namePrefix turns the student name into a file-name-safe prefix.
func namePrefix(app *models.Application) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(app.Fields.StudentName) {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'):
			b.WriteRune(r)
		}
	}
	if s := strings.Trim(b.String(), "_"); s != "" {
		return s
	}
	return fmt.Sprintf("unnamed_%d", app.ID)
}
