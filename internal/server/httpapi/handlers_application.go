package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/server/documents"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/dmitrijs2005/admissions/internal/server/services"
)

const multipartMemory = 32 << 20

type applicationView struct {
	ID             int64                    `json:"id"`
	Status         models.Status            `json:"status"`
	ReviewStatus   models.ReviewStatus      `json:"review_status"`
	Fields         models.ApplicationFields `json:"fields"`
	HasGradeReport bool                     `json:"has_grade_report"`
	HasUpload      bool                     `json:"has_upload"`
	CreatedAt      time.Time                `json:"created_at"`
	SubmittedAt    *time.Time               `json:"submitted_at,omitempty"`
}

func newApplicationView(app *models.Application) *applicationView {
	if app == nil {
		return nil
	}
	return &applicationView{
		ID:             app.ID,
		Status:         app.Status,
		ReviewStatus:   app.ReviewStatus,
		Fields:         app.Fields,
		HasGradeReport: app.GradeReportPath != nil,
		HasUpload:      app.UploadPath != nil,
		CreatedAt:      app.CreatedAt,
		SubmittedAt:    app.SubmittedAt,
	}
}

type currentResponse struct {
	Application *applicationView  `json:"application"`
	Activities  []models.Activity `json:"activities"`
	Open        bool              `json:"open"`
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	app, err := s.deps.Applications.GetCurrent(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := currentResponse{Application: newApplicationView(app), Activities: []models.Activity{}, Open: s.deps.Submissions.Open()}
	if app != nil {
		if resp.Activities, err = s.deps.Applications.ListActivities(r.Context(), app.ID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// autosave accepts either a JSON body or the same form encoding as submit.
func (s *Server) autosave(w http.ResponseWriter, r *http.Request) {
	var (
		fields     models.ApplicationFields
		activities []models.Activity
		err        error
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		fields, activities, err = decodeAutosaveJSON(io.LimitReader(r.Body, multipartMemory))
	} else {
		var form url.Values
		if form, err = s.parseForm(w, r); err == nil {
			fields, activities = fieldsFromForm(form), activitiesFromForm(form)
		}
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.deps.Submissions.Autosave(r.Context(), sessionFrom(r.Context()), fields, activities); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseForm(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var uploads services.Uploads
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	for field, dst := range map[string]**services.Upload{"grade_report": &uploads.GradeReport, "upload": &uploads.Optional} {
		if r.MultipartForm == nil {
			break
		}
		f, hdr, err := r.FormFile(field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			s.writeError(w, r, fmt.Errorf("%w: %v", common.ErrorInvalidInput, err))
			return
		}
		closers = append(closers, f)
		if hdr.Filename == "" {
			continue
		}
		*dst = &services.Upload{Name: hdr.Filename, Content: f}
	}

	_, err = s.deps.Submissions.Submit(r.Context(), sessionFrom(r.Context()), fieldsFromForm(form), activitiesFromForm(form), uploads)
	switch {
	case errors.Is(err, common.ErrDeadlinePassed):
		http.Redirect(w, r, "/closed", http.StatusSeeOther)
	case err != nil:
		s.writeError(w, r, err)
	default:
		http.Redirect(w, r, "/confirmation", http.StatusSeeOther)
	}
}

// parseForm caps the request body and parses urlencoded or multipart forms.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if s.opts.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, 2*s.opts.MaxUploadSize+multipartMemory)
	}

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, common.ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidInput, err)
	}
	return r.PostForm, nil
}

func (s *Server) ownDocument(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	app, err := s.deps.Applications.GetCurrent(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if app == nil {
		s.writeError(w, r, common.ErrorNotFound)
		return
	}
	s.serveDocument(w, r, app)
}

func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, app *models.Application) {
	acts, err := s.deps.Applications.ListActivities(r.Context(), app.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pdf, err := s.deps.Documents.Render(app, acts, s.attachmentLinks(app))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, "application/pdf", fmt.Sprintf("application_%d.pdf", app.ID), pdf)
}

func (s *Server) attachmentLinks(app *models.Application) []documents.Link {
	base := strings.TrimRight(s.opts.BaseURL, "/") + "/admin/attachments/"
	var links []documents.Link
	if app.GradeReportPath != nil {
		links = append(links, documents.Link{Label: "Grade report", URL: base + *app.GradeReportPath})
	}
	if app.UploadPath != nil {
		links = append(links, documents.Link{Label: "Optional upload", URL: base + *app.UploadPath})
	}
	return links
}

func (s *Server) ownLetter(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	app, err := s.deps.Applications.GetCurrent(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if app == nil || !app.Submitted() {
		s.writeError(w, r, common.ErrLetterNotFound)
		return
	}

	pdf, err := s.deps.Documents.RenderLetter(r.Context(), app.ReviewStatus, app.Fields.StudentName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, "application/pdf", fmt.Sprintf("letter_%d.pdf", app.ID), pdf)
}

func (s *Server) confirmation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Your application has been received."})
}

func (s *Server) closed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Applications are closed."})
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
