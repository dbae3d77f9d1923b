package httpapi

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/gorilla/mux"
)

type applicationSummary struct {
	ID           int64               `json:"id"`
	StudentName  string              `json:"student_name"`
	Email        string              `json:"email"`
	ReviewStatus models.ReviewStatus `json:"review_status"`
	SubmittedAt  *time.Time          `json:"submitted_at,omitempty"`
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.deps.Applications.ListSubmitted(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]applicationSummary, 0, len(apps))
	for _, a := range apps {
		out = append(out, applicationSummary{
			ID:           a.ID,
			StudentName:  a.Fields.StudentName,
			Email:        a.Fields.Email,
			ReviewStatus: a.ReviewStatus,
			SubmittedAt:  a.SubmittedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func appIDFrom(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (s *Server) adminDocument(w http.ResponseWriter, r *http.Request) {
	id, err := appIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.deps.Applications.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.serveDocument(w, r, app)
}

func (s *Server) review(w http.ResponseWriter, r *http.Request) {
	id, err := appIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := models.ReviewStatus(cleanInput(r.FormValue("status")))
	if err := s.deps.Applications.SetReviewStatus(r.Context(), id, status); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Review status set", "application_id", id, "status", status)
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) exportAll(w http.ResponseWriter, r *http.Request) {
	data, err := s.deps.Exporter.ExportAllSubmitted(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, "application/zip", fmt.Sprintf("applications_%s.zip", time.Now().UTC().Format("20060102")), data)
}

func (s *Server) attachment(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	data, err := s.deps.Attachments.Read(r.Context(), ref)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(ref))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	writeFile(w, ctype, path.Base(ref), data)
}
