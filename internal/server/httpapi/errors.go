package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/admissions/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

// errorStatus maps error kinds to responses. The first match wins.
var errorStatus = []struct {
	err  error
	code int
	msg  string
}{
	{common.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "invalid credentials"},
	{common.ErrDeadlinePassed, http.StatusForbidden, "the application deadline has passed"},
	{common.ErrAlreadySubmitted, http.StatusForbidden, "application already submitted"},
	{common.ErrNoDraftExists, http.StatusConflict, "no draft application to submit"},
	{common.ErrorAlreadyExists, http.StatusConflict, "an account with this e-mail already exists"},
	{common.ErrLetterNotFound, http.StatusNotFound, "no letter is available"},
	{common.ErrorNotFound, http.StatusNotFound, "not found"},
	{common.ErrInvalidReviewStatus, http.StatusBadRequest, "invalid review status"},
	{common.ErrorInvalidInput, http.StatusBadRequest, "invalid input"},
	{common.ErrTokenExpired, http.StatusBadRequest, "this reset link has expired"},
	{common.ErrInvalidSignature, http.StatusBadRequest, "this reset link is invalid"},
	{common.ErrRender, http.StatusInternalServerError, "the document could not be generated"},
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.Is(err, common.ErrPayloadTooLarge) || errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: s.tooLargeMessage()})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.code >= http.StatusInternalServerError {
				s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
			}
			writeJSON(w, e.code, errorBody{Error: e.msg})
			return
		}
	}

	s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func (s *Server) tooLargeMessage() string {
	if s.opts.MaxUploadSize <= 0 {
		return "File too large."
	}
	return fmt.Sprintf("File too large. Maximum size is %s.", formatBytes(s.opts.MaxUploadSize))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
