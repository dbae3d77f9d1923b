package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	user, err := s.deps.Accounts.Register(r.Context(), email, r.FormValue("password"), cleanInput(r.FormValue("student_name")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, successBody{Success: true})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	token, err := s.deps.Accounts.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, token, s.opts.SessionTTL)
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// forgotPassword always answers the same way so that callers cannot discover
// which addresses have accounts.
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Accounts.RequestPasswordReset(r.Context(), r.FormValue("email")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

type resetFormResponse struct {
	Token  string `json:"token"`
	Action string `json:"action"`
	Method string `json:"method"`
}

// resetForm is the target of the e-mailed link. It hands the token back with
// the endpoint the new password is posted to.
func (s *Server) resetForm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.writeError(w, r, common.ErrInvalidSignature)
		return
	}
	writeJSON(w, http.StatusOK, resetFormResponse{Token: token, Action: "/password/reset", Method: http.MethodPost})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Accounts.ResetPassword(r.Context(), r.FormValue("token"), r.FormValue("password")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}
