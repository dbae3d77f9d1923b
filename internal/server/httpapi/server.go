// Package httpapi exposes the admissions services over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/admissions/internal/logging"
	"github.com/dmitrijs2005/admissions/internal/server/auth"
	"github.com/dmitrijs2005/admissions/internal/server/documents"
	"github.com/dmitrijs2005/admissions/internal/server/metrics"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/dmitrijs2005/admissions/internal/server/services"
	"github.com/gorilla/mux"
)

// Accounts is the user-facing account service.
type Accounts interface {
	Register(ctx context.Context, email, password, studentName string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ParseSession(token string) (*auth.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// Submissions gates and performs autosave and submit.
type Submissions interface {
	Autosave(ctx context.Context, session *auth.Session, fields models.ApplicationFields, activities []models.Activity) (*models.Application, error)
	Submit(ctx context.Context, session *auth.Session, fields models.ApplicationFields, activities []models.Activity, uploads services.Uploads) (*models.Application, error)
	Open() bool
}

// Applications is the read side plus the review decision.
type Applications interface {
	GetCurrent(ctx context.Context, userID int64) (*models.Application, error)
	GetByID(ctx context.Context, appID int64) (*models.Application, error)
	ListSubmitted(ctx context.Context) ([]*models.Application, error)
	ListActivities(ctx context.Context, appID int64) ([]models.Activity, error)
	SetReviewStatus(ctx context.Context, appID int64, status models.ReviewStatus) error
}

type Documents interface {
	Render(app *models.Application, activities []models.Activity, links []documents.Link) ([]byte, error)
	RenderLetter(ctx context.Context, reviewStatus models.ReviewStatus, studentName string) ([]byte, error)
}

type Exporter interface {
	ExportAllSubmitted(ctx context.Context) ([]byte, error)
}

type AttachmentReader interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

// Deps bundles the collaborators of the HTTP layer.
type Deps struct {
	Accounts     Accounts
	Submissions  Submissions
	Applications Applications
	Documents    Documents
	Exporter     Exporter
	Attachments  AttachmentReader
	Limiter      Limiter
	Metrics      *metrics.Metrics
}

// Options are the HTTP-level settings taken from the server config.
type Options struct {
	MaxUploadSize int64
	SessionTTL    time.Duration
	SecureCookies bool
	BaseURL       string
	// TrustedProxies lists peer IPs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

type Server struct {
	address string
	deps    Deps
	opts    Options
	logger  logging.Logger
	router  *mux.Router
}

func NewServer(address string, l logging.Logger, deps Deps, opts Options) *Server {
	s := &Server{
		address: address,
		deps:    deps,
		opts:    opts,
		logger:  l.With("module", "http_server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverer, s.deps.Metrics.Middleware, s.withSession)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodPost, http.MethodGet)
	r.Handle("/password/forgot", s.rateLimited("password-forgot", http.HandlerFunc(s.forgotPassword))).Methods(http.MethodPost)
	r.HandleFunc("/password/reset", s.resetForm).Methods(http.MethodGet)
	r.HandleFunc("/password/reset", s.resetPassword).Methods(http.MethodPost)

	r.HandleFunc("/confirmation", s.confirmation).Methods(http.MethodGet)
	r.HandleFunc("/closed", s.closed).Methods(http.MethodGet)

	app := r.PathPrefix("/application").Subrouter()
	app.Use(s.requireSession)
	app.HandleFunc("", s.getApplication).Methods(http.MethodGet)
	app.HandleFunc("/autosave", s.autosave).Methods(http.MethodPost)
	app.HandleFunc("/submit", s.submit).Methods(http.MethodPost)
	app.HandleFunc("/document", s.ownDocument).Methods(http.MethodGet)
	app.HandleFunc("/letter", s.ownLetter).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireSession, s.requireAdmin)
	admin.HandleFunc("/applications", s.listApplications).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id:[0-9]+}/document", s.adminDocument).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id:[0-9]+}/review", s.review).Methods(http.MethodPost)
	admin.HandleFunc("/export", s.exportAll).Methods(http.MethodGet)
	admin.HandleFunc("/attachments/{ref:.+}", s.attachment).Methods(http.MethodGet)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
