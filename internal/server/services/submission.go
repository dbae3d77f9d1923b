package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/logging"
	"github.com/dmitrijs2005/admissions/internal/server/attachments"
	"github.com/dmitrijs2005/admissions/internal/server/auth"
	"github.com/dmitrijs2005/admissions/internal/server/mailer"
	"github.com/dmitrijs2005/admissions/internal/server/metrics"
	"github.com/dmitrijs2005/admissions/internal/server/models"
)

// ApplicationWriter is the persistence side used by the coordinator.
type ApplicationWriter interface {
	GetCurrent(ctx context.Context, userID int64) (*models.Application, error)
	UpsertDraft(ctx context.Context, userID int64, fields models.ApplicationFields, activities []models.Activity) (*models.Application, error)
	Submit(ctx context.Context, userID int64, fields models.ApplicationFields, activities []models.Activity, refs models.AttachmentRefs) (*models.Application, error)
}

// AccountLookup resolves the account behind a session.
type AccountLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Upload is one file received with a submit request.
type Upload struct {
	Name    string
	Content io.Reader
}

// Uploads holds the optional files of a submit. A nil entry keeps whatever
// reference is already stored.
type Uploads struct {
	GradeReport *Upload
	Optional    *Upload
}

// SubmissionCoordinator applies the authentication and deadline gates in
// front of ApplicationService and stores uploaded attachments.
type SubmissionCoordinator struct {
	apps     ApplicationWriter
	accounts AccountLookup
	store    attachments.Store
	mail     mailer.Mailer
	metrics  *metrics.Metrics
	log      logging.Logger
	program  string
	deadline time.Time
	now      func() time.Time
}

func NewSubmissionCoordinator(
	apps ApplicationWriter,
	accounts AccountLookup,
	store attachments.Store,
	mail mailer.Mailer,
	m *metrics.Metrics,
	log logging.Logger,
	program string,
	deadline time.Time,
) *SubmissionCoordinator {
	return &SubmissionCoordinator{
		apps:     apps,
		accounts: accounts,
		store:    store,
		mail:     mail,
		metrics:  m,
		log:      log.With("module", "submission"),
		program:  program,
		deadline: deadline,
		now:      time.Now,
	}
}

func (c *SubmissionCoordinator) WithClock(now func() time.Time) *SubmissionCoordinator {
	c.now = now
	return c
}

// Open reports whether submissions are still accepted. A zero deadline
// never closes.
func (c *SubmissionCoordinator) Open() bool {
	return c.deadline.IsZero() || c.now().Before(c.deadline)
}

func (c *SubmissionCoordinator) gate(session *auth.Session) error {
	if session == nil || session.UserID == 0 {
		return common.ErrUnauthenticated
	}
	if !c.Open() {
		return common.ErrDeadlinePassed
	}
	return nil
}

// Autosave persists the in-progress state of the session user's application.
func (c *SubmissionCoordinator) Autosave(ctx context.Context, session *auth.Session, fields models.ApplicationFields, activities []models.Activity) (*models.Application, error) {
	if err := c.gate(session); err != nil {
		c.metrics.Autosave(metrics.OutcomeRejected)
		return nil, err
	}

	app, err := c.apps.UpsertDraft(ctx, session.UserID, fields, activities)
	if err != nil {
		c.metrics.Autosave(outcomeOf(err))
		return nil, err
	}
	c.metrics.Autosave(metrics.OutcomeOK)
	return app, nil
}

// Submit stores the uploads, finalizes the application and sends a
// confirmation e-mail. Upload failures abort before the database is touched.
// When files are attached the current application is checked first, so a
// missing or already submitted application never leaves stored files behind.
func (c *SubmissionCoordinator) Submit(ctx context.Context, session *auth.Session, fields models.ApplicationFields, activities []models.Activity, uploads Uploads) (*models.Application, error) {
	if err := c.gate(session); err != nil {
		c.metrics.Submit(metrics.OutcomeRejected)
		return nil, err
	}

	if uploads.present() {
		if err := c.checkSubmittable(ctx, session.UserID); err != nil {
			c.metrics.Submit(outcomeOf(err))
			return nil, err
		}
	}

	scope := fmt.Sprintf("user-%d", session.UserID)
	var refs models.AttachmentRefs
	var err error
	if refs.GradeReport, err = c.storeUpload(ctx, scope, uploads.GradeReport); err != nil {
		c.metrics.Submit(outcomeOf(err))
		return nil, err
	}
	if refs.Upload, err = c.storeUpload(ctx, scope, uploads.Optional); err != nil {
		c.metrics.Submit(outcomeOf(err))
		return nil, err
	}

	app, err := c.apps.Submit(ctx, session.UserID, fields, activities, refs)
	if err != nil {
		c.metrics.Submit(outcomeOf(err))
		return nil, err
	}
	c.metrics.Submit(metrics.OutcomeOK)

	c.confirm(ctx, session.UserID, app)
	return app, nil
}

func (c *SubmissionCoordinator) checkSubmittable(ctx context.Context, userID int64) error {
	app, err := c.apps.GetCurrent(ctx, userID)
	if err != nil {
		return err
	}
	if app == nil {
		return common.ErrNoDraftExists
	}
	if app.Status == models.StatusSubmitted {
		return common.ErrAlreadySubmitted
	}
	return nil
}

func (u Uploads) present() bool {
	return u.GradeReport.present() || u.Optional.present()
}

func (u *Upload) present() bool {
	return u != nil && u.Content != nil && u.Name != ""
}

func (c *SubmissionCoordinator) storeUpload(ctx context.Context, scope string, u *Upload) (*string, error) {
	if !u.present() {
		return nil, nil
	}
	ref, err := c.store.Store(ctx, scope, u.Name, u.Content)
	if err != nil {
		if errors.Is(err, common.ErrPayloadTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("error storing attachment: %w", err)
	}
	return &ref, nil
}

// confirm never fails the submit; delivery problems are only logged.
func (c *SubmissionCoordinator) confirm(ctx context.Context, userID int64, app *models.Application) {
	to := strings.TrimSpace(app.Fields.Email)
	name := strings.TrimSpace(app.Fields.StudentName)
	if to == "" || name == "" {
		u, err := c.accounts.GetByID(ctx, userID)
		if err != nil {
			c.log.Warn(ctx, "confirmation skipped, account lookup failed", "user_id", userID, "error", err)
			return
		}
		if to == "" {
			to = u.Email
		}
		if name == "" {
			name = u.StudentName
		}
	}

	subject := fmt.Sprintf("%s Application Received!", c.program)
	body := fmt.Sprintf("Dear %s,\n\nThank you for applying to the %s.\n\n"+
		"Your application has been received. We'll be in touch once the review process is complete.\n\n"+
		"Best,\nThe %s Team\n", name, c.program, c.program)

	if err := c.mail.Send(ctx, to, subject, body); err != nil {
		c.log.Warn(ctx, "confirmation e-mail failed", "application_id", app.ID, "error", err)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, common.ErrAlreadySubmitted),
		errors.Is(err, common.ErrNoDraftExists),
		errors.Is(err, common.ErrPayloadTooLarge):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
