package applications

import (
	"context"
	"time"

	"github.com/dmitrijs2005/admissions/internal/server/models"
)

// Repository persists applications. Methods returning a single application
// report common.ErrorNotFound when no row matches.
type Repository interface {
	// GetCurrent returns the most recently created application of the user.
	GetCurrent(ctx context.Context, userID int64) (*models.Application, error)
	// GetCurrentForUpdate is GetCurrent with a row lock; use inside a transaction.
	GetCurrentForUpdate(ctx context.Context, userID int64) (*models.Application, error)
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	ListSubmitted(ctx context.Context) ([]*models.Application, error)
	Create(ctx context.Context, userID int64, fields models.ApplicationFields) (*models.Application, error)
	// UpdateDraft overwrites the content fields of an incomplete application.
	// It returns common.ErrAlreadySubmitted when the row is no longer a draft.
	UpdateDraft(ctx context.Context, id int64, fields models.ApplicationFields) (*models.Application, error)
	// Submit overwrites the fields, applies non-nil refs and moves the row to
	// submitted. It returns common.ErrAlreadySubmitted when the row is not a draft.
	Submit(ctx context.Context, id int64, fields models.ApplicationFields, refs models.AttachmentRefs, at time.Time) (*models.Application, error)
	SetReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) error
}
