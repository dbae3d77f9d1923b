package activities

import (
	"context"

	"github.com/dmitrijs2005/admissions/internal/server/models"
)

type Repository interface {
	// Replace deletes every activity of the application and inserts the given
	// ones in order.
	Replace(ctx context.Context, applicationID int64, items []models.Activity) error
	List(ctx context.Context, applicationID int64) ([]models.Activity, error)
}
