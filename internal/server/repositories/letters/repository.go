package letters

import (
	"context"

	"github.com/dmitrijs2005/admissions/internal/server/models"
)

type Repository interface {
	GetByStatus(ctx context.Context, status models.ReviewStatus) (*models.Letter, error)
}
