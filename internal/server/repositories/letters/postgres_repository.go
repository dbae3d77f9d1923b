package letters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/dbx"
	"github.com/dmitrijs2005/admissions/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByStatus(ctx context.Context, status models.ReviewStatus) (*models.Letter, error) {
	query := `SELECT status, content FROM letters WHERE status = $1`

	var (
		s      string
		letter models.Letter
	)
	err := r.db.QueryRowContext(ctx, query, string(status)).Scan(&s, &letter.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	letter.Status = models.ReviewStatus(s)
	return &letter, nil
}
