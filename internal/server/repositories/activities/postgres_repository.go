package activities

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/admissions/internal/dbx"
	"github.com/dmitrijs2005/admissions/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Replace(ctx context.Context, applicationID int64, items []models.Activity) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE application_id = $1`, applicationID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO activities (application_id, activity_type, activity_position, activity_org, activity_desc)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	for _, a := range items {
		if _, err := r.db.ExecContext(ctx, query, applicationID, a.Type, a.Position, a.Org, a.Desc); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, applicationID int64) ([]models.Activity, error) {
	query :=
		`SELECT activity_type, activity_position, activity_org, activity_desc FROM activities
		 WHERE application_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.Type, &a.Position, &a.Org, &a.Desc); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
