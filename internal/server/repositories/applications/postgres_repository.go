package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app         models.Application
		status      string
		review      string
		gradeReport sql.NullString
		upload      sql.NullString
		submittedAt sql.NullTime
	)

	dest := []any{&app.ID, &app.UserID, &status, &review}
	dest = append(dest, app.Fields.Pointers()...)
	dest = append(dest, &gradeReport, &upload, &app.CreatedAt, &submittedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	app.Status = models.Status(status)
	app.ReviewStatus = models.ReviewStatus(review)
	if gradeReport.Valid {
		app.GradeReportPath = &gradeReport.String
	}
	if upload.Valid {
		app.UploadPath = &upload.String
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		app.SubmittedAt = &t
	}
	return &app, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Application, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) GetCurrent(ctx context.Context, userID int64) (*models.Application, error) {
	return r.queryOne(ctx, currentQuery, userID)
}

func (r *PostgresRepository) GetCurrentForUpdate(ctx context.Context, userID int64) (*models.Application, error) {
	return r.queryOne(ctx, currentForUpdateQuery, userID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	return r.queryOne(ctx, byIDQuery, id)
}

func (r *PostgresRepository) ListSubmitted(ctx context.Context) ([]*models.Application, error) {
	rows, err := r.db.QueryContext(ctx, listSubmittedQuery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, fields models.ApplicationFields) (*models.Application, error) {
	args := append([]any{userID}, fields.Values()...)
	app, err := scanApplication(r.db.QueryRowContext(ctx, insertQuery, args...))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) UpdateDraft(ctx context.Context, id int64, fields models.ApplicationFields) (*models.Application, error) {
	args := append(fields.Values(), id)
	app, err := r.queryOne(ctx, updateDraftQuery, args...)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrAlreadySubmitted
	}
	return app, err
}

func (r *PostgresRepository) Submit(ctx context.Context, id int64, fields models.ApplicationFields, refs models.AttachmentRefs, at time.Time) (*models.Application, error) {
	args := append(fields.Values(), at, refs.GradeReport, refs.Upload, id)
	app, err := r.queryOne(ctx, submitQuery, args...)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrAlreadySubmitted
	}
	return app, err
}

func (r *PostgresRepository) SetReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) error {
	res, err := r.db.ExecContext(ctx, setReviewStatusQuery, string(status), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
