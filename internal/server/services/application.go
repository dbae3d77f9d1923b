// Package services contains server-side business logic. This file implements
// ApplicationService, the transactional owner of the draft/submit state
// machine.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/dbx"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/repomanager"
)

// ApplicationService persists applications and their activities. Every
// mutation for a user runs in one transaction that first takes the user's
// advisory lock and then row-locks the current application, so concurrent
// calls for the same user are applied one after another.
type ApplicationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewApplicationService(db *sql.DB, m repomanager.RepositoryManager) *ApplicationService {
	return &ApplicationService{db: db, repomanager: m, now: time.Now}
}

// WithClock replaces the clock used for submitted_at.
func (s *ApplicationService) WithClock(now func() time.Time) *ApplicationService {
	s.now = now
	return s
}

// GetCurrent returns the user's most recent application, or nil when the user
// has none.
func (s *ApplicationService) GetCurrent(ctx context.Context, userID int64) (*models.Application, error) {
	app, err := s.repomanager.Applications(s.db).GetCurrent(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting current application: %w", err)
	}
	return app, nil
}

// UpsertDraft creates the user's draft or overwrites the existing one. Fields
// and activities are replaced together or not at all.
func (s *ApplicationService) UpsertDraft(ctx context.Context, userID int64, fields models.ApplicationFields, activities []models.Activity) (*models.Application, error) {
	var out *models.Application

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.lockCurrent(ctx, tx, userID)
		if err != nil {
			return err
		}

		apps := s.repomanager.Applications(tx)
		switch {
		case current == nil:
			out, err = apps.Create(ctx, userID, fields)
			if err != nil {
				return fmt.Errorf("error creating application: %w", err)
			}
		case current.Submitted():
			return common.ErrAlreadySubmitted
		default:
			out, err = apps.UpdateDraft(ctx, current.ID, fields)
			if err != nil {
				return fmt.Errorf("error updating draft: %w", err)
			}
		}

		return s.replaceActivities(ctx, tx, out.ID, activities)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Submit finalizes the user's draft. Nil refs keep the stored attachment
// references. The transition happens at most once per application.
func (s *ApplicationService) Submit(ctx context.Context, userID int64, fields models.ApplicationFields, activities []models.Activity, refs models.AttachmentRefs) (*models.Application, error) {
	var out *models.Application

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.lockCurrent(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return common.ErrNoDraftExists
		}
		if current.Submitted() {
			return common.ErrAlreadySubmitted
		}

		out, err = s.repomanager.Applications(tx).Submit(ctx, current.ID, fields, refs, s.now())
		if err != nil {
			return fmt.Errorf("error submitting application: %w", err)
		}

		return s.replaceActivities(ctx, tx, out.ID, activities)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetReviewStatus records an administrator decision. It does not depend on
// the submission state.
func (s *ApplicationService) SetReviewStatus(ctx context.Context, appID int64, status models.ReviewStatus) error {
	if !status.Valid() {
		return common.ErrInvalidReviewStatus
	}
	if err := s.repomanager.Applications(s.db).SetReviewStatus(ctx, appID, status); err != nil {
		return fmt.Errorf("error setting review status: %w", err)
	}
	return nil
}

func (s *ApplicationService) GetByID(ctx context.Context, appID int64) (*models.Application, error) {
	app, err := s.repomanager.Applications(s.db).GetByID(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("error getting application: %w", err)
	}
	return app, nil
}

func (s *ApplicationService) ListSubmitted(ctx context.Context) ([]*models.Application, error) {
	apps, err := s.repomanager.Applications(s.db).ListSubmitted(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing submitted applications: %w", err)
	}
	return apps, nil
}

func (s *ApplicationService) ListActivities(ctx context.Context, appID int64) ([]models.Activity, error) {
	items, err := s.repomanager.Activities(s.db).List(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("error listing activities: %w", err)
	}
	return items, nil
}

// lockCurrent serializes the caller against other mutations of the same user
// and returns the row-locked current application, or nil.
func (s *ApplicationService) lockCurrent(ctx context.Context, tx dbx.DBTX, userID int64) (*models.Application, error) {
	if err := dbx.AdvisoryXactLock(ctx, tx, dbx.LockNamespaceApplicationUser, userID); err != nil {
		return nil, err
	}
	current, err := s.repomanager.Applications(tx).GetCurrentForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting current application: %w", err)
	}
	return current, nil
}

func (s *ApplicationService) replaceActivities(ctx context.Context, tx dbx.DBTX, appID int64, activities []models.Activity) error {
	if err := s.repomanager.Activities(tx).Replace(ctx, appID, FilterActivities(activities)); err != nil {
		return fmt.Errorf("error replacing activities: %w", err)
	}
	return nil
}

// FilterActivities keeps, in order, the activities whose type is not blank.
// Kept values are not modified.
func FilterActivities(in []models.Activity) []models.Activity {
	out := make([]models.Activity, 0, len(in))
	for _, a := range in {
		if strings.TrimSpace(a.Type) == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}
