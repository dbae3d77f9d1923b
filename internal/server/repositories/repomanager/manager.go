// Package repomanager vends repositories bound to a database handle or an
// open transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/admissions/internal/dbx"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/activities"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/applications"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/letters"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Applications(db dbx.DBTX) applications.Repository
	Activities(db dbx.DBTX) activities.Repository
	Letters(db dbx.DBTX) letters.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
