// Package server initializes and runs the admissions service.
// It opens the database, applies migrations, builds the attachment store,
// mailer and services, and serves the HTTP API until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/admissions/internal/logging"
	"github.com/dmitrijs2005/admissions/internal/server/attachments"
	"github.com/dmitrijs2005/admissions/internal/server/auth"
	"github.com/dmitrijs2005/admissions/internal/server/config"
	"github.com/dmitrijs2005/admissions/internal/server/documents"
	"github.com/dmitrijs2005/admissions/internal/server/export"
	"github.com/dmitrijs2005/admissions/internal/server/httpapi"
	"github.com/dmitrijs2005/admissions/internal/server/mailer"
	"github.com/dmitrijs2005/admissions/internal/server/metrics"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/admissions/internal/server/services"
	"github.com/redis/go-redis/v9"
)

// Test seams.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	redis        *redis.Client
	metrics      *metrics.Metrics
	users        *services.UserService
	applications *services.ApplicationService
	exporter     *export.Exporter
	server       *httpapi.Server
}

// NewApp wires every component from c. The database is migrated before
// NewApp returns.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := newRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := newAttachmentStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db, metrics: metrics.New()}

	mail := mailer.New(mailer.SMTPOptions{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		Bcc:      c.MailBcc,
	}, logger.With("module", "mailer"))

	tokens := auth.NewTokenService([]byte(c.SecretKey))

	app.users = services.NewUserService(db, rm, c, tokens, mail, logger)
	app.applications = services.NewApplicationService(db, rm)
	coordinator := services.NewSubmissionCoordinator(app.applications, app.users, store, mail, app.metrics, logger, c.ProgramName, c.SubmissionDeadline)

	generator := documents.NewGenerator(documents.NewPDFConverter(), rm.Letters(db), c.ProgramName)
	app.exporter = export.NewExporter(app.applications, generator, store, app.metrics, logger)

	var limiter httpapi.Limiter
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		limiter = httpapi.NewRedisLimiter(app.redis, c.ResetRequestsPerMinute, time.Minute)
	} else {
		limiter = httpapi.NewMemoryLimiter(c.ResetRequestsPerMinute, c.ResetRequestBurst)
	}

	app.server = httpapi.NewServer(c.HTTPAddr, logger, httpapi.Deps{
		Accounts:     app.users,
		Submissions:  coordinator,
		Applications: app.applications,
		Documents:    generator,
		Exporter:     app.exporter,
		Attachments:  store,
		Limiter:      limiter,
		Metrics:      app.metrics,
	}, httpapi.Options{
		MaxUploadSize:  c.MaxUploadSize,
		SessionTTL:     c.SessionTTL,
		SecureCookies:  strings.HasPrefix(c.BaseURL, "https://"),
		BaseURL:        c.BaseURL,
		TrustedProxies: c.TrustedProxies,
	})

	return app, nil
}

func newAttachmentStore(ctx context.Context, c *config.Config) (attachments.Store, error) {
	switch c.StorageBackend {
	case config.StorageLocal, "":
		s, err := attachments.NewLocalStore(c.UploadDir, c.MaxUploadSize)
		if err != nil {
			return nil, fmt.Errorf("attachment store: %w", err)
		}
		return s, nil
	case config.StorageS3:
		s, err := attachments.NewS3Store(ctx, attachments.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		}, c.MaxUploadSize)
		if err != nil {
			return nil, fmt.Errorf("attachment store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("attachment store: unknown backend %q", c.StorageBackend)
	}
}

func (app *App) Users() *services.UserService { return app.users }

func (app *App) Applications() *services.ApplicationService { return app.applications }

func (app *App) Exporter() *export.Exporter { return app.exporter }

// Close releases the database and Redis connections.
func (app *App) Close() error {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "deadline", app.config.SubmissionDeadline, "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close error", "error", err)
	}
}
