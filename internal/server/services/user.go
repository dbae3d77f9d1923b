// This file implements UserService, which handles registration, login,
// session tokens and the password reset flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/cryptox"
	"github.com/dmitrijs2005/admissions/internal/logging"
	"github.com/dmitrijs2005/admissions/internal/server/auth"
	"github.com/dmitrijs2005/admissions/internal/server/config"
	"github.com/dmitrijs2005/admissions/internal/server/mailer"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/repomanager"
)

const minPasswordLength = 8

// dummyHash is verified against when the account does not exist so that
// unknown e-mails cost the same as wrong passwords.
var dummyHash = cryptox.HashPassword("not-a-real-password")

// UserService provides account operations:
// - Register / Authenticate: create users and check credentials
// - Login / ParseSession: mint and read session tokens
// - RequestPasswordReset / ResetPassword: the e-mailed reset link flow
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	mail        mailer.Mailer
	log         logging.Logger
	config      *config.Config
	jwtSecret   []byte
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, tokens *auth.TokenService, mail mailer.Mailer, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		mail:        mail,
		log:         log.With("module", "users"),
		config:      cfg,
		jwtSecret:   []byte(cfg.SecretKey),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validCredentials(email, password string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && len(password) >= minPasswordLength
}

// Register creates a new account. A taken e-mail yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password, studentName string) (*models.User, error) {
	email = normalizeEmail(email)
	if !validCredentials(email, password) {
		return nil, common.ErrorInvalidInput
	}

	user := &models.User{
		Email:        email,
		PasswordHash: cryptox.HashPassword(password),
		StudentName:  strings.TrimSpace(studentName),
	}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Authenticate checks the credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(dummyHash, password)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "stored password hash is malformed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Login authenticates and returns a signed session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	token, err := auth.GenerateSessionToken(user.ID, s.config.IsAdmin(user.Email), s.jwtSecret, s.config.SessionTTL)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

func (s *UserService) ParseSession(token string) (*auth.Session, error) {
	return auth.ParseSessionToken(token, s.jwtSecret)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// RequestPasswordReset mails a reset link when the account exists. Unknown
// addresses and delivery failures are not reported to the caller.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "password reset requested for unknown e-mail")
			return nil
		}
		return fmt.Errorf("error getting user: %w", err)
	}

	token, err := s.tokens.Issue(user.Email, common.PurposePasswordReset)
	if err != nil {
		return common.ErrorInternal
	}

	link := strings.TrimRight(s.config.BaseURL, "/") + "/password/reset?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("Hello,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s\n\n"+
		"If you did not ask for this, ignore this e-mail.\n", humanDuration(s.config.ResetTokenTTL), link)

	if err := s.mail.Send(ctx, user.Email, "Password reset", body); err != nil {
		s.log.Warn(ctx, "password reset e-mail failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password for the identity inside a valid reset
// token. Expired and invalid tokens are reported as different errors.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	email, err := s.tokens.Verify(token, common.PurposePasswordReset, s.config.ResetTokenTTL)
	if err != nil {
		return err
	}
	return s.SetPassword(ctx, email, password)
}

// SetPassword replaces the password of an existing account.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	if len(password) < minPasswordLength {
		return common.ErrorInvalidInput
	}
	err := s.repomanager.Users(s.db).UpdatePasswordHash(ctx, normalizeEmail(email), cryptox.HashPassword(password))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	}
	return fmt.Sprintf("%d minutes", d/time.Minute)
}
