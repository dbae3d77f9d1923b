package config

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
)

// EnvConfig is the DTO decoded from ADMISSIONS_* environment variables.
// It is pre-filled from the current Config so that unset variables keep
// their values. Lists are separated by ";", the deadline is RFC 3339.
type EnvConfig struct {
	HTTPAddr               string        `env:"ADMISSIONS_HTTP_ADDR"`
	DatabaseDSN            string        `env:"ADMISSIONS_DATABASE_DSN"`
	SecretKey              string        `env:"ADMISSIONS_SECRET_KEY"`
	SessionTTL             time.Duration `env:"ADMISSIONS_SESSION_TTL,strict"`
	ResetTokenTTL          time.Duration `env:"ADMISSIONS_RESET_TOKEN_TTL,strict"`
	SubmissionDeadline     time.Time     `env:"ADMISSIONS_SUBMISSION_DEADLINE"`
	MaxUploadSize          int64         `env:"ADMISSIONS_MAX_UPLOAD_SIZE,strict"`
	StorageBackend         string        `env:"ADMISSIONS_STORAGE_BACKEND"`
	UploadDir              string        `env:"ADMISSIONS_UPLOAD_DIR"`
	S3RootUser             string        `env:"ADMISSIONS_S3_ROOT_USER"`
	S3RootPassword         string        `env:"ADMISSIONS_S3_ROOT_PASSWORD"`
	S3Bucket               string        `env:"ADMISSIONS_S3_BUCKET"`
	S3Region               string        `env:"ADMISSIONS_S3_REGION"`
	S3BaseEndpoint         string        `env:"ADMISSIONS_S3_BASE_ENDPOINT"`
	SMTPHost               string        `env:"ADMISSIONS_SMTP_HOST"`
	SMTPPort               int           `env:"ADMISSIONS_SMTP_PORT,strict"`
	SMTPUser               string        `env:"ADMISSIONS_SMTP_USER"`
	SMTPPassword           string        `env:"ADMISSIONS_SMTP_PASSWORD"`
	SMTPFrom               string        `env:"ADMISSIONS_SMTP_FROM"`
	MailBcc                []string      `env:"ADMISSIONS_MAIL_BCC"`
	BaseURL                string        `env:"ADMISSIONS_BASE_URL"`
	ProgramName            string        `env:"ADMISSIONS_PROGRAM_NAME"`
	AdminEmails            []string      `env:"ADMISSIONS_ADMIN_EMAILS"`
	RedisAddr              string        `env:"ADMISSIONS_REDIS_ADDR"`
	TrustedProxies         []string      `env:"ADMISSIONS_TRUSTED_PROXIES"`
	ResetRequestsPerMinute int           `env:"ADMISSIONS_RESET_REQUESTS_PER_MINUTE,strict"`
	ResetRequestBurst      int           `env:"ADMISSIONS_RESET_REQUEST_BURST,strict"`
	LogLevel               string        `env:"ADMISSIONS_LOG_LEVEL"`
}

// parseEnv overlays Config with ADMISSIONS_* environment variables.
// Values that cannot be parsed cause a panic, as with the JSON file.
func parseEnv(config *Config) {
	c := &EnvConfig{
		HTTPAddr:               config.HTTPAddr,
		DatabaseDSN:            config.DatabaseDSN,
		SecretKey:              config.SecretKey,
		SessionTTL:             config.SessionTTL,
		ResetTokenTTL:          config.ResetTokenTTL,
		SubmissionDeadline:     config.SubmissionDeadline,
		MaxUploadSize:          config.MaxUploadSize,
		StorageBackend:         config.StorageBackend,
		UploadDir:              config.UploadDir,
		S3RootUser:             config.S3RootUser,
		S3RootPassword:         config.S3RootPassword,
		S3Bucket:               config.S3Bucket,
		S3Region:               config.S3Region,
		S3BaseEndpoint:         config.S3BaseEndpoint,
		SMTPHost:               config.SMTPHost,
		SMTPPort:               config.SMTPPort,
		SMTPUser:               config.SMTPUser,
		SMTPPassword:           config.SMTPPassword,
		SMTPFrom:               config.SMTPFrom,
		MailBcc:                config.MailBcc,
		BaseURL:                config.BaseURL,
		ProgramName:            config.ProgramName,
		AdminEmails:            config.AdminEmails,
		RedisAddr:              config.RedisAddr,
		TrustedProxies:         config.TrustedProxies,
		ResetRequestsPerMinute: config.ResetRequestsPerMinute,
		ResetRequestBurst:      config.ResetRequestBurst,
		LogLevel:               config.LogLevel,
	}

	if err := envdecode.Decode(c); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return
		}
		panic(err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionTTL = c.SessionTTL
	config.ResetTokenTTL = c.ResetTokenTTL
	config.SubmissionDeadline = c.SubmissionDeadline
	config.MaxUploadSize = c.MaxUploadSize
	config.StorageBackend = c.StorageBackend
	config.UploadDir = c.UploadDir
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.SMTPHost = c.SMTPHost
	config.SMTPPort = c.SMTPPort
	config.SMTPUser = c.SMTPUser
	config.SMTPPassword = c.SMTPPassword
	config.SMTPFrom = c.SMTPFrom
	config.MailBcc = c.MailBcc
	config.BaseURL = c.BaseURL
	config.ProgramName = c.ProgramName
	config.AdminEmails = c.AdminEmails
	config.RedisAddr = c.RedisAddr
	config.TrustedProxies = c.TrustedProxies
	config.ResetRequestsPerMinute = c.ResetRequestsPerMinute
	config.ResetRequestBurst = c.ResetRequestBurst
	config.LogLevel = c.LogLevel
}
