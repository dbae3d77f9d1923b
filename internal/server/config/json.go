package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/admissions/internal/flagx"
	"github.com/dmitrijs2005/admissions/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds. The submission
// deadline is an RFC 3339 string; empty means no cutoff.
//
// This struct is an intermediate DTO (Data Transfer Object) used only for
// reading JSON configuration files. After unmarshalling, its fields are
// copied into the runtime Config struct.
type JsonConfig struct {
	HTTPAddr               string         `json:"http_addr"`
	DatabaseDSN            string         `json:"database_dsn"`
	SecretKey              string         `json:"secret_key"`
	SessionTTL             timex.Duration `json:"session_ttl"`
	ResetTokenTTL          timex.Duration `json:"reset_token_ttl"`
	SubmissionDeadline     string         `json:"submission_deadline"`
	MaxUploadSize          int64          `json:"max_upload_size"`
	StorageBackend         string         `json:"storage_backend"`
	UploadDir              string         `json:"upload_dir"`
	S3RootUser             string         `json:"s3_root_user"`
	S3RootPassword         string         `json:"s3_root_password"`
	S3Bucket               string         `json:"s3_bucket"`
	S3Region               string         `json:"s3_region"`
	S3BaseEndpoint         string         `json:"s3_base_endpoint"`
	SMTPHost               string         `json:"smtp_host"`
	SMTPPort               int            `json:"smtp_port"`
	SMTPUser               string         `json:"smtp_user"`
	SMTPPassword           string         `json:"smtp_password"`
	SMTPFrom               string         `json:"smtp_from"`
	MailBcc                []string       `json:"mail_bcc"`
	BaseURL                string         `json:"base_url"`
	ProgramName            string         `json:"program_name"`
	AdminEmails            []string       `json:"admin_emails"`
	RedisAddr              string         `json:"redis_addr"`
	TrustedProxies         []string       `json:"trusted_proxies"`
	ResetRequestsPerMinute int            `json:"reset_requests_per_minute"`
	ResetRequestBurst      int            `json:"reset_request_burst"`
	LogLevel               string         `json:"log_level"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags.
// If neither is set, no JSON file is loaded.
//
// Keys present in the file replace the corresponding Config values; absent
// keys leave them untouched. If the file cannot be read or contains invalid
// JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		HTTPAddr:               config.HTTPAddr,
		DatabaseDSN:            config.DatabaseDSN,
		SecretKey:              config.SecretKey,
		SessionTTL:             timex.Duration{Duration: config.SessionTTL},
		ResetTokenTTL:          timex.Duration{Duration: config.ResetTokenTTL},
		SubmissionDeadline:     formatDeadline(config.SubmissionDeadline),
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

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	deadline, err := parseDeadline(c.SubmissionDeadline)
	if err != nil {
		panic(err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionTTL = c.SessionTTL.Duration
	config.ResetTokenTTL = c.ResetTokenTTL.Duration
	config.SubmissionDeadline = deadline
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

func formatDeadline(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseDeadline(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
