package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/eshop/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultSMTPPort        = "587"
	defaultMailWorkers     = 4
	defaultCleanupInterval = time.Minute
	defaultCodeCache       = CodeCachePostgres
)

// Where reset codes are kept
const (
	CodeCachePostgres = "postgres"
	CodeCacheMemory   = "memory"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the eshop service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Some internal parts (like signing JWT tokens) uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Outgoing mail server. If host is empty mails are written to log
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Number of concurrent mail senders
	MailWorkers int

	// Reset code is deleted after the first successful verification
	OTPSingleUse bool

	// Reset codes storage: 'postgres' is shared between instances, 'memory' is for single instance only
	CodeCache string

	// Sentry is disabled if empty
	SentryDSN string

	// How often expired codes and refresh tokens are deleted
	CleanupInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		SMTPPort:        defaultSMTPPort,
		MailWorkers:     defaultMailWorkers,
		OTPSingleUse:    true,
		CodeCache:       defaultCodeCache,
		CleanupInterval: defaultCleanupInterval,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			v, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = v
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			v, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = v
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			v, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = v
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":      setString(&c.ListenAddr),
		"DATABASE_URI":     setString(&c.DatabaseDSN),
		"SECRET_KEY":       setString(&c.SecretKey),
		"LOG_LEVEL":        setString(&c.LogLevel),
		"ENVIRONMENT":      setString(&c.Environment),
		"SMTP_HOST":        setString(&c.SMTPHost),
		"SMTP_PORT":        setString(&c.SMTPPort),
		"SMTP_USERNAME":    setString(&c.SMTPUsername),
		"SMTP_PASSWORD":    setString(&c.SMTPPassword),
		"SMTP_FROM":        setString(&c.SMTPFrom),
		"MAIL_WORKERS":     setInt(&c.MailWorkers),
		"OTP_SINGLE_USE":   setBool(&c.OTPSingleUse),
		"CODE_CACHE":       setString(&c.CodeCache),
		"SENTRY_DSN":       setString(&c.SentryDSN),
		"CLEANUP_INTERVAL": setDuration(&c.CleanupInterval),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s value. Err: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("eshop", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	fs.StringVar(&c.SMTPHost, "smtp-host", c.SMTPHost, "SMTP server host, mails are logged if empty")
	fs.StringVar(&c.SMTPPort, "smtp-port", c.SMTPPort, "SMTP server port")
	fs.StringVar(&c.SMTPUsername, "smtp-username", c.SMTPUsername, "SMTP username")
	fs.StringVar(&c.SMTPPassword, "smtp-password", c.SMTPPassword, "SMTP password")
	fs.StringVar(&c.SMTPFrom, "smtp-from", c.SMTPFrom, "Sender address")
	fs.IntVar(&c.MailWorkers, "mail-workers", c.MailWorkers, "Number of concurrent mail senders")

	fs.BoolVar(&c.OTPSingleUse, "otp-single-use", c.OTPSingleUse, "Delete reset code after successful verification")
	fs.StringVar(&c.CodeCache, "code-cache", c.CodeCache, "Reset codes storage (postgres, memory)")
	fs.StringVar(&c.SentryDSN, "sentry-dsn", c.SentryDSN, "Sentry DSN, reporting disabled if empty")
	fs.DurationVar(&c.CleanupInterval, "cleanup-interval", c.CleanupInterval, "How often expired codes and tokens are deleted")

	return fs.Parse(args)
}
