package main

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Sentry is not initialized without dsn, its capture calls become no-op
func initSentry(dsn string, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
}

func flushSentry() {
	sentry.Flush(2 * time.Second)
}
