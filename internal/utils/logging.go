package utils

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// NewLogger returns a JSON production logger, or a console logger for APP_ENV=development.
func NewLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// ReportError forwards unexpected failures to Sentry. A no-op when Sentry is not initialized.
func ReportError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}
