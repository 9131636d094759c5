package utils

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

// SentryTraceHeader propagates the sentry trace to the REST API.
const SentryTraceHeader = "sentry-trace"

func GetTraceID(c echo.Context) string {
	if span := sentry.TransactionFromContext(c.Request().Context()); span != nil {
		return span.TraceID.String()
	}
	return ""
}

// GetSentryTrace returns the value of the sentry-trace header for the span in ctx, if any.
func GetSentryTrace(ctx context.Context) string {
	if span := sentry.TransactionFromContext(ctx); span != nil {
		return span.ToSentryTrace()
	}
	return ""
}
