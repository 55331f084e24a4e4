package errorhandler

import (
	"context"
	"net/http"

	"github.com/photostream/photostream-api/internal/pkg/logger"
	"github.com/photostream/photostream-api/internal/pkg/response"
)

// logRequestError records a failed request; 5xx at error level, the rest at warn.
func logRequestError(ctx context.Context, status int, code, message string, err error) {
	l := logger.FromContext(ctx)
	event := l.Error()
	if status < http.StatusInternalServerError {
		event = l.Warn()
	}

	event = event.
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Request error")
}

// HandleError logs a request failure with its request id and writes the
// error envelope.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	logRequestError(ctx, status, code, message, err)
	response.Error(w, status, code, message)
}

// Upstream answers 502 for a failed collaborator call such as the media host.
func Upstream(ctx context.Context, w http.ResponseWriter, message string, err error) {
	logRequestError(ctx, http.StatusBadGateway, response.CodeUpstream, message, err)
	response.UpstreamError(w, message)
}

// Unavailable answers 503 when the store cannot be reached.
func Unavailable(ctx context.Context, w http.ResponseWriter, err error) {
	const message = "Database unavailable"
	logRequestError(ctx, http.StatusServiceUnavailable, response.CodeUnavailable, message, err)
	response.ServiceUnavailable(w, message)
}

// HandlePanicError logs a recovered panic with its stack and answers 500.
// The stack is never written to the client.
func HandlePanicError(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	response.InternalError(w)
}

// LogExternalServiceError logs errors from external service calls
func LogExternalServiceError(ctx context.Context, service string, endpoint string, statusCode int, err error, body string) {
	logger.FromContext(ctx).Warn().
		Str("request_id", logger.RequestID(ctx)).
		Str("external_service", service).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Err(err).
		Str("response_body", truncateString(body, 1000)).
		Msg("External service error")
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "...<truncated>"
	}
	return s
}
