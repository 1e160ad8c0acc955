package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"scango/app/internal/apperr"
)

const internalErrorMessage = "Internal server error. Please try again later."

// apiError is the envelope every failed request is answered with.
type apiError struct {
	status  int
	Success bool   `json:"success"`
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *apiError) GetStatus() int {
	return e.status
}

func newAPIError(status int, message string) *apiError {
	return &apiError{status: status, Message: message}
}

var installErrorEnvelope sync.Once

// useErrorEnvelope routes huma's own failures (decode, validation, WriteErr)
// through the envelope. Validation failures are reported as 400.
func useErrorEnvelope() {
	installErrorEnvelope.Do(func() {
		huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
			if status == stdhttp.StatusUnprocessableEntity {
				status = stdhttp.StatusBadRequest
			}
			if status >= stdhttp.StatusInternalServerError {
				return newAPIError(status, internalErrorMessage)
			}

			details := make([]string, 0, len(errs))
			for _, err := range errs {
				if err != nil {
					details = append(details, err.Error())
				}
			}
			if len(details) > 0 {
				message = message + ": " + strings.Join(details, "; ")
			}
			return newAPIError(status, message)
		}
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return stdhttp.StatusBadRequest
	case apperr.KindUnauthorized:
		return stdhttp.StatusUnauthorized
	case apperr.KindNotFound:
		return stdhttp.StatusNotFound
	case apperr.KindConflict:
		return stdhttp.StatusConflict
	case apperr.KindUpstream:
		return stdhttp.StatusBadGateway
	default:
		return stdhttp.StatusInternalServerError
	}
}

// fail converts a service error into the envelope. Internal failures are
// logged and reported; their details never reach the client.
func (s *Server) fail(ctx context.Context, err error, action string, fields logrus.Fields) error {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)

	message, ok := apperr.MessageOf(err)
	if !ok || kind == apperr.KindInternal {
		message = internalErrorMessage
	}

	if status >= stdhttp.StatusInternalServerError {
		s.recordError(ctx, err, action, fields)
	}

	return newAPIError(status, message)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
