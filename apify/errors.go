package apify

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/apifykit/errors"
	"github.com/kbukum/apifykit/httpclient"
	"github.com/kbukum/apifykit/resilience"
)

const apiName = "Apify API"

func isPollTimeout(err error) bool {
	return stderrors.Is(err, resilience.ErrPollTimeout)
}

// errorType names err's class for metrics.
func errorType(err error) string {
	if err == nil {
		return ""
	}
	var he *httpclient.Error
	if stderrors.As(err, &he) {
		return he.Code.String()
	}
	switch {
	case isPollTimeout(err):
		return "poll_timeout"
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code.Type()
	}
	return "unknown"
}

// AsAppError converts any error returned by a Connection into an
// *errors.AppError. The API's own error type and message are kept when the
// response carried an error envelope.
func AsAppError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	var pte *resilience.PollTimeoutError
	if stderrors.As(err, &pte) {
		return errors.PollTimeout(pte.Error(), pte.Attempts).WithCause(err)
	}

	var he *httpclient.Error
	if !stderrors.As(err, &he) {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return errors.Timeout("apify call").WithCause(err)
		}
		return errors.Internal(err)
	}

	var appErr *errors.AppError
	switch he.Code {
	case httpclient.ErrCodeCredential:
		return errors.MissingCredential(err)
	case httpclient.ErrCodeStorage:
		return errors.StorageFailed(err)
	case httpclient.ErrCodeTimeout:
		appErr = errors.Timeout("apify call")
	case httpclient.ErrCodeConnection:
		appErr = errors.ConnectionFailed(apiName)
	case httpclient.ErrCodeAuth:
		appErr = errors.Unauthorized("The Apify API rejected the token.")
		appErr.HTTPStatus = he.StatusCode
	case httpclient.ErrCodeNotFound:
		appErr = errors.NotFound("resource", "")
	case httpclient.ErrCodeRateLimit:
		appErr = errors.RateLimited()
	case httpclient.ErrCodeServer:
		appErr = errors.ServiceUnavailable(apiName, he.StatusCode)
	case httpclient.ErrCodeValidation:
		appErr = errors.Validation(he.Message)
		if he.StatusCode != 0 {
			appErr.HTTPStatus = he.StatusCode
		}
	default:
		appErr = errors.ExternalServiceError(apiName, nil)
	}
	appErr.Cause = err

	if body, ok := errors.ParseResponse(he.Body); ok {
		appErr.WithType(body.Type)
		if body.Message != "" {
			appErr.Message = body.Message
		}
		if len(body.Details) > 0 {
			appErr.WithDetails(body.Details)
		}
	}
	if he.StatusCode != 0 {
		appErr.WithDetail("status_code", he.StatusCode)
	}
	return appErr
}
