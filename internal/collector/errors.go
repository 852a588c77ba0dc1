package collector

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v55/github"

	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
)

// UpstreamError classifies a failed GitHub call. resource names the thing
// that was requested and is used for not-found messages. The upstream status
// and the cause are kept on the returned error; calls that got no response
// report 500.
func UpstreamError(resp *github.Response, resource, message string, err error) *apperrors.AppError {
	status := http.StatusInternalServerError
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr), status == http.StatusTooManyRequests:
		appErr = apperrors.NewRateLimitedError("GitHub rate limit exceeded")
	case status == http.StatusUnauthorized:
		appErr = apperrors.NewUnauthorizedError("GitHub rejected the credentials")
	case status == http.StatusForbidden:
		appErr = apperrors.NewForbiddenError(message)
	case status == http.StatusNotFound:
		appErr = apperrors.NewNotFoundError(resource)
	default:
		return apperrors.NewUpstreamError(status, message, err)
	}
	appErr.Status = status
	appErr.Err = err
	return appErr
}
