package common

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Remote error classes used in log fields
const (
	ErrorClassAuth      = "auth"
	ErrorClassQuota     = "quota"
	ErrorClassRateLimit = "rate_limit"
	ErrorClassNotFound  = "not_found"
	ErrorClassRemote    = "remote"
)

// IsRateLimitError checks for 429 / RESOURCE_EXHAUSTED responses
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED")
}

// IsQuotaExhaustedError detects a hard quota of zero or a spent daily quota.
// Those will not clear by waiting a few seconds.
func IsQuotaExhaustedError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "limit: 0") ||
		strings.Contains(errStr, "quotaexceeded") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "dailylimitexceeded")
}

// IsAuthError detects rejected or missing credentials
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	errStr := err.Error()
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "UNAUTHENTICATED") ||
		strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "invalid_grant")
}

// ClassifyRemoteError maps an API error to one of the ErrorClass values
func ClassifyRemoteError(err error) string {
	var apiErr *googleapi.Error
	switch {
	case IsQuotaExhaustedError(err):
		return ErrorClassQuota
	case IsRateLimitError(err):
		return ErrorClassRateLimit
	case IsAuthError(err):
		return ErrorClassAuth
	case errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound:
		return ErrorClassNotFound
	default:
		return ErrorClassRemote
	}
}
