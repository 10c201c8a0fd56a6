package ads

import (
	"errors"
	"fmt"
)

// Common errors returned by the ADS client.
var (
	// ErrUnauthorized indicates a missing or invalid ADS token.
	ErrUnauthorized = errors.New("unauthorized access to ADS, check that the ADS token is valid")

	// ErrNoResults indicates that none of the requested bibcodes exist.
	ErrNoResults = errors.New("no entries found in ADS for the input bibcodes")

	// ErrRateLimited indicates the daily or per-second quota is used up.
	ErrRateLimited = errors.New("ADS rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("ADS API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with ADS")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from ADS")
)

// APIError represents an error message returned by the ADS API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ADS API error (status %d): %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrAPIError) succeed.
func (e *APIError) Is(target error) bool {
	return target == ErrAPIError
}

// IsNotFound returns true if the error indicates no bibcode was found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNoResults) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
