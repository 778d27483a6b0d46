package githubapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v72/github"
)

var (
	// ErrForbidden matches any APIError with status 403
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound matches any APIError with status 404
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned, wrapped, when an operation rejects its inputs before calling GitHub
	ErrInvalidArgument = errors.New("invalid argument")
)

const (
	forbiddenHint = "the token may be missing a required scope: grant the 'repo' scope (or 'public_repo' for " +
		"public repositories) or the matching fine-grained permission; GitHub also answers 403 when the rate limit " +
		"is exhausted"
	notFoundHint = "not found: check the owner and repository names, or the token may not have access to this " +
		"private resource (missing 'repo' scope)"
)

// APIError means GitHub responded with a non-2xx status
type APIError struct {
	Op         string
	StatusCode int
	Message    string // GitHub's own message, if it sent one
	Hint       string // Likely cause, for 403 and 404
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: GitHub API error %d", e.Op, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// NetworkError means the request never produced an HTTP response
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: could not reach GitHub: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError means the response body did not have the expected shape
type ValidationError struct {
	Op    string
	Field string // Which value failed, e.g. "item 3"; may be empty
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid response: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: invalid response: %s: %v", e.Op, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// wrapError classifies an error returned by go-github. A missing response means the transport failed; a 2xx
// response with an error means the body could not be decoded
func wrapError(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp == nil || resp.Response == nil {
		return &NetworkError{Op: op, Err: err}
	}

	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return &ValidationError{Op: op, Err: err}
	}

	return newAPIError(op, status, err)
}

func newAPIError(op string, status int, err error) *APIError {
	apiErr := &APIError{Op: op, StatusCode: status, Err: err}

	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr):
		apiErr.Message = rateErr.Message
	case errors.As(err, &abuseErr):
		apiErr.Message = abuseErr.Message
	case errors.As(err, &errResp):
		apiErr.Message = errResp.Message
	}

	switch status {
	case http.StatusForbidden:
		apiErr.Hint = forbiddenHint
	case http.StatusNotFound:
		apiErr.Hint = notFoundHint
	}
	return apiErr
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
