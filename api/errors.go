package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCreateRequest        = errors.New("error creating a request")
	ErrInvalidStatusCode    = errors.New("invalid status code")
	ErrNotFound             = errors.New("resource not found")
	ErrForbidden            = errors.New("access forbidden")
	ErrRangeNotSatisfiable  = errors.New("requested range not satisfiable")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrInvalidTarget        = errors.New("invalid target url")
	ErrMissingAttachmentRef = errors.New("attachment is missing a name or a path")
)

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusRequestedRangeNotSatisfiable:
		return ErrRangeNotSatisfiable
	default:
		return fmt.Errorf("%w: %d %s", ErrInvalidStatusCode, code, http.StatusText(code))
	}
}
