// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicate          = errors.New("duplicate entry")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// BlockedError signals that an IP/endpoint pair is currently inside its
// rate-limit block. Until carries the stored deadline so callers can
// compute a retry hint.
type BlockedError struct {
	Until time.Time
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked until %s", e.Until.UTC().Format(time.RFC3339))
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var blocked *BlockedError
	switch {
	case errors.As(err, &blocked):
		retry := time.Until(blocked.Until)
		if retry < 0 {
			retry = 0
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		Problem(w, http.StatusTooManyRequests, "Too Many Requests", blocked.Error())
	case errors.Is(err, ErrInvalidCredentials):
		// Deliberately generic: never distinguish unknown email from wrong password.
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "invalid email or password")
	case errors.Is(err, ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthenticated", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		// Store outages and anything unrecognised fail closed.
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
