package hmsclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

var (
	// ErrRemoteUnavailable is returned when the service could not be reached
	// or answered without a usable body
	ErrRemoteUnavailable = errors.New("voucher service unavailable")

	// ErrRemoteRejected is matched by every *APIError
	ErrRemoteRejected = errors.New("voucher service rejected the request")

	// ErrNotFound is matched by an *APIError with status 404
	ErrNotFound = entity.ErrNotFound
)

// APIError is a non-2xx response that carried a detail message
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Is matches ErrRemoteRejected for every status, ErrNotFound for 404
// and workflow.ErrInvalidTransition for 409
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRemoteRejected:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case workflow.ErrInvalidTransition:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// Detail returns the server's detail message carried by err, if any
func Detail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

func unavailable(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRemoteUnavailable, fmt.Sprintf(format, args...))
}
