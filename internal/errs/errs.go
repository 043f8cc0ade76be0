// internal/errs/errs.go
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error so handlers can map it to an HTTP status
// without string matching on messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindPolicy
	KindNotFound
	KindPermission
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPolicy:
		return "policy"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the status code a handler should respond with for
// this kind. Consistency errors reaching a handler mean a synchronous
// operation hit corrupt data, so they surface as 500.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindPolicy:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable error code used in API envelopes.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindPolicy:
		return "POLICY_VIOLATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindPermission:
		return "FORBIDDEN"
	case KindConsistency:
		return "INCONSISTENT_STATE"
	default:
		return "INTERNAL_ERROR"
	}
}

type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Kind() Kind { return e.kind }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) error {
	return newf(KindValidation, format, args...)
}

func Policyf(format string, args ...interface{}) error {
	return newf(KindPolicy, format, args...)
}

func NotFoundf(format string, args ...interface{}) error {
	return newf(KindNotFound, format, args...)
}

func Permissionf(format string, args ...interface{}) error {
	return newf(KindPermission, format, args...)
}

func Consistencyf(format string, args ...interface{}) error {
	return newf(KindConsistency, format, args...)
}

// KindOf extracts the kind from an error chain. Errors that never went
// through this package report KindUnknown and map to 500.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
