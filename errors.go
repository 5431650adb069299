package remio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ehrlich-b/go-remio/internal/interfaces"
)

// ErrNoPending is returned by a Transport when the hypervisor has no
// queued request for a domain. It ends a drain pass normally.
var ErrNoPending = interfaces.ErrNoPending

// Error is a structured dispatcher error with operation and domain
// context.
type Error struct {
	Op     string    // Operation that failed (e.g., "attach", "pause")
	Domain uint32    // Domain id (meaningful only when HasDomain)
	Code   ErrorCode // High-level error category
	Msg    string    // Human-readable message
	Inner  error     // Wrapped error

	HasDomain bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.HasDomain {
		parts = append(parts, fmt.Sprintf("domain=%d", e.Domain))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("remio: %s (%s)", msg, strings.Join(parts, " "))
	}
	return fmt.Sprintf("remio: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches two structured errors by code
func (e *Error) Is(target error) bool {
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	// ErrCodeResourceExhausted means a domain's worker binding could not
	// be allocated at attach time. Fatal to that domain, not the process.
	ErrCodeResourceExhausted ErrorCode = "resource exhausted"

	// ErrCodeTransportFault means a hypercall round trip failed. The
	// current drain pass stops; the domain stays usable.
	ErrCodeTransportFault ErrorCode = "transport fault"

	// ErrCodeRouteNotFound means no client claimed a request's address.
	// The request is dropped and counted.
	ErrCodeRouteNotFound ErrorCode = "route not found"

	// ErrCodeProtocolViolation means a caller used a domain id that is
	// out of range, unknown, or in the wrong lifecycle state.
	ErrCodeProtocolViolation ErrorCode = "protocol violation"

	// ErrCodeDomainBusy means the domain id is already attached.
	ErrCodeDomainBusy ErrorCode = "domain busy"

	// ErrCodeShuttingDown means the dispatcher has been closed.
	ErrCodeShuttingDown ErrorCode = "shutting down"

	// ErrCodeQuiesceTimeout means a pause or destroy gave up waiting for
	// the domain's drain pass to finish. The worker keeps running; the
	// call can be retried with a longer deadline.
	ErrCodeQuiesceTimeout ErrorCode = "quiesce timeout"
)

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:   op,
		Code: code,
		Msg:  msg,
	}
}

// NewDomainError creates a new domain-scoped error
func NewDomainError(op string, domain uint32, code ErrorCode, msg string) *Error {
	return &Error{
		Op:        op,
		Domain:    domain,
		Code:      code,
		Msg:       msg,
		HasDomain: true,
	}
}

// WrapError wraps an existing error with dispatcher context
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	if re, ok := inner.(*Error); ok {
		return &Error{
			Op:        op,
			Domain:    re.Domain,
			Code:      re.Code,
			Msg:       re.Msg,
			Inner:     re.Inner,
			HasDomain: re.HasDomain,
		}
	}
	return &Error{
		Op:    op,
		Code:  code,
		Msg:   inner.Error(),
		Inner: inner,
	}
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
