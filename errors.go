package nlxd

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind groups error codes by the layer that produced them.
type ErrorKind string

const (
	// KindTransport covers failures to reach the daemon or read its reply.
	KindTransport ErrorKind = "transport"

	// KindDecode covers replies that could not be interpreted.
	KindDecode ErrorKind = "decode"

	// KindOperation covers background operations that did not succeed.
	KindOperation ErrorKind = "operation"

	// KindConfig covers client configuration that cannot be used.
	KindConfig ErrorKind = "config"

	// KindAPI covers error envelopes returned by the daemon.
	KindAPI ErrorKind = "api"

	// KindRequest covers requests rejected locally before being sent.
	KindRequest ErrorKind = "request"
)

// Error represents an LXD client error.
//
// Every error returned by this package is an *Error. Use [errors.Is] with
// the sentinel values below to test for a specific condition, or
// [errors.As] to read the fields:
//
//	var lxdErr *nlxd.Error
//	if errors.As(err, &lxdErr) && lxdErr.Kind == nlxd.KindOperation {
//	    log.Printf("operation failed: %s", lxdErr.Message)
//	}
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("nlxd: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("nlxd: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors.
var (
	// Transport
	ErrUnreachable = &Error{Kind: KindTransport, Code: "UNREACHABLE", Message: "daemon unreachable"}
	ErrTimeout     = &Error{Kind: KindTransport, Code: "TIMEOUT", Message: "request timed out"}
	ErrOversized   = &Error{Kind: KindTransport, Code: "OVERSIZED", Message: "response exceeds size ceiling"}

	// Decode
	ErrMalformed           = &Error{Kind: KindDecode, Code: "MALFORMED", Message: "malformed response"}
	ErrUnknownEnvelopeKind = &Error{Kind: KindDecode, Code: "UNKNOWN_ENVELOPE_KIND", Message: "unknown response type"}
	ErrSchemaMismatch      = &Error{Kind: KindDecode, Code: "SCHEMA_MISMATCH", Message: "metadata does not match schema"}
	ErrUnexpectedEnvelope  = &Error{Kind: KindDecode, Code: "UNEXPECTED_ENVELOPE", Message: "unexpected response type"}
	ErrUnknownStatus       = &Error{Kind: KindDecode, Code: "UNKNOWN_STATUS", Message: "unknown status code"}

	// Operation
	ErrOperationFailed   = &Error{Kind: KindOperation, Code: "OPERATION_FAILED", Message: "operation failed"}
	ErrOperationCanceled = &Error{Kind: KindOperation, Code: "OPERATION_CANCELED", Message: "operation canceled"}
	ErrWaitTimedOut      = &Error{Kind: KindOperation, Code: "WAIT_TIMED_OUT", Message: "timed out waiting for operation"}

	// Config
	ErrConfig = &Error{Kind: KindConfig, Code: "CONFIG", Message: "invalid configuration"}

	// API
	ErrBadRequest   = &Error{Kind: KindAPI, Code: "BAD_REQUEST", Message: "invalid request", Status: 400}
	ErrUnauthorized = &Error{Kind: KindAPI, Code: "UNAUTHORIZED", Message: "not authorized", Status: 403}
	ErrNotFound     = &Error{Kind: KindAPI, Code: "NOT_FOUND", Message: "resource not found", Status: 404}
	ErrConflict     = &Error{Kind: KindAPI, Code: "CONFLICT", Message: "resource already exists", Status: 409}
	ErrInternal     = &Error{Kind: KindAPI, Code: "INTERNAL", Message: "internal server error", Status: 500}
	ErrAPI          = &Error{Kind: KindAPI, Code: "API_ERROR", Message: "daemon returned an error"}

	// Request
	ErrInvalidRequest = &Error{Kind: KindRequest, Code: "INVALID_REQUEST", Message: "invalid request"}
)

// derive copies a sentinel, replacing its message and cause.
func derive(sentinel *Error, message string, cause error) *Error {
	e := *sentinel
	if message != "" {
		e.Message = message
	}
	e.Cause = cause
	return &e
}

// apiError maps an error envelope to an *Error keyed by the HTTP-style code
// the daemon reported.
func apiError(code int, message string) *Error {
	var sentinel *Error
	switch code {
	case http.StatusBadRequest:
		sentinel = ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusInternalServerError:
		sentinel = ErrInternal
	default:
		sentinel = ErrAPI
	}
	e := derive(sentinel, message, nil)
	e.Status = code
	return e
}

// IsTransportError reports whether err was produced before a reply could be read.
func IsTransportError(err error) bool {
	return kindOf(err) == KindTransport
}

// IsDecodeError reports whether err was produced while interpreting a reply.
func IsDecodeError(err error) bool {
	return kindOf(err) == KindDecode
}

// IsOperationError reports whether err describes a background operation
// that failed, was canceled or was not awaited to completion.
func IsOperationError(err error) bool {
	return kindOf(err) == KindOperation
}

func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
