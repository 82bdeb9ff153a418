package nlxd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-openapi/runtime"
)

// EnvelopeKind is the discriminant of a response envelope.
type EnvelopeKind string

// Envelope kinds.
const (
	SyncEnvelope  EnvelopeKind = "sync"
	AsyncEnvelope EnvelopeKind = "async"
	ErrorEnvelope EnvelopeKind = "error"
)

// CompleteSchema is implemented by metadata types whose wire schema is
// fully declared. Unknown fields in such metadata fail decoding with
// [ErrSchemaMismatch]; other types ignore them.
type CompleteSchema interface {
	SchemaComplete() bool
}

// Envelope is a decoded daemon response. Exactly one of Metadata,
// Operation and Error is set, according to Kind.
type Envelope[T any] struct {
	Kind       EnvelopeKind
	Status     string
	StatusCode StatusCode

	// Metadata is the result of a sync response.
	Metadata *T

	// Operation is the handle of an async response.
	Operation *OperationHandle

	// Error is the failure reported by an error response.
	Error *Error
}

// rawEnvelope is the first decoding phase: the outer fields with metadata
// kept opaque.
type rawEnvelope struct {
	Type       EnvelopeKind    `json:"type"`
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Operation  string          `json:"operation,omitempty"`
	ErrorCode  int             `json:"error_code,omitempty"`
	Error      string          `json:"error,omitempty"`
	Metadata   json.RawMessage `json:"metadata"`
}

// strictConsumer decodes JSON and rejects fields the target does not declare.
var strictConsumer = runtime.ConsumerFunc(func(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
})

// DecodeEnvelope decodes a response body.
//
// The outer envelope is read first; its type field then decides whether
// metadata is decoded as T (sync), as an [Operation] (async) or ignored in
// favour of the error fields (error). An unrecognised type fails with
// [ErrUnknownEnvelopeKind].
func DecodeEnvelope[T any](data []byte) (*Envelope[T], error) {
	return decodeEnvelope[T](runtime.JSONConsumer(), data)
}

func decodeEnvelope[T any](consumer runtime.Consumer, data []byte) (*Envelope[T], error) {
	var raw rawEnvelope
	if err := consumer.Consume(bytes.NewReader(data), &raw); err != nil {
		return nil, derive(ErrMalformed, "response is not a valid envelope", err)
	}

	env := &Envelope[T]{
		Kind:       raw.Type,
		Status:     raw.Status,
		StatusCode: StatusCode(raw.StatusCode),
	}

	switch raw.Type {
	case SyncEnvelope:
		if _, err := ParseStatusCode(raw.StatusCode); err != nil {
			return nil, err
		}
		var v T
		if err := decodeMetadata(raw.Metadata, &v); err != nil {
			return nil, err
		}
		env.Metadata = &v

	case AsyncEnvelope:
		if _, err := ParseStatusCode(raw.StatusCode); err != nil {
			return nil, err
		}
		var op Operation
		if err := decodeMetadata(raw.Metadata, &op); err != nil {
			return nil, err
		}
		handle, err := newOperationHandle(raw.Operation, &op)
		if err != nil {
			return nil, err
		}
		env.Operation = handle

	case ErrorEnvelope:
		code := raw.ErrorCode
		if code == 0 {
			code = raw.StatusCode
		}
		env.StatusCode = StatusCode(code)
		env.Error = apiError(code, raw.Error)

	default:
		return nil, derive(ErrUnknownEnvelopeKind, fmt.Sprintf("unknown response type %q", raw.Type), nil)
	}

	return env, nil
}

// decodeMetadata is the second decoding phase. Null or absent metadata
// leaves v at its zero value.
func decodeMetadata[T any](data json.RawMessage, v *T) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	consumer := runtime.JSONConsumer()
	if cs, ok := any(v).(CompleteSchema); ok && cs.SchemaComplete() {
		consumer = strictConsumer
	}

	if err := consumer.Consume(bytes.NewReader(trimmed), v); err != nil {
		return derive(ErrSchemaMismatch, fmt.Sprintf("metadata is not a valid %T", *v), err)
	}
	return nil
}

// MarshalJSON writes the envelope in the daemon's wire format.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	raw := rawEnvelope{
		Type:       e.Kind,
		Status:     e.Status,
		StatusCode: int(e.StatusCode),
	}

	var metadata any
	switch e.Kind {
	case SyncEnvelope:
		metadata = e.Metadata
	case AsyncEnvelope:
		if e.Operation != nil {
			raw.Operation = e.Operation.Location
			metadata = e.Operation.Initial
		}
	case ErrorEnvelope:
		if e.Error != nil {
			raw.ErrorCode = e.Error.Status
			raw.Error = e.Error.Message
		}
	}

	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		raw.Metadata = data
	}
	return json.Marshal(raw)
}

// decodeResponse decodes a reply, falling back to the HTTP status when the
// body is not JSON at all (for example a proxy error page).
func decodeResponse[T any](c *Client, resp *rawResponse) (*Envelope[T], error) {
	env, err := decodeEnvelope[T](c.consumer, resp.Body)
	if err != nil {
		if resp.StatusCode >= http.StatusBadRequest && errors.Is(err, ErrMalformed) {
			return nil, apiError(resp.StatusCode, snippet(resp.Body))
		}
		return nil, err
	}
	return env, nil
}

// syncRequest performs a request expected to answer synchronously.
func syncRequest[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	resp, err := c.execute(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	env, err := decodeResponse[T](c, resp)
	if err != nil {
		return nil, err
	}
	switch env.Kind {
	case SyncEnvelope:
		return env.Metadata, nil
	case ErrorEnvelope:
		return nil, env.Error
	default:
		return nil, derive(ErrUnexpectedEnvelope, fmt.Sprintf("%s %s: expected a sync response, got %s", method, path, env.Kind), nil)
	}
}

// asyncRequest performs a request expected to start a background operation.
func (c *Client) asyncRequest(ctx context.Context, method, path string, body any) (*OperationHandle, error) {
	resp, err := c.execute(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	env, err := decodeResponse[json.RawMessage](c, resp)
	if err != nil {
		return nil, err
	}
	switch env.Kind {
	case AsyncEnvelope:
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Str("operation", env.Operation.ID).
			Msg("operation started")
		return env.Operation, nil
	case ErrorEnvelope:
		return nil, env.Error
	default:
		return nil, derive(ErrUnexpectedEnvelope, fmt.Sprintf("%s %s: expected an async response, got %s", method, path, env.Kind), nil)
	}
}

func snippet(body []byte) string {
	const limit = 256
	s := string(bytes.TrimSpace(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		s = "empty response"
	}
	return s
}
