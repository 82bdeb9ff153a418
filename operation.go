package nlxd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// OperationClass is the kind of background operation.
type OperationClass string

// Operation classes.
const (
	ClassTask      OperationClass = "task"
	ClassToken     OperationClass = "token"
	ClassWebsocket OperationClass = "websocket"
)

// Operation is a background task tracked by the daemon.
//
// The client never mutates an Operation; each poll replaces the previous
// copy with what the daemon reports.
type Operation struct {
	// ID is the operation identifier, normally a UUID.
	ID string `json:"id"`

	// Class is task, token or websocket.
	Class OperationClass `json:"class"`

	// Description is a human-readable summary, e.g. "Creating instance".
	Description string `json:"description"`

	CreatedAt strfmt.DateTime `json:"created_at"`
	UpdatedAt strfmt.DateTime `json:"updated_at"`

	// Status is the name of StatusCode.
	Status string `json:"status"`

	// StatusCode drives the tracker: 1xx codes are in progress, 200 is
	// success, 400 failure and 401 cancellation.
	StatusCode StatusCode `json:"status_code"`

	// Resources lists affected resource URLs keyed by resource type.
	Resources map[string][]string `json:"resources"`

	// Metadata is operation-specific data.
	Metadata map[string]any `json:"metadata"`

	// MayCancel reports whether the daemon accepts a cancel request.
	MayCancel bool `json:"may_cancel"`

	// Err is the failure detail once the operation failed.
	Err string `json:"err"`

	// Location is the cluster member running the operation.
	Location string `json:"location"`
}

// SchemaComplete implements [CompleteSchema].
func (Operation) SchemaComplete() bool { return true }

// State returns the tracker state for the operation's status code.
func (op *Operation) State() (OperationState, error) {
	return StateOf(op.StatusCode)
}

// OperationHandle identifies a background operation and where to poll it.
type OperationHandle struct {
	// ID is the operation identifier.
	ID string

	// Location is the API path of the operation, e.g.
	// "/1.0/operations/6916c8a6-9b7d-4abd-90b3-aedfec7ec7da".
	Location string

	// Initial is the operation as reported when it was created.
	Initial *Operation
}

// UUID parses the handle's identifier.
func (h OperationHandle) UUID() (uuid.UUID, bool) {
	id, err := uuid.Parse(h.ID)
	return id, err == nil
}

// newOperationHandle builds a handle from the envelope's operation locator
// and the initial operation record, deriving whichever is missing.
func newOperationHandle(location string, op *Operation) (*OperationHandle, error) {
	id := op.ID
	if location != "" {
		u, err := url.Parse(location)
		if err != nil || !strings.HasPrefix(u.Path, "/") {
			return nil, derive(ErrMalformed, fmt.Sprintf("invalid operation locator %q", location), err)
		}
		if id == "" {
			id = path.Base(u.Path)
		}
	}
	if id == "" {
		return nil, derive(ErrMalformed, "async response carries no operation id", nil)
	}
	if location == "" {
		location = "/" + string(APIv1) + "/operations/" + url.PathEscape(id)
	}
	return &OperationHandle{ID: id, Location: location, Initial: op}, nil
}

// OperationHandleFor returns the handle of a known operation.
//
// id may be a bare identifier or an operation path such as the entries
// returned by [Client.Operations].
func (c *Client) OperationHandleFor(id string) (OperationHandle, error) {
	if id == "" {
		return OperationHandle{}, derive(ErrInvalidRequest, "operation id is required", nil)
	}
	if strings.HasPrefix(id, "/") {
		h, err := newOperationHandle(id, &Operation{})
		if err != nil {
			return OperationHandle{}, err
		}
		h.Initial = nil
		return *h, nil
	}
	if parsed, err := uuid.Parse(id); err == nil {
		id = parsed.String()
	}
	return OperationHandle{
		ID:       id,
		Location: c.apiPath("operations", url.PathEscape(id)),
	}, nil
}

// OperationState is the tracker's view of an operation.
type OperationState int

// Tracker states. Created moves to Polling on the first status fetch;
// Polling ends in Succeeded, Failed or Canceled.
const (
	StateCreated OperationState = iota
	StatePolling
	StateSucceeded
	StateFailed
	StateCanceled
)

func (s OperationState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further polling can change the state.
func (s OperationState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCanceled
}

// StateOf maps a status code to a tracker state.
//
// Codes 100-113 map to Polling, 200 to Succeeded, 400 to Failed and 401 to
// Canceled. Anything else returns [ErrUnknownStatus].
func StateOf(code StatusCode) (OperationState, error) {
	switch {
	case code.InProgress() && code.IsKnown():
		return StatePolling, nil
	case code == Success:
		return StateSucceeded, nil
	case code == Failure:
		return StateFailed, nil
	case code == Canceled:
		return StateCanceled, nil
	default:
		return StatePolling, derive(ErrUnknownStatus, fmt.Sprintf("operation reported unknown status code %d", int(code)), nil)
	}
}

// GetOperation fetches the current state of an operation.
func (c *Client) GetOperation(ctx context.Context, handle OperationHandle) (*Operation, error) {
	if handle.Location == "" {
		return nil, derive(ErrInvalidRequest, "operation handle has no location", nil)
	}
	return syncRequest[Operation](ctx, c, http.MethodGet, handle.Location, nil)
}

// WaitOperation polls an operation until it reaches a terminal state.
//
// The first poll happens immediately. While the operation stays in the 1xx
// band the tracker sleeps for the poll interval, which doubles up to the
// configured maximum, and polls again. No connection is held between
// polls.
//
// timeout bounds the wait: zero allows a single poll, a negative value
// waits until the operation ends or ctx is done. When the timeout elapses
// WaitOperation returns [ErrWaitTimedOut] with the last polled operation
// and leaves the operation running; see [Client.CancelOperation].
//
// A failed operation returns [ErrOperationFailed] whose Message is the
// operation's Err; a canceled one returns [ErrOperationCanceled]. Both come
// with the final operation.
func (c *Client) WaitOperation(ctx context.Context, handle OperationHandle, timeout time.Duration) (*Operation, error) {
	start := time.Now()
	w := c.watch(ctx, handle, timeout)
	defer w.Close()

	for w.Next() {
		if w.State().IsTerminal() {
			break
		}
	}

	op := w.Operation()
	if err := w.Err(); err != nil {
		c.logger.Debug().
			Str("operation", handle.ID).
			Int("polls", w.polls).
			Err(err).
			Msg("wait ended without a terminal state")
		return op, err
	}

	state := w.State()
	c.metrics.observeOperation(state, time.Since(start))
	c.logger.Debug().
		Str("operation", handle.ID).
		Str("state", state.String()).
		Int("status_code", int(op.StatusCode)).
		Int("polls", w.polls).
		Msg("operation finished")

	switch state {
	case StateSucceeded:
		return op, nil
	case StateFailed:
		return op, derive(ErrOperationFailed, op.Err, nil)
	case StateCanceled:
		return op, derive(ErrOperationCanceled, op.Err, nil)
	default:
		return op, derive(ErrWaitTimedOut, "", nil)
	}
}

// CancelOutcome reports what a cancel request achieved.
type CancelOutcome struct {
	// Requested is true when the daemon accepted the cancel request.
	Requested bool

	// Reason explains why nothing was requested.
	Reason string
}

// CancelOperation asks the daemon to cancel an operation.
//
// Cancellation is best effort. An operation that already ended, cannot be
// canceled, or whose cancel request the daemon refuses yields an outcome
// with Requested false and no error. Only transport and decode failures
// are returned as errors.
func (c *Client) CancelOperation(ctx context.Context, handle OperationHandle) (CancelOutcome, error) {
	op, err := c.GetOperation(ctx, handle)
	if err != nil {
		if kindOf(err) == KindAPI {
			return CancelOutcome{Reason: err.Error()}, nil
		}
		return CancelOutcome{}, err
	}
	if op.StatusCode.IsTerminal() {
		return CancelOutcome{Reason: fmt.Sprintf("operation already ended with status %s", op.StatusCode)}, nil
	}
	if !op.MayCancel {
		return CancelOutcome{Reason: "operation cannot be canceled"}, nil
	}

	_, err = syncRequest[map[string]any](ctx, c, http.MethodDelete, handle.Location, nil)
	if err != nil {
		if kindOf(err) == KindAPI {
			return CancelOutcome{Reason: err.Error()}, nil
		}
		return CancelOutcome{}, err
	}

	c.logger.Debug().Str("operation", handle.ID).Msg("cancel requested")
	return CancelOutcome{Requested: true}, nil
}
