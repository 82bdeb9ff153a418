package nlxd

import (
	"fmt"
	"strconv"
)

// StatusCode is the LXD resource status code carried in response envelopes,
// operations and instance state. It is unrelated to HTTP status codes.
//
// The codes form three bands:
//   - 1xx: in progress or transitional
//   - 2xx: success
//   - 4xx: failure or cancellation
//
// Codes in the 1xx band are never terminal.
type StatusCode int

// Known status codes.
const (
	OperationCreated StatusCode = 100
	Started          StatusCode = 101
	Stopped          StatusCode = 102
	Running          StatusCode = 103
	Canceling        StatusCode = 104
	Pending          StatusCode = 105
	Starting         StatusCode = 106
	Stopping         StatusCode = 107
	Aborting         StatusCode = 108
	Freezing         StatusCode = 109
	Frozen           StatusCode = 110
	Thawed           StatusCode = 111
	Errored          StatusCode = 112
	Ready            StatusCode = 113

	Success StatusCode = 200

	Failure  StatusCode = 400
	Canceled StatusCode = 401
)

var statusNames = map[StatusCode]string{
	OperationCreated: "Operation created",
	Started:          "Started",
	Stopped:          "Stopped",
	Running:          "Running",
	Canceling:        "Canceling",
	Pending:          "Pending",
	Starting:         "Starting",
	Stopping:         "Stopping",
	Aborting:         "Aborting",
	Freezing:         "Freezing",
	Frozen:           "Frozen",
	Thawed:           "Thawed",
	Errored:          "Error",
	Ready:            "Ready",
	Success:          "Success",
	Failure:          "Failure",
	Canceled:         "Canceled",
}

// String returns the name the daemon uses for the code.
func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown(" + strconv.Itoa(int(s)) + ")"
}

// IsKnown reports whether s belongs to the closed set of status codes.
func (s StatusCode) IsKnown() bool {
	_, ok := statusNames[s]
	return ok
}

// InProgress reports whether s is in the 1xx band.
func (s StatusCode) InProgress() bool {
	return s >= 100 && s < 200
}

// IsTerminal reports whether s is in the 2xx or 4xx band.
func (s StatusCode) IsTerminal() bool {
	return (s >= 200 && s < 300) || (s >= 400 && s < 500)
}

// ParseStatusCode validates a raw status code.
//
// Returns an error wrapping [ErrUnknownStatus] for any value outside the
// closed set.
func ParseStatusCode(code int) (StatusCode, error) {
	s := StatusCode(code)
	if !s.IsKnown() {
		return s, derive(ErrUnknownStatus, fmt.Sprintf("unknown status code %d", code), nil)
	}
	return s, nil
}
