package nlxd_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/nlxd-go"
)

const testOperationID = "6916c8a6-9b7d-4abd-90b3-aedfec7ec7da"

// mustEncode encodes v as JSON and writes it to w.
// Panics on error - safe in tests since errors indicate test bugs.
func mustEncode(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic("failed to encode response: " + err.Error())
	}
}

// mustDecode decodes JSON from r.Body into v.
// Panics on error - safe in tests since errors indicate test bugs.
func mustDecode(r *http.Request, v any) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		panic("failed to decode request: " + err.Error())
	}
}

// writeSync writes a sync envelope carrying metadata.
func writeSync(w http.ResponseWriter, metadata any) {
	w.Header().Set("Content-Type", "application/json")
	mustEncode(w, map[string]any{
		"type":        "sync",
		"status":      "Success",
		"status_code": 200,
		"metadata":    metadata,
	})
}

// writeAsync writes an async envelope for op.
func writeAsync(w http.ResponseWriter, op map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	mustEncode(w, map[string]any{
		"type":        "async",
		"status":      "Operation created",
		"status_code": 100,
		"operation":   "/1.0/operations/" + op["id"].(string),
		"metadata":    op,
	})
}

// writeError writes an error envelope with the given HTTP-style code.
func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	mustEncode(w, map[string]any{
		"type":        "error",
		"status":      "",
		"status_code": 0,
		"error_code":  code,
		"error":       message,
		"metadata":    nil,
	})
}

// operationJSON returns an operation record as the daemon sends it.
func operationJSON(id string, code int, errMsg string) map[string]any {
	return map[string]any{
		"id":          id,
		"class":       "task",
		"description": "Creating instance",
		"created_at":  "2024-05-01T10:00:00Z",
		"updated_at":  "2024-05-01T10:00:01Z",
		"status":      nlxd.StatusCode(code).String(),
		"status_code": code,
		"resources":   map[string][]string{"instances": {"/1.0/instances/web"}},
		"metadata":    nil,
		"may_cancel":  true,
		"err":         errMsg,
		"location":    "none",
	}
}

// newTestClient creates a client pointed at server with a fast poll interval.
func newTestClient(t *testing.T, server *httptest.Server, opts ...nlxd.Option) *nlxd.Client {
	t.Helper()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	cfg := nlxd.DefaultConfig()
	cfg.Endpoint = nlxd.Network(u.Scheme, u.Host)

	opts = append([]nlxd.Option{nlxd.WithPollInterval(time.Millisecond, 5*time.Millisecond)}, opts...)
	client, err := nlxd.NewClient(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

// fakeEnv returns a getenv function backed by vars.
func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

// fakeFS returns an existence check that reports only the given paths.
func fakeFS(paths ...string) func(string) bool {
	return func(p string) bool {
		for _, candidate := range paths {
			if candidate == p {
				return true
			}
		}
		return false
	}
}
