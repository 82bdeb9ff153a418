package nlxd_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/nlxd-go"
)

// TestInstances_ListThenGet tests listing names and fetching each instance.
func TestInstances_ListThenGet(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/1.0/instances":
			writeSync(w, []string{"/1.0/instances/web", "/1.0/instances/db%2Dprimary"})
		case "/1.0/instances/web":
			writeSync(w, map[string]any{"name": "web", "status": "Running", "status_code": 103, "type": "container"})
		case "/1.0/instances/db-primary":
			writeSync(w, map[string]any{"name": "db-primary", "status": "Stopped", "status_code": 102, "type": "virtual-machine"})
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	ctx := context.Background()

	// Act
	names, err := client.Instances(ctx)
	require.NoError(t, err)

	instances := make([]*nlxd.Instance, 0, len(names))
	for _, name := range names {
		inst, err := client.GetInstance(ctx, name)
		require.NoError(t, err)
		instances = append(instances, inst)
	}

	// Assert
	assert.Equal(t, []string{"web", "db-primary"}, names)
	require.Len(t, instances, 2)
	assert.True(t, instances[0].IsRunning())
	assert.False(t, instances[1].IsRunning())
	assert.Equal(t, nlxd.InstanceVirtualMachine, instances[1].Type)
}

func TestInstances_Project(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "staging", r.URL.Query().Get("project"))
		writeSync(w, []string{"/1.0/instances/web?project=staging"})
	}))
	defer server.Close()

	u := server.URL[len("http://"):]
	cfg := nlxd.DefaultConfig()
	cfg.Endpoint = nlxd.Network("http", u)
	cfg.Project = "staging"
	client, err := nlxd.NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	names, err := client.Instances(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"web"}, names)
}

func TestGetInstance_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Instance not found")
	}))
	defer server.Close()

	client := newTestClient(t, server)

	inst, err := client.GetInstance(context.Background(), "ghost")

	require.Error(t, err)
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, nlxd.ErrNotFound)

	_, err = client.GetInstance(context.Background(), "")
	assert.ErrorIs(t, err, nlxd.ErrInvalidRequest)
}

// TestUpdateInstanceState tests starting an instance and waiting for it.
func TestUpdateInstanceState(t *testing.T) {
	// Arrange
	var put nlxd.InstanceStatePut
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/1.0/instances/web/state":
			mustDecode(r, &put)
			writeAsync(w, operationJSON(testOperationID, 100, ""))
		case r.Method == http.MethodGet && r.URL.Path == "/1.0/operations/"+testOperationID:
			writeSync(w, operationJSON(testOperationID, 200, ""))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	// Act
	op, err := client.UpdateInstanceState(context.Background(), "web", nlxd.InstanceStatePut{
		Action:  nlxd.ActionStart,
		Timeout: 30,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, nlxd.Success, op.StatusCode)
	assert.Equal(t, nlxd.ActionStart, put.Action)
	assert.Equal(t, 30, put.Timeout)

	_, err = client.UpdateInstanceState(context.Background(), "web", nlxd.InstanceStatePut{Action: "explode"})
	assert.ErrorIs(t, err, nlxd.ErrInvalidRequest)
}

func TestDeleteInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/1.0/instances/web":
			writeAsync(w, operationJSON(testOperationID, 100, ""))
		case r.Method == http.MethodGet && r.URL.Path == "/1.0/operations/"+testOperationID:
			writeSync(w, operationJSON(testOperationID, 200, ""))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	op, err := client.DeleteInstance(context.Background(), "web")

	require.NoError(t, err)
	assert.Equal(t, nlxd.Success, op.StatusCode)
}

// TestCreateInstance_WaitTimeout tests that WithWaitTimeout bounds the wait
// of resource methods.
func TestCreateInstance_WaitTimeout(t *testing.T) {
	srv := &operationServer{codes: []int{103}}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	client := newTestClient(t, server, nlxd.WithWaitTimeout(0))

	op, err := client.CreateInstance(context.Background(), nlxd.NewInstanceFromImage("web", "ubuntu/22.04"))

	require.Error(t, err)
	assert.ErrorIs(t, err, nlxd.ErrWaitTimedOut)
	assert.Equal(t, nlxd.Running, op.StatusCode)
	assert.Equal(t, int32(1), srv.polls.Load())
}
