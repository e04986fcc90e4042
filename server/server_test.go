package server

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/dronenet/command"
	"github.com/TFMV/dronenet/graph"
	"github.com/TFMV/dronenet/physics"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	flock := physics.NewFlock(physics.DefaultFlockConfig(), physics.Cohesion{},
		physics.WithRand(rand.New(rand.NewSource(3))))
	drones := flock.Spawn(4, physics.DefaultPrefab())
	sim := physics.NewSimulation(flock, physics.DefaultRefreshInterval, nil)

	lte := graph.NewNetwork("lte", "#334D1A")
	gt := graph.NewNetwork("gt", "#998066")
	for _, d := range drones[:3] {
		lte.AddNode(d)
	}
	gt.AddNode(drones[3])
	lte.Connect(0, 1)
	lte.Connect(1, 2)

	srv := New(command.NewSession(sim, nil, lte, gt), nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, command.Result) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var res command.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

func TestStatusFor(t *testing.T) {
	cases := map[command.Kind]int{
		command.KindFound:            http.StatusOK,
		command.KindDestroyed:        http.StatusOK,
		command.KindNotFound:         http.StatusNotFound,
		command.KindNoPath:           http.StatusNotFound,
		command.KindInvalidInput:     http.StatusBadRequest,
		command.KindInvalidState:     http.StatusConflict,
		command.KindNoneUnderControl: http.StatusConflict,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(command.Result{Kind: kind}), kind)
	}
}

func TestCommandEndpoints(t *testing.T) {
	ts := newTestServer(t)

	status, res := do(t, ts, http.MethodGet, "/api/drones/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, command.KindFound, res.Kind)
	assert.Equal(t, "lte", res.Network)

	status, _ = do(t, ts, http.MethodGet, "/api/drones/42", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, ts, http.MethodGet, "/api/drones/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)

	// the failed lookups above cleared the selection
	status, _ = do(t, ts, http.MethodPost, "/api/control/1", "")
	assert.Equal(t, http.StatusConflict, status)

	do(t, ts, http.MethodGet, "/api/drones/1", "")
	status, res = do(t, ts, http.MethodPost, "/api/control/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, command.KindUnderControl, res.Kind)

	status, res = do(t, ts, http.MethodPost, "/api/move?dx=1&dy=0", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, command.KindMoving, res.Kind)

	status, res = do(t, ts, http.MethodPost, "/api/release", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), res.ID)

	status, _ = do(t, ts, http.MethodPost, "/api/release", "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestPathAndDestroy(t *testing.T) {
	ts := newTestServer(t)

	status, res := do(t, ts, http.MethodGet, "/api/path?start=0&end=2", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int64{0, 1, 2}, res.Path)

	status, res = do(t, ts, http.MethodDelete, "/api/drones/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, command.KindDestroyed, res.Kind)

	status, res = do(t, ts, http.MethodGet, "/api/path?start=0&end=2", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, command.KindNoPath, res.Kind)

	status, _ = do(t, ts, http.MethodGet, "/api/path?start=0", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExecEndpoint(t *testing.T) {
	ts := newTestServer(t)

	status, res := do(t, ts, http.MethodPost, "/api/exec", "status\n")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, res.Message, "lte 3 drones/2 links")

	status, res = do(t, ts, http.MethodPost, "/api/exec", "teleport 3")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, command.KindInvalidInput, res.Kind)
}

func TestVisualize(t *testing.T) {
	ts := newTestServer(t)

	for format, contentType := range map[string]string{
		"svg":   "image/svg+xml",
		"ascii": "text/plain; charset=utf-8",
		"json":  "application/json",
	} {
		resp, err := ts.Client().Get(ts.URL + "/visualize?format=" + format)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, format)
		assert.Equal(t, contentType, resp.Header.Get("Content-Type"), format)
	}

	resp, err := ts.Client().Get(ts.URL + "/visualize?format=webgl")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/api/release")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
