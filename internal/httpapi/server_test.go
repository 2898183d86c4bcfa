package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/sam/internal/config"
	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/internal/httpjobs"
	"github.com/saltyorg/sam/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log, err := logger.New(false)
	require.NoError(t, err)

	specs, err := environment.SpecsFromConfig([]config.ComponentSpec{
		{Name: "svc", Type: "raw", Argv: []string{"true"}},
	})
	require.NoError(t, err)
	b := environment.NewBuilder("", log)
	g, err := b.Build(specs)
	require.NoError(t, err)

	env := environment.New(g, nil, log)
	jm := httpjobs.NewManager(env, log, 1)
	t.Cleanup(func() { jm.Shutdown(time.Second) })

	srv := NewServer(env, jm, log)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestPing_ReportsHealthy(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartComponent_SubmitsJobAndCompletes(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/components/svc/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jr JobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jr))
	require.NotEmpty(t, jr.JobID)

	require.Eventually(t, func() bool {
		r, err := http.Get(ts.URL + "/jobs/" + jr.JobID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		var job httpjobs.Job
		json.NewDecoder(r.Body).Decode(&job)
		return job.Status == httpjobs.StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestBlock_RejectsStart(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/block/10", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/components/svc/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnblock_AllowsStartAgain(t *testing.T) {
	ts := newTestServer(t)

	http.Post(ts.URL+"/block/10", "application/json", nil)
	http.Post(ts.URL+"/unblock", "application/json", nil)

	resp, err := http.Post(ts.URL+"/components/svc/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus_UnknownComponentIs404(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/status/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
