package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeService is a minimal job service keeping state between requests.
type fakeService struct {
	t *testing.T

	mu        sync.Mutex
	token     string
	statuses  []string // returned in order by GET /jobs/{id}, last one repeats
	polls     int
	submitted submitRequest
	requestID string
	counts    Counts
	failWith  int
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != 0 {
		http.Error(w, "service says no", f.failWith)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		http.Error(w, "bad token", http.StatusUnauthorized)
		return
	}
	f.requestID = r.Header.Get("X-Request-ID")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/jobs":
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.submitted))
		writeJSON(w, map[string]string{"id": "job-1"})
	case r.Method == http.MethodGet && r.URL.Path == "/jobs/job-1":
		i := f.polls
		if i >= len(f.statuses) {
			i = len(f.statuses) - 1
		}
		f.polls++
		writeJSON(w, JobStatus{ID: "job-1", Status: f.statuses[i], Message: "calibration drift"})
	case r.Method == http.MethodGet && r.URL.Path == "/jobs/job-1/results":
		writeJSON(w, map[string]any{"counts": f.counts})
	case r.Method == http.MethodGet && r.URL.Path == "/backends":
		writeJSON(w, []BackendInfo{{Name: "ibm_kyiv", Qubits: 127, Status: "online"}, {Name: "sim", Simulator: true}})
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newRemote(t *testing.T, svc *fakeService, token string) *Remote {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return NewRemote(RemoteConfig{
		URL:          srv.URL + "/",
		Backend:      "ibm_kyiv",
		Token:        token,
		PollInterval: time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestRemoteRunCompleted(t *testing.T) {
	svc := &fakeService{
		t:        t,
		token:    "secret",
		statuses: []string{JobQueued, JobRunning, JobCompleted},
		counts:   Counts{"1": 1000, "0": 24},
	}
	r := newRemote(t, svc, "secret")

	counts, err := r.Run(context.Background(), mux4(t), 1024)
	require.NoError(t, err)
	assert.Equal(t, Counts{"1": 1000, "0": 24}, counts)

	assert.Equal(t, "ibm_kyiv", svc.submitted.Backend)
	assert.Equal(t, 1024, svc.submitted.Shots)
	assert.True(t, strings.HasPrefix(svc.submitted.QASM, "OPENQASM 2.0;"))
	assert.Contains(t, svc.submitted.QASM, "measure q[6] -> c[0];")
	assert.Nil(t, svc.submitted.Noise)
	assert.Equal(t, 3, svc.polls)
	assert.Len(t, svc.requestID, 36)
}

func TestRemoteForwardsNoise(t *testing.T) {
	svc := &fakeService{t: t, token: "k", statuses: []string{JobCompleted}, counts: Counts{"1": 1}}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	noise := DefaultNoise()
	r := NewRemote(RemoteConfig{URL: srv.URL, Backend: "sim", Token: "k", Noise: &noise}, nil)
	_, err := r.Run(context.Background(), mux4(t), 1)
	require.NoError(t, err)
	require.NotNil(t, svc.submitted.Noise)
	assert.Equal(t, 0.3, svc.submitted.Noise.GateError2)
}

func TestRemoteUnauthorized(t *testing.T) {
	svc := &fakeService{t: t, token: "secret", statuses: []string{JobCompleted}}
	r := newRemote(t, svc, "wrong")

	_, err := r.Run(context.Background(), mux4(t), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, http.StatusUnauthorized, execErr.Status)
	assert.Equal(t, "submit", execErr.Op)
}

func TestRemoteUnavailable(t *testing.T) {
	for _, code := range []int{http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		svc := &fakeService{t: t, token: "k", failWith: code}
		r := newRemote(t, svc, "k")

		_, err := r.Backends(context.Background())
		assert.True(t, errors.Is(err, ErrUnavailable), "status %d", code)
		assert.ErrorContains(t, err, "service says no")
	}
}

func TestRemoteJobFailed(t *testing.T) {
	for _, status := range []string{JobFailed, JobCancelled} {
		svc := &fakeService{t: t, token: "k", statuses: []string{JobQueued, status}}
		r := newRemote(t, svc, "k")

		_, err := r.Run(context.Background(), mux4(t), 10)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrJobFailed), status)
		assert.ErrorContains(t, err, "calibration drift")
	}
}

func TestRemoteUnknownStatus(t *testing.T) {
	svc := &fakeService{t: t, token: "k", statuses: []string{"exploded"}}
	r := newRemote(t, svc, "k")

	_, err := r.Run(context.Background(), mux4(t), 10)
	assert.ErrorContains(t, err, `unknown job status "exploded"`)
}

func TestRemoteContextCancelled(t *testing.T) {
	svc := &fakeService{t: t, token: "k", statuses: []string{JobRunning}}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	r := NewRemote(RemoteConfig{URL: srv.URL, Backend: "b", Token: "k", PollInterval: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, mux4(t), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRemoteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewRemote(RemoteConfig{URL: url, Backend: "b", Token: "k"}, nil)
	_, err := r.Backends(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestRemoteBackends(t *testing.T) {
	svc := &fakeService{t: t, token: "k"}
	r := newRemote(t, svc, "k")

	list, err := r.Backends(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ibm_kyiv", list[0].Name)
	assert.Equal(t, 127, list[0].Qubits)
	assert.True(t, list[1].Simulator)
}

func TestRemoteValidatesBeforeSubmitting(t *testing.T) {
	svc := &fakeService{t: t, token: "k"}
	r := newRemote(t, svc, "k")

	_, err := r.Run(context.Background(), mux4(t), 0)
	assert.True(t, errors.Is(err, ErrInvalidShots))
	assert.Empty(t, svc.submitted.QASM)

	info := r.Info()
	assert.Equal(t, KindRemote, info.Kind)
	assert.False(t, info.Simulator)
}
