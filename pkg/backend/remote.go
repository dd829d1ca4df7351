package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/qasm"
)

// Job states reported by the remote service.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

const defaultPollInterval = 2 * time.Second

// RemoteConfig holds the connection settings of a job service. Token is
// resolved by the caller from the environment or a secret file.
type RemoteConfig struct {
	URL          string
	Backend      string
	Token        string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	MaxLines     int
	Noise        *NoiseModel // forwarded to services that simulate
	Client       *http.Client
}

// BackendInfo is one entry of the service's backend listing.
type BackendInfo struct {
	Name      string `json:"name"`
	Qubits    int    `json:"qubits"`
	Simulator bool   `json:"simulator"`
	Status    string `json:"status"`
}

// JobStatus is the body of GET /jobs/{id}.
type JobStatus struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type submitRequest struct {
	Backend string      `json:"backend"`
	Shots   int         `json:"shots"`
	QASM    string      `json:"qasm"`
	Noise   *NoiseModel `json:"noise,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type resultsResponse struct {
	Counts Counts `json:"counts"`
}

// Remote submits circuits as OpenQASM to a REST job service and polls for
// the outcome.
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
	logger *zap.Logger
}

// NewRemote creates a remote executor. A nil logger disables logging.
func NewRemote(cfg RemoteConfig, logger *zap.Logger) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	client := cfg.Client
	if client == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Remote{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("backend", cfg.Backend)),
	}
}

func (r *Remote) Info() Info {
	return Info{
		Name:     r.cfg.Backend,
		Vendor:   r.cfg.URL,
		Kind:     KindRemote,
		MaxLines: r.cfg.MaxLines,
	}
}

// Run submits c, waits for the job to reach a terminal state and fetches its
// counts. Cancelling ctx abandons the wait.
func (r *Remote) Run(ctx context.Context, c *circuit.Circuit, shots int) (Counts, error) {
	if err := ValidateRun(r.Info(), c, shots); err != nil {
		return nil, err
	}

	id, err := r.Submit(ctx, c, shots)
	if err != nil {
		return nil, err
	}
	log := r.logger.With(zap.String("job", id))
	log.Info("job submitted", zap.String("circuit", c.Name), zap.Int("shots", shots))

	if err := r.wait(ctx, id, log); err != nil {
		return nil, err
	}

	counts, err := r.Results(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info("job results received", zap.Int("outcomes", len(counts)), zap.Int("shots", counts.Total()))
	return counts, nil
}

// Submit posts c to /jobs and returns the job id.
func (r *Remote) Submit(ctx context.Context, c *circuit.Circuit, shots int) (string, error) {
	req := submitRequest{
		Backend: r.cfg.Backend,
		Shots:   shots,
		QASM:    qasm.Format(c),
		Noise:   r.cfg.Noise,
	}
	var resp submitResponse
	if err := r.do(ctx, "submit", http.MethodPost, "/jobs", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", r.fail("submit", 0, errors.New("service returned an empty job id"))
	}
	return resp.ID, nil
}

// Status fetches the state of a job.
func (r *Remote) Status(ctx context.Context, id string) (*JobStatus, error) {
	var st JobStatus
	if err := r.do(ctx, "status", http.MethodGet, "/jobs/"+id, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Results fetches the counts of a completed job.
func (r *Remote) Results(ctx context.Context, id string) (Counts, error) {
	var res resultsResponse
	if err := r.do(ctx, "results", http.MethodGet, "/jobs/"+id+"/results", nil, &res); err != nil {
		return nil, err
	}
	if res.Counts == nil {
		return nil, r.fail("results", 0, errors.Wrap(ErrJobFailed, "no counts in result"))
	}
	return res.Counts, nil
}

// Backends lists the backends the token can access. It doubles as a
// credential check.
func (r *Remote) Backends(ctx context.Context) ([]BackendInfo, error) {
	var list []BackendInfo
	if err := r.do(ctx, "backends", http.MethodGet, "/backends", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Remote) wait(ctx context.Context, id string, log *zap.Logger) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	last := ""
	for {
		st, err := r.Status(ctx, id)
		if err != nil {
			return err
		}
		if st.Status != last {
			log.Debug("job status", zap.String("status", st.Status))
			last = st.Status
		}

		switch st.Status {
		case JobCompleted:
			return nil
		case JobFailed, JobCancelled:
			msg := st.Status
			if st.Message != "" {
				msg += ": " + st.Message
			}
			return r.fail("wait", 0, errors.Wrap(ErrJobFailed, msg))
		case JobQueued, JobRunning:
		default:
			return r.fail("wait", 0, fmt.Errorf("unknown job status %q", st.Status))
		}

		select {
		case <-ctx.Done():
			return r.fail("wait", 0, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Remote) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return r.fail(op, 0, errors.Wrap(err, "encode request"))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.cfg.URL+path, body)
	if err != nil {
		return r.fail(op, 0, errors.Wrap(err, "build request"))
	}
	reqID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.logger.Debug("request", zap.String("op", op), zap.String("method", method),
		zap.String("path", path), zap.String("request_id", reqID))

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return r.fail(op, 0, ctx.Err())
		}
		return r.fail(op, 0, errors.Wrap(ErrUnavailable, err.Error()))
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		r.logger.Warn("request rejected", zap.String("op", op), zap.Int("status", resp.StatusCode),
			zap.String("request_id", reqID), zap.Error(err))
		return r.fail(op, resp.StatusCode, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return r.fail(op, resp.StatusCode, errors.Wrap(err, "decode response"))
	}
	return nil
}

// statusError maps HTTP failures onto the package sentinels.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(msg))
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrap(ErrUnauthorized, detail)
	case resp.StatusCode == http.StatusNotImplemented:
		return errors.Wrap(ErrNotImplemented, detail)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return errors.Wrap(ErrUnavailable, detail)
	default:
		return errors.New(detail)
	}
}

func (r *Remote) fail(op string, status int, err error) error {
	return &ExecutionError{Backend: r.cfg.Backend, Op: op, Status: status, Err: err}
}
