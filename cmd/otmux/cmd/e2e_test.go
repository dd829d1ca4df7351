package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resetFlags restores every bound flag variable so tests do not leak into
// each other through the shared command tree.
func resetFlags() {
	verbose = false
	configPath = ""
	buildSel.reset()
	buildFormat = "text"
	buildOutput = ""
	runSel.reset()
	backendName = ""
	shots = 0
	seed = 0
	compare = false
	showPlot = false
	timeout = 0
	verifySizes = nil
	verifySeed = 1
	verifyUncompute = false
}

// execute runs the root command with args and returns captured stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background so a full pipe buffer cannot block the command.
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	resetFlags()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done

	return buf.String(), err
}

func TestCommandsE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name: "presets",
			args: []string{"presets"},
			wantContain: []string{
				"NAME", "mux2", "mux4", "mux8",
				"mux16   1001000100001000  10",
			},
		},
		{
			name: "build summary",
			args: []string{"build", "--size", "4", "--data", "1,0,1,0", "--select", "2"},
			wantContain: []string{
				"Circuit:   mux4",
				"Lines:     7 (4 data, 2 select, 1 output)",
				"Data:      1010",
				"Expected:  1",
				"Output:    OUT -> c0",
			},
		},
		{
			name:        "build qasm",
			args:        []string{"build", "--preset", "mux4", "--format", "qasm"},
			wantContain: []string{"OPENQASM 2.0;", "qreg q[7];", "ccx q[4],q[0],q[1];", "measure q[6] -> c[0];"},
		},
		{
			name:        "build draw",
			args:        []string{"build", "--preset", "mux2", "--format", "draw"},
			wantContain: []string{"D0", "S0", "OUT", "M0"},
		},
		{
			name:        "build netlist",
			args:        []string{"build", "--preset", "mux8", "--format", "netlist"},
			wantContain: []string{`(circuit "mux8"`, "(lines 12)", "(measure 11 0)"},
		},
		{
			name:    "build bad select",
			args:    []string{"build", "--size", "4", "--select", "4"},
			wantErr: true,
		},
		{
			name:    "build not power of two",
			args:    []string{"build", "--size", "6"},
			wantErr: true,
		},
		{
			name:    "build data length mismatch",
			args:    []string{"build", "--size", "4", "--data", "101"},
			wantErr: true,
		},
		{
			name:    "build unknown format",
			args:    []string{"build", "--format", "svg"},
			wantErr: true,
		},
		{
			name: "run preset ideal",
			args: []string{"run", "--preset", "mux8", "--shots", "100"},
			wantContain: []string{
				"Running 8:1 multiplexer on Logic Simulator (100 shots)",
				"Expected:  0",
				"Success:   100.0% (100/100)",
				"mux8 select=5",
			},
		},
		{
			name:        "run custom",
			args:        []string{"run", "--size", "2", "--data", "01", "--select", "1", "--shots", "10"},
			wantContain: []string{"Expected:  1", "Success:   100.0% (10/10)"},
		},
		{
			name: "run compare",
			args: []string{"run", "--preset", "mux4", "--compare", "--shots", "500", "--seed", "3"},
			wantContain: []string{
				"Comparison on Noisy Logic Simulator",
				"1  ideal",
				"1  noisy",
			},
		},
		{
			name:        "run noisy seeded",
			args:        []string{"run", "--preset", "mux16", "--backend", "noisy", "--shots", "200", "--seed", "42"},
			wantContain: []string{"Noisy Logic Simulator", "Expected:  0"},
		},
		{
			name:    "run unknown backend",
			args:    []string{"run", "--preset", "mux2", "--backend", "qpu"},
			wantErr: true,
		},
		{
			name:    "run unknown preset",
			args:    []string{"run", "--preset", "mux3"},
			wantErr: true,
		},
		{
			name:        "verify",
			args:        []string{"verify", "--size", "2,4,8"},
			wantContain: []string{"2:1", "8:1", "2048 cases", "exhaustive", "All multiplexers route the selected input."},
		},
		{
			name:        "verify sampled uncompute",
			args:        []string{"verify", "--size", "16", "--uncompute"},
			wantContain: []string{"16:1", "sampled", "OK"},
		},
		{
			name:    "verify bad size",
			args:    []string{"verify", "--size", "3"},
			wantErr: true,
		},
		{
			name:        "backends local",
			args:        []string{"backends"},
			wantContain: []string{"simulator", "Noisy Logic Simulator", "No remote service configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args...)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none\nOutput: %s", output)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestBuildThenExec(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"qasm", "netlist"} {
		ext := map[string]string{"qasm": ".qasm", "netlist": ".sexp"}[format]
		path := filepath.Join(dir, "mux4"+ext)

		out, err := execute(t, "build", "--preset", "mux4", "--uncompute", "--format", format, "--output", path)
		if err != nil {
			t.Fatalf("build %s: %v", format, err)
		}
		if !strings.Contains(out, "Wrote mux4 ("+format+") to "+path) {
			t.Fatalf("build %s output: %s", format, out)
		}

		out, err = execute(t, "exec", path, "--shots", "64")
		if err != nil {
			t.Fatalf("exec %s: %v\n%s", format, err, out)
		}
		for _, want := range []string{"Expected:  1", "Success:   100.0% (64/64)"} {
			if !strings.Contains(out, want) {
				t.Errorf("exec %s output missing %q\n%s", format, want, out)
			}
		}
	}

	if _, err := execute(t, "exec", filepath.Join(dir, "circuit.txt")); err == nil {
		t.Errorf("expected error for unsupported extension")
	}
}

// fakeJobService accepts every job and completes it immediately with the
// counts of an ideal 4:1 run.
func fakeJobService(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/backends":
			fmt.Fprint(w, `[{"name":"fake_qpu","qubits":27,"status":"online"},{"name":"fake_sim","qubits":32,"simulator":true,"status":"online"}]`)
		case "/jobs":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if !strings.Contains(fmt.Sprint(body["qasm"]), "OPENQASM 2.0;") {
				http.Error(w, "bad program", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"id":"j1"}`)
		case "/jobs/j1":
			fmt.Fprint(w, `{"id":"j1","status":"completed"}`)
		case "/jobs/j1/results":
			fmt.Fprint(w, `{"counts":{"1":32}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeRemoteConfig(t *testing.T, url string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "otmux.yaml")
	cfgText := fmt.Sprintf("remote:\n  url: %s\n  backend: fake_qpu\n  tokenEnv: OTMUX_E2E_TOKEN\n  pollInterval: 1ms\n", url)
	if err := os.WriteFile(path, []byte(cfgText), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRemoteE2E(t *testing.T) {
	srv := fakeJobService(t, "e2e-token")
	path := writeRemoteConfig(t, srv.URL)

	t.Run("backends with valid token", func(t *testing.T) {
		t.Setenv("OTMUX_E2E_TOKEN", "e2e-token")
		out, err := execute(t, "backends", "--config", path)
		if err != nil {
			t.Fatalf("backends: %v\n%s", err, out)
		}
		for _, want := range []string{"token accepted", "* fake_qpu", "fake_sim", "simulator"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q\n%s", want, out)
			}
		}
	})

	t.Run("run on remote", func(t *testing.T) {
		t.Setenv("OTMUX_E2E_TOKEN", "e2e-token")
		out, err := execute(t, "run", "--config", path, "--backend", "remote", "--preset", "mux4", "--shots", "32")
		if err != nil {
			t.Fatalf("run: %v\n%s", err, out)
		}
		for _, want := range []string{"on fake_qpu", "Success:   100.0% (32/32)"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q\n%s", want, out)
			}
		}
	})

	t.Run("remote compared with noisy simulator", func(t *testing.T) {
		t.Setenv("OTMUX_E2E_TOKEN", "e2e-token")
		out, err := execute(t, "run", "--config", path, "--backend", "remote", "--preset", "mux4",
			"--shots", "32", "--compare", "--seed", "7")
		if err != nil {
			t.Fatalf("run: %v\n%s", err, out)
		}
		for _, want := range []string{"Comparison on Noisy Logic Simulator", "1  fake_qpu", "1  noisy"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q\n%s", want, out)
			}
		}
		if strings.Contains(out, "ideal") {
			t.Errorf("remote comparison should not use the noiseless simulator\n%s", out)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		t.Setenv("OTMUX_E2E_TOKEN", "wrong")
		_, err := execute(t, "backends", "--config", path)
		if err == nil || !strings.Contains(err.Error(), "unauthorized") {
			t.Fatalf("expected unauthorized error, got %v", err)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		t.Setenv("OTMUX_E2E_TOKEN", "")
		_, err := execute(t, "run", "--config", path, "--backend", "remote", "--preset", "mux2")
		if err == nil || !strings.Contains(err.Error(), "no API token") {
			t.Fatalf("expected missing token error, got %v", err)
		}
	})
}
