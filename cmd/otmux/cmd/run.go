package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	appui "github.com/OpenTraceLab/OpenTraceMux/internal/ui"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/backend"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/config"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/experiment"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/plot"
)

var (
	runSel      selection
	backendName string
	shots       int
	seed        uint64
	compare     bool
	showPlot    bool
	timeout     time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a multiplexer and execute it on a backend",
	Long: `Build a multiplexer circuit, execute it and report how often the selected
data value was measured on the output.

Backends:
  simulator  noiseless logic simulator (default)
  noisy      simulator with gate, relaxation and readout errors
  remote     REST job service configured in the --config file

Examples:
  otmux run --preset mux4
  otmux run --size 8 --data 10101010 --select 5 --shots 4096
  otmux run --preset mux16 --backend noisy --seed 42
  otmux run --preset mux4 --compare --plot
  otmux run --preset mux8 --backend remote --config otmux.yaml --timeout 5m`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runSel.register(runCmd)
	registerExecFlags(runCmd)
	runCmd.Flags().BoolVar(&compare, "compare", false,
		"also run on a reference simulator (noisy, or ideal for noisy runs) and show both histograms")
	runCmd.Flags().BoolVar(&showPlot, "plot", false,
		"open a window with the histogram")
}

// registerExecFlags adds the flags shared by run and exec.
func registerExecFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&backendName, "backend", "b", "",
		"backend (simulator, noisy, remote); default from config")
	cmd.Flags().IntVar(&shots, "shots", 0,
		"number of shots; default from config")
	cmd.Flags().Uint64Var(&seed, "seed", 0,
		"seed for noisy sampling; default from config")
	cmd.Flags().DurationVar(&timeout, "timeout", 0,
		"abort after this long; remote runs default to the configured timeout")
}

func runRun(cmd *cobra.Command, args []string) error {
	req, err := runSel.request(shotCount())
	if err != nil {
		return err
	}

	exec, err := createExecutor(backendName, seed)
	if err != nil {
		return fmt.Errorf("failed to create backend: %w", err)
	}

	ctx, cancel := runContext(cmd.Context(), exec)
	defer cancel()

	runner := experiment.NewRunner(exec, logger)
	fmt.Printf("Running %s on %s (%d shots)...\n", runName(req), exec.Info().Name, req.Shots)

	rep, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}
	printReport(rep)

	series := []plot.Series{{Name: seriesName(exec), Counts: rep.Counts}}
	if compare {
		ref, err := compareExecutor(exec)
		if err != nil {
			return err
		}
		refRep, err := experiment.NewRunner(ref, logger).Run(ctx, req)
		if err != nil {
			return fmt.Errorf("comparison run failed: %w", err)
		}
		fmt.Printf("Comparison on %s: success %.1f%%\n", ref.Info().Name, refRep.Success*100)
		refSeries := plot.Series{Name: seriesName(ref), Counts: refRep.Counts}
		if ref.Info().Kind == backend.KindSimulator {
			series = append([]plot.Series{refSeries}, series...)
		} else {
			series = append(series, refSeries)
		}
	}

	title := fmt.Sprintf("%s select=%d", rep.Circuit.Name, req.Select)
	h := plot.NewHistogram(title, series, &plot.Options{BarLabels: true})
	fmt.Println()
	if err := plot.WriteText(os.Stdout, h); err != nil {
		return err
	}

	if showPlot {
		return appui.ShowHistogram(h)
	}
	return nil
}

func shotCount() int {
	if shots != 0 {
		return shots
	}
	return cfg.Shots
}

// runContext applies --timeout, or the configured remote timeout for remote
// executors.
func runContext(parent context.Context, exec backend.Executor) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	d := timeout
	if d == 0 && exec.Info().Kind == backend.KindRemote {
		d = cfg.Remote.Timeout
	}
	if d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}

// compareExecutor picks the reference backend for --compare: the noisy
// simulator for ideal and remote runs, the noiseless one for noisy runs.
func compareExecutor(main backend.Executor) (backend.Executor, error) {
	if main.Info().Kind == backend.KindNoisy {
		return createExecutor(config.BackendSimulator, 0)
	}
	return createExecutor(config.BackendNoisy, seed)
}

func seriesName(exec backend.Executor) string {
	switch exec.Info().Kind {
	case backend.KindSimulator:
		return "ideal"
	case backend.KindNoisy:
		return "noisy"
	default:
		return exec.Info().Name
	}
}

func runName(req experiment.Request) string {
	return fmt.Sprintf("%d:1 multiplexer", req.DataCount)
}

func printReport(rep *experiment.Report) {
	fmt.Printf("\nCircuit:   %s (%d lines, %d gates)\n", rep.Circuit.Name, rep.Circuit.Lines, len(rep.Circuit.Gates))
	fmt.Printf("Backend:   %s\n", rep.Backend.Name)
	fmt.Printf("Expected:  %s\n", rep.ExpectedKey)
	fmt.Printf("Success:   %.1f%% (%d/%d)\n", rep.Success*100, rep.Counts[rep.ExpectedKey], rep.Counts.Total())
	top, n := rep.Counts.MostFrequent()
	fmt.Printf("Most frequent: %s (%d)\n", top, n)
	if verbose {
		fmt.Printf("Run ID:    %s\n", rep.ID)
		fmt.Printf("Elapsed:   %s\n", rep.Duration)
	}
}
