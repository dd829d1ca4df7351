package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/experiment"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/netlist"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/plot"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/qasm"
)

var execCmd = &cobra.Command{
	Use:   "exec <circuit-file>",
	Short: "Execute a circuit stored as OpenQASM or netlist",
	Long: `Load a circuit from an OpenQASM 2.0 (.qasm) or S-expression netlist (.sexp,
.net) file and execute it on a backend. Only x, cx, ccx and measure are
supported.

Examples:
  otmux build --preset mux8 --format qasm -o mux8.qasm
  otmux exec mux8.qasm --backend noisy --shots 2048`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	registerExecFlags(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	c, err := loadCircuit(args[0])
	if err != nil {
		return err
	}

	exec, err := createExecutor(backendName, seed)
	if err != nil {
		return fmt.Errorf("failed to create backend: %w", err)
	}
	ctx, cancel := runContext(cmd.Context(), exec)
	defer cancel()

	n := shotCount()
	fmt.Printf("Executing %s (%d lines, %d gates) on %s (%d shots)...\n",
		c.Name, c.Lines, len(c.Gates), exec.Info().Name, n)

	if verbose {
		fmt.Println()
		if err := c.Draw(os.Stdout); err != nil {
			return err
		}
	}

	// The expected value of an arbitrary circuit is its noiseless output.
	expected, err := experiment.IdealOutput(c)
	if err != nil {
		return err
	}

	rep, err := experiment.NewRunner(exec, logger).RunCircuit(ctx, c, n, expected)
	if err != nil {
		return err
	}
	printReport(rep)

	h := plot.NewHistogram(c.Name, []plot.Series{{Name: seriesName(exec), Counts: rep.Counts}}, nil)
	fmt.Println()
	return plot.WriteText(os.Stdout, h)
}

func loadCircuit(path string) (*circuit.Circuit, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".qasm":
		p, err := qasm.NewParser()
		if err != nil {
			return nil, err
		}
		return p.ParseFile(path)
	case ".sexp", ".net", ".netlist":
		return netlist.ReadFile(path)
	default:
		return nil, fmt.Errorf("unsupported circuit file %q (want .qasm, .sexp or .net)", path)
	}
}
