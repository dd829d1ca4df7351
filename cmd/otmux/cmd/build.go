package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/mux"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/netlist"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/qasm"
)

var (
	buildSel    selection
	buildFormat string
	buildOutput string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a multiplexer circuit and print or save it",
	Long: `Build a 2^k:1 multiplexer circuit and write it in one of several formats:

  text     summary of the layout, gate counts and expected output
  draw     ASCII circuit diagram
  qasm     OpenQASM 2.0 program
  netlist  S-expression netlist

Examples:
  otmux build --size 4 --data 1,0,1,0 --select 2
  otmux build --preset mux8 --format draw
  otmux build --preset mux16 --uncompute --format qasm --output mux16.qasm`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildSel.register(buildCmd)
	buildCmd.Flags().StringVarP(&buildFormat, "format", "f", "text",
		"output format (text, draw, qasm, netlist)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "",
		"write to file instead of stdout")
}

func runBuild(cmd *cobra.Command, args []string) error {
	switch buildFormat {
	case "text", "draw", "qasm", "netlist", "sexp":
	default:
		return fmt.Errorf("unknown format %q (want text, draw, qasm or netlist)", buildFormat)
	}

	req, err := buildSel.request(0)
	if err != nil {
		return err
	}
	c, err := mux.Build(req.DataCount, req.Data, req.Select, req.Options...)
	if err != nil {
		return err
	}
	expected, _ := mux.Expected(req.Data, req.Select)

	var out io.Writer = os.Stdout
	if buildOutput != "" {
		f, err := os.Create(buildOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch buildFormat {
	case "text":
		printSummary(out, c, req.Data, req.Select, expected)
	case "draw":
		err = c.Draw(out)
	case "qasm":
		_, err = io.WriteString(out, qasm.Format(c))
	case "netlist", "sexp":
		err = netlist.Write(out, c)
	default:
		return fmt.Errorf("unknown format %q (want text, draw, qasm or netlist)", buildFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to write circuit: %w", err)
	}

	if buildOutput != "" {
		fmt.Printf("Wrote %s (%s) to %s\n", c.Name, buildFormat, buildOutput)
	}
	return nil
}

func printSummary(w io.Writer, c *circuit.Circuit, data []bool, sel int, expected bool) {
	counts := c.Counts()
	fmt.Fprintf(w, "Circuit:   %s\n", c.Name)
	fmt.Fprintf(w, "Lines:     %d (%d data, %d select, 1 output)\n", c.Lines, len(data), c.Lines-len(data)-1)
	fmt.Fprintf(w, "Data:      %s (D0 first)\n", mux.FormatBits(data))
	fmt.Fprintf(w, "Select:    %d\n", sel)
	fmt.Fprintf(w, "Gates:     %d (x=%d cx=%d ccx=%d)\n", len(c.Gates),
		counts[circuit.KindX], counts[circuit.KindCX], counts[circuit.KindCCX])
	fmt.Fprintf(w, "Depth:     %d\n", c.Depth())
	fmt.Fprintf(w, "Output:    %s -> c0\n", c.Label(c.Output))
	fmt.Fprintf(w, "Expected:  %d\n", boolBit(expected))
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
