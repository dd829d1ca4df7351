package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/mux"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the demonstration presets",
	Long: `List the built-in multiplexer configurations usable with --preset.

Examples:
  otmux presets
  otmux run --preset mux8`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%-6s  %-16s  %-6s  %-8s  %s\n", "NAME", "DATA (D0 first)", "SELECT", "EXPECTED", "DESCRIPTION")
		for _, p := range mux.Presets() {
			fmt.Printf("%-6s  %-16s  %-6d  %-8d  %s\n",
				p.Name, mux.FormatBits(p.Data), p.Select, boolBit(p.Expected()), p.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
