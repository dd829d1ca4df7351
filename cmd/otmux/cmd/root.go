package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Populated by loadSettings before every command.
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "otmux",
	Short: "OpenTraceMux - reversible multiplexer circuits",
	Long: `OpenTraceMux (otmux) builds 2^k:1 multiplexer circuits out of X, CX and
CCX gates and runs them on a local simulator or a remote job service.

Examples:
  otmux presets                                  # List demonstration presets
  otmux build --size 4 --data 1010 --select 2    # Print the circuit summary
  otmux build --preset mux8 --format qasm        # Emit OpenQASM 2.0
  otmux run --preset mux16 --backend noisy       # Run with noise
  otmux run --preset mux4 --compare --plot       # Ideal vs noisy histogram
  otmux verify --size 2,4,8                      # Exhaustive truth-table check
  otmux backends --config otmux.yaml             # Check remote credentials`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
}

func loadSettings(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err = cfg.CreateLogger(verbose)
	if err != nil {
		return err
	}
	return nil
}
