package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/backend"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/config"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List available backends and check remote credentials",
	Long: `List the local executors and, when a remote service is configured, query it
for the backends the API token can access. A failing query means the URL
or the token is wrong.

The token is read from the environment variable named by remote.tokenEnv
(default OTMUX_TOKEN) or from remote.tokenFile.

Examples:
  otmux backends
  OTMUX_TOKEN=... otmux backends --config otmux.yaml`,
	Args: cobra.NoArgs,
	RunE: runBackends,
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}

func runBackends(cmd *cobra.Command, args []string) error {
	fmt.Println("Local backends:")
	for _, name := range []string{config.BackendSimulator, config.BackendNoisy} {
		exec, err := createExecutor(name, 0)
		if err != nil {
			return err
		}
		info := exec.Info()
		fmt.Printf("  %-10s %s (%s)\n", name, info.Name, info.Vendor)
		if verbose && info.Notes != "" {
			fmt.Printf("             %s\n", info.Notes)
		}
	}

	if cfg.Remote.URL == "" {
		fmt.Println("\nNo remote service configured (set remote.url in --config).")
		return nil
	}

	exec, err := createExecutor(config.BackendRemote, 0)
	if err != nil {
		return fmt.Errorf("remote backend: %w", err)
	}
	remote := exec.(*backend.Remote)

	ctx, cancel := runContext(cmd.Context(), remote)
	defer cancel()

	list, err := remote.Backends(ctx)
	if err != nil {
		logger.Error("credential check failed", zap.Error(err))
		return fmt.Errorf("credential check failed: %w", err)
	}

	fmt.Printf("\nRemote backends at %s (token accepted):\n", cfg.Remote.URL)
	for _, b := range list {
		kind := "hardware"
		if b.Simulator {
			kind = "simulator"
		}
		marker := " "
		if b.Name == cfg.Remote.Backend {
			marker = "*"
		}
		fmt.Printf(" %s %-20s %4d qubits  %-9s  %s\n", marker, b.Name, b.Qubits, kind, b.Status)
	}
	return nil
}
