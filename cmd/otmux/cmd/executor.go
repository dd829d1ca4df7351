package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/backend"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/config"
)

// createExecutor maps a backend name onto an executor. An empty name falls
// back to the configured backend.
func createExecutor(name string, seed uint64) (backend.Executor, error) {
	if name == "" {
		name = cfg.Backend
	}
	if seed == 0 {
		seed = cfg.Seed
	}

	switch name {
	case config.BackendSimulator, "sim", "ideal":
		if verbose {
			fmt.Println("Using noiseless logic simulator")
		}
		return backend.NewSimulator(), nil

	case config.BackendNoisy:
		opts := []backend.SimOption{backend.WithNoise(*cfg.Noise)}
		if seed != 0 {
			opts = append(opts, backend.WithSeed(seed))
		}
		if verbose {
			fmt.Printf("Using noisy simulator (%s)\n", cfg.Noise)
		}
		return backend.NewSimulator(opts...), nil

	case config.BackendRemote:
		if err := cfg.Remote.Validate(); err != nil {
			return nil, err
		}
		var noise *backend.NoiseModel
		if cfg.Remote.ForwardNoise {
			noise = cfg.Noise
		}
		rc, err := cfg.Remote.ExecutorConfig(noise)
		if err != nil {
			return nil, err
		}
		if verbose {
			fmt.Printf("Using remote backend %s at %s\n", rc.Backend, rc.URL)
		}
		return backend.NewRemote(rc, logger), nil

	default:
		return nil, fmt.Errorf("unknown backend %q (want simulator, noisy or remote)", name)
	}
}
