// Package config loads the otmux YAML configuration file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/backend"
)

const (
	defaultBackend      = "simulator"
	defaultShots        = 1024
	defaultTokenEnv     = "OTMUX_TOKEN"
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 10 * time.Minute
)

// Backend names accepted by Config.Backend.
const (
	BackendSimulator = "simulator"
	BackendNoisy     = "noisy"
	BackendRemote    = "remote"
)

// ErrMissingToken is returned when a remote backend is requested but no API
// token can be found.
var ErrMissingToken = errors.New("config: no API token found")

type Config struct {
	Backend string `yaml:"backend"`
	Shots   int    `yaml:"shots"`
	// Seed makes noisy runs reproducible. 0 means unseeded.
	Seed  uint64 `yaml:"seed"`
	Debug bool   `yaml:"debug"`

	Noise  *backend.NoiseModel `yaml:"noise"`
	Remote RemoteConfig        `yaml:"remote"`
}

// RemoteConfig describes the REST job service. The token itself never lives
// in the file: it is read from TokenEnv or TokenFile.
type RemoteConfig struct {
	URL          string        `yaml:"url"`
	Backend      string        `yaml:"backend"`
	TokenEnv     string        `yaml:"tokenEnv"`
	TokenFile    string        `yaml:"tokenFile"`
	PollInterval time.Duration `yaml:"pollInterval"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxQubits    int           `yaml:"maxQubits"`
	// ForwardNoise sends the noise model with each job, for services that
	// simulate.
	ForwardNoise bool `yaml:"forwardNoise"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := (&Config{}).WithDefaults()
	return &cfg
}

// Load reads path and fills in defaults. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return &cfg, nil
}

// WithDefaults returns a copy of the Config with any missing fields set to
// their default values.
func (c Config) WithDefaults() Config {
	cpy := c
	if cpy.Backend == "" {
		cpy.Backend = defaultBackend
	}
	if cpy.Shots == 0 {
		cpy.Shots = defaultShots
	}
	if cpy.Noise == nil {
		n := backend.DefaultNoise()
		cpy.Noise = &n
	} else {
		n := *cpy.Noise
		cpy.Noise = &n
	}
	cpy.Remote = cpy.Remote.WithDefaults()
	return cpy
}

// WithDefaults returns a copy of the RemoteConfig with any missing fields set
// to their default values.
func (r RemoteConfig) WithDefaults() RemoteConfig {
	cpy := r
	if cpy.TokenEnv == "" {
		cpy.TokenEnv = defaultTokenEnv
	}
	if cpy.PollInterval == 0 {
		cpy.PollInterval = defaultPollInterval
	}
	if cpy.Timeout == 0 {
		cpy.Timeout = defaultTimeout
	}
	return cpy
}

// Validate checks value ranges and backend-specific requirements.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSimulator, BackendNoisy:
	case BackendRemote:
		if err := c.Remote.Validate(); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown backend %q (want simulator, noisy or remote)", c.Backend)
	}
	if c.Shots <= 0 {
		return errors.Errorf("shots must be positive, got %d", c.Shots)
	}
	if c.Noise != nil {
		if err := c.Noise.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the service can be addressed.
func (r *RemoteConfig) Validate() error {
	if r.URL == "" {
		return errors.New("remote.url is required for the remote backend")
	}
	if !strings.HasPrefix(r.URL, "http://") && !strings.HasPrefix(r.URL, "https://") {
		return errors.Errorf("remote.url %q must be http or https", r.URL)
	}
	if r.Backend == "" {
		return errors.New("remote.backend is required for the remote backend")
	}
	if r.PollInterval < 0 || r.Timeout < 0 {
		return errors.New("remote durations must not be negative")
	}
	return nil
}

// Token resolves the API token from the environment, then from TokenFile.
func (r *RemoteConfig) Token() (string, error) {
	env := r.TokenEnv
	if env == "" {
		env = defaultTokenEnv
	}
	if tok := strings.TrimSpace(os.Getenv(env)); tok != "" {
		return tok, nil
	}
	if r.TokenFile != "" {
		data, err := os.ReadFile(r.TokenFile)
		if err != nil {
			return "", errors.Wrap(err, "read token file")
		}
		if tok := strings.TrimSpace(string(data)); tok != "" {
			return tok, nil
		}
	}
	return "", errors.Wrapf(ErrMissingToken, "set %s or remote.tokenFile", env)
}

// ExecutorConfig resolves the token and converts r for backend.NewRemote.
func (r *RemoteConfig) ExecutorConfig(noise *backend.NoiseModel) (backend.RemoteConfig, error) {
	token, err := r.Token()
	if err != nil {
		return backend.RemoteConfig{}, err
	}
	return backend.RemoteConfig{
		URL:          r.URL,
		Backend:      r.Backend,
		Token:        token,
		PollInterval: r.PollInterval,
		MaxLines:     r.MaxQubits,
		Noise:        noise,
	}, nil
}
