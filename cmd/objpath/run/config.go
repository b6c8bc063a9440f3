package run

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// config is the effective configuration for a command: values from the
// config file, overridden by flags and environment variables.
type config struct {
	Endpoint     string `yaml:"endpoint,omitempty"`
	Region       string `yaml:"region,omitempty"`
	PathStyle    bool   `yaml:"path_style,omitempty"`
	CopyAttempts int    `yaml:"copy_attempts,omitempty"`
	// Containers maps container names to gocloud bucket URLs
	// ("file:///data", "mem://", "azblob://container", ...)
	Containers map[string]string `yaml:"containers,omitempty"`
}

// loadConfig reads the config file, if name is not empty.
func loadConfig(name string) (*config, error) {
	cfg := &config{}
	if name == "" {
		return cfg, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// empty file
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config file %s: %w", name, err)
	}
	if cfg.CopyAttempts < 0 {
		return nil, fmt.Errorf("invalid copy_attempts in %s: %d", name, cfg.CopyAttempts)
	}
	for container, u := range cfg.Containers {
		if u == "" {
			return nil, fmt.Errorf("container %q has no URL", container)
		}
	}
	return cfg, nil
}

func (cfg *config) applyFlags(g *globals) {
	if g.Endpoint != "" {
		cfg.Endpoint = g.Endpoint
	}
	if g.Region != "" {
		cfg.Region = g.Region
	}
	if g.PathStyle {
		cfg.PathStyle = true
	}
	if g.CopyAttempts > 0 {
		cfg.CopyAttempts = g.CopyAttempts
	}
}

type configCmd struct{}

func (cmd *configCmd) Run(cfg *config, stdout io.Writer) error {
	if err := yaml.NewEncoder(stdout).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
