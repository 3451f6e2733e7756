// Package config loads the YAML runtime configuration and converts it to
// the plain structs the rest of the system consumes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/photonworks/ScanFlow/internal/adapters/notify"
	"github.com/photonworks/ScanFlow/internal/adapters/sim"
	"github.com/photonworks/ScanFlow/internal/ports"
)

// Duration wraps time.Duration so YAML can carry human-readable values
// like "250ms" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Policy  PolicyConfig  `yaml:"policy"`
	Metrics MetricsConfig `yaml:"metrics"`
	Notify  NotifyConfig  `yaml:"notify"`
	Bench   BenchConfig   `yaml:"bench"`
}

type PolicyConfig struct {
	SettleTime      Duration `yaml:"settle_time"`
	PollInterval    Duration `yaml:"poll_interval"`
	TeardownTimeout Duration `yaml:"teardown_timeout"`
}

// Ports converts the YAML shape to the scan-core policy.
func (p PolicyConfig) Ports() ports.Policy {
	return ports.Policy{
		SettleTime:      p.SettleTime.Std(),
		PollInterval:    p.PollInterval.Std(),
		TeardownTimeout: p.TeardownTimeout.Std(),
	}
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type NotifyConfig struct {
	// Mode selects the announcement sink: "log", "http" or "none".
	Mode    string   `yaml:"mode"`
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// HTTP converts the YAML shape to the notifier adapter config.
func (n NotifyConfig) HTTP() notify.HTTPConfig {
	return notify.HTTPConfig{URL: n.URL, Timeout: n.Timeout.Std()}
}

type BenchConfig struct {
	Positioners []BenchPositioner `yaml:"positioners"`
	Detectors   []BenchDetector   `yaml:"detectors"`
	Triggers    []string          `yaml:"triggers"`
}

type BenchPositioner struct {
	Name   string   `yaml:"name"`
	Start  float64  `yaml:"start"`
	Travel Duration `yaml:"travel"`
}

type BenchDetector struct {
	Name string `yaml:"name"`
}

// Sim converts the YAML shape to the simulated bench config.
func (b BenchConfig) Sim() sim.Config {
	out := sim.Config{Triggers: b.Triggers}
	for _, p := range b.Positioners {
		out.Positioners = append(out.Positioners, sim.PositionerConfig{
			Name:   p.Name,
			Start:  p.Start,
			Travel: p.Travel.Std(),
		})
	}
	for _, d := range b.Detectors {
		out.Detectors = append(out.Detectors, sim.DetectorConfig{Name: d.Name})
	}
	return out
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Policy.PollInterval == 0 {
		c.Policy.PollInterval = Duration(100 * time.Millisecond)
	}
	if c.Policy.TeardownTimeout == 0 {
		c.Policy.TeardownTimeout = Duration(30 * time.Second)
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Notify.Mode == "" {
		c.Notify.Mode = "log"
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = Duration(5 * time.Second)
	}
}

func (c *Config) Validate() error {
	if c.Policy.SettleTime < 0 || c.Policy.PollInterval < 0 || c.Policy.TeardownTimeout < 0 {
		return fmt.Errorf("policy durations must not be negative")
	}
	switch c.Notify.Mode {
	case "log", "none":
	case "http":
		if c.Notify.URL == "" {
			return fmt.Errorf("notify.url is required for http mode")
		}
	default:
		return fmt.Errorf("notify.mode must be log, http or none, got %q", c.Notify.Mode)
	}
	if len(c.Bench.Positioners) > 0 {
		simCfg := c.Bench.Sim()
		simCfg.ApplyDefaults()
		if err := simCfg.Validate(); err != nil {
			return fmt.Errorf("bench config: %w", err)
		}
	}
	return nil
}
