// Package sim provides an in-process bench of positioners, detectors and
// triggers plus an execution engine that steps trajectories against them.
// It exists for demos and tests; real hardware lives behind the same ports
// elsewhere.
package sim

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/photonworks/ScanFlow/internal/ports"
)

// Config describes the simulated bench.
type Config struct {
	Positioners []PositionerConfig
	Detectors   []DetectorConfig
	Triggers    []string
}

// PositionerConfig describes one simulated axis.
type PositionerConfig struct {
	Name   string
	Start  float64
	Travel time.Duration
}

// DetectorConfig describes one simulated detector.
type DetectorConfig struct {
	Name string
}

func (c *Config) ApplyDefaults() {
	for i := range c.Positioners {
		if c.Positioners[i].Travel <= 0 {
			c.Positioners[i].Travel = 5 * time.Millisecond
		}
	}
}

func (c *Config) Validate() error {
	if len(c.Positioners) == 0 {
		return errors.New("at least one positioner must be configured")
	}
	seen := make(map[string]bool, len(c.Positioners))
	for _, p := range c.Positioners {
		if p.Name == "" {
			return errors.New("positioner name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate positioner %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Bench holds the instruments built from a Config.
type Bench struct {
	Positioners []*Positioner
	Detectors   []*Detector
	Triggers    []*Trigger

	byName map[string]*Positioner
}

// NewBench builds the simulated instruments.
func NewBench(cfg Config) (*Bench, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bench{byName: make(map[string]*Positioner, len(cfg.Positioners))}
	for _, pc := range cfg.Positioners {
		p := NewPositioner(pc.Name, pc.Start, pc.Travel)
		b.Positioners = append(b.Positioners, p)
		b.byName[pc.Name] = p
	}
	for _, dc := range cfg.Detectors {
		b.Detectors = append(b.Detectors, NewDetector(dc.Name, nil))
	}
	for _, name := range cfg.Triggers {
		b.Triggers = append(b.Triggers, NewTrigger(name))
	}
	return b, nil
}

// Positioner looks up an axis by name.
func (b *Bench) Positioner(name string) (*Positioner, bool) {
	p, ok := b.byName[name]
	return p, ok
}

// PositionerPorts returns the bench axes as scan-core handles.
func (b *Bench) PositionerPorts() []ports.Positioner {
	out := make([]ports.Positioner, len(b.Positioners))
	for i, p := range b.Positioners {
		out[i] = p
	}
	return out
}

// DetectorPorts returns the bench detectors as scan-core handles.
func (b *Bench) DetectorPorts() []ports.Detector {
	out := make([]ports.Detector, len(b.Detectors))
	for i, d := range b.Detectors {
		out[i] = d
	}
	return out
}

// TriggerPorts returns the bench triggers as scan-core handles.
func (b *Bench) TriggerPorts() []ports.Trigger {
	out := make([]ports.Trigger, len(b.Triggers))
	for i, tr := range b.Triggers {
		out[i] = tr
	}
	return out
}

// Positioner is a simulated axis. Moves take a fixed travel time during
// which Moving reports true; Position interpolates linearly in between.
type Positioner struct {
	mu     sync.Mutex
	name   string
	travel time.Duration

	from     float64
	target   float64
	started  time.Time
	deadline time.Time

	trajectory []float64
}

func NewPositioner(name string, start float64, travel time.Duration) *Positioner {
	return &Positioner{
		name:   name,
		travel: travel,
		from:   start,
		target: start,
	}
}

func (p *Positioner) Name() string { return p.name }

func (p *Positioner) Position() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked(time.Now()), nil
}

func (p *Positioner) Moving() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Now().Before(p.deadline), nil
}

func (p *Positioner) Move(target float64, wait bool) error {
	p.mu.Lock()
	now := time.Now()
	p.from = p.positionLocked(now)
	p.target = target
	p.started = now
	p.deadline = now.Add(p.travel)
	p.mu.Unlock()

	if wait {
		time.Sleep(p.travel)
	}
	return nil
}

func (p *Positioner) SetTrajectory(path []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trajectory = append([]float64(nil), path...)
	return nil
}

// Trajectory returns the last path handed to the axis.
func (p *Positioner) Trajectory() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.trajectory...)
}

func (p *Positioner) positionLocked(now time.Time) float64 {
	if !now.Before(p.deadline) {
		return p.target
	}
	frac := float64(now.Sub(p.started)) / float64(p.deadline.Sub(p.started))
	return p.from + (p.target-p.from)*frac
}

var _ ports.Positioner = (*Positioner)(nil)

// Detector is a simulated instrument. Its reading is a function of the
// current positioner coordinates; the default is a smooth peak centred at
// the origin so scans produce something worth plotting.
type Detector struct {
	name string
	read func(coords []float64) float64
}

func NewDetector(name string, read func(coords []float64) float64) *Detector {
	if read == nil {
		read = func(coords []float64) float64 {
			var sq float64
			for _, c := range coords {
				sq += c * c
			}
			return math.Exp(-sq / 10)
		}
	}
	return &Detector{name: name, read: read}
}

func (d *Detector) Name() string { return d.name }

// Read samples the detector at the given coordinates.
func (d *Detector) Read(coords []float64) float64 { return d.read(coords) }

var _ ports.Detector = (*Detector)(nil)

// Trigger counts how many times it has fired.
type Trigger struct {
	mu    sync.Mutex
	name  string
	fired int
}

func NewTrigger(name string) *Trigger { return &Trigger{name: name} }

func (t *Trigger) Name() string { return t.name }

func (t *Trigger) Fire() {
	t.mu.Lock()
	t.fired++
	t.mu.Unlock()
}

// Fired reports how many acquisitions the trigger has seen.
func (t *Trigger) Fired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

var _ ports.Trigger = (*Trigger)(nil)
