package scan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/photonworks/ScanFlow/internal/ports"
)

// Differential returns the hook table for a relative scan: trajectory
// setpoints are offsets from each positioner's position at scan time, and
// teardown moves everything back to where it started.
func Differential(notifier ports.Notifier) Hooks {
	d := &differential{}
	return Hooks{
		PreScan:  d.anchor(announce(notifier)),
		PostScan: d.restore,
	}
}

type differential struct {
	startPositions []float64
	restorable     []ports.Positioner
}

// anchor captures the current position of every positioner and shifts its
// relative trajectory by that amount, turning the offset grid into absolute
// coordinates. The normal pre-scan behavior runs afterwards.
func (d *differential) anchor(next Hook) Hook {
	return func(s *Scan) error {
		positioners := s.Positioners()
		trajectories := s.Trajectories()

		d.startPositions = make([]float64, len(positioners))
		for i, p := range positioners {
			pos, err := p.Position()
			if err != nil {
				return fmt.Errorf("read position of %s: %w", p.Name(), err)
			}
			d.startPositions[i] = pos
			trajectories[i].Shift(pos)
		}

		if next != nil {
			return next(s)
		}
		return nil
	}
}

// restore commands every positioner back to its captured start position
// and waits until none report motion. A move failure is surfaced as a
// teardown failure but does not stop the remaining positioners from being
// sent home.
func (d *differential) restore(s *Scan) error {
	positioners := s.Positioners()
	if len(d.startPositions) != len(positioners) {
		return fmt.Errorf("captured %d start positions for %d positioners",
			len(d.startPositions), len(positioners))
	}

	s.obs.LogInfo("scan_restore_start",
		ports.Field{Key: "positioners", Value: len(positioners)})

	var errs []error
	d.restorable = d.restorable[:0]
	for i, p := range positioners {
		if err := p.Move(d.startPositions[i], true); err != nil {
			errs = append(errs, fmt.Errorf("move %s back: %w", p.Name(), err))
			continue
		}
		d.restorable = append(d.restorable, p)
	}

	started := time.Now()
	if err := waitStopped(d.restorable, s.Policy()); err != nil {
		errs = append(errs, err)
	}
	s.obs.ObserveLatency(metricRestoreWait, time.Since(started).Seconds())

	return errors.Join(errs...)
}

// waitStopped polls the positioners on the policy's interval until none
// report motion. When the policy carries a teardown timeout, a stall past
// it is reported with the names of the positioners still moving instead of
// blocking forever.
func waitStopped(positioners []ports.Positioner, pol ports.Policy) error {
	interval := pol.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	var deadline time.Time
	if pol.TeardownTimeout > 0 {
		deadline = time.Now().Add(pol.TeardownTimeout)
	}

	for {
		var stillMoving []string
		for _, p := range positioners {
			moving, err := p.Moving()
			if err != nil {
				return fmt.Errorf("motion state of %s: %w", p.Name(), err)
			}
			if moving {
				stillMoving = append(stillMoving, p.Name())
			}
		}
		if len(stillMoving) == 0 {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("restore stalled after %s, still moving: %s",
				pol.TeardownTimeout, strings.Join(stillMoving, ", "))
		}
		time.Sleep(interval)
	}
}
