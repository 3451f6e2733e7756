package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trajectory is the full ordered sequence of setpoints one positioner
// visits during a scan.
type Trajectory []float64

// Clone returns an independent copy of the trajectory.
func (t Trajectory) Clone() Trajectory {
	if t == nil {
		return nil
	}
	out := make(Trajectory, len(t))
	copy(out, t)
	return out
}

// Shift adds offset to every setpoint in place.
func (t Trajectory) Shift(offset float64) {
	for i := range t {
		t[i] += offset
	}
}

// Span describes one axis of a scan grid. Intervals is the number of
// intervals, so the generated path always holds Intervals+1 inclusive
// points; Intervals=0 freezes the axis at Start.
type Span struct {
	Start     float64
	Stop      float64
	Intervals int
}

// Points reports how many setpoints the span contributes to the grid.
func (s Span) Points() int { return s.Intervals + 1 }

// Dataset is the opaque payload returned by an execution engine. The
// scan core only stores it and hands it back to callers.
type Dataset = any

// RunRecord captures the identity and result of one completed run.
type RunRecord struct {
	ID        int       // monotonic per scan instance, first run is 1
	Key       uuid.UUID // globally unique run key
	StartedAt time.Time
	Data      Dataset
}
