// Package trajectory computes the per-positioner setpoint paths for a
// multi-dimensional scan grid.
package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/photonworks/ScanFlow/internal/domain"
	"github.com/photonworks/ScanFlow/internal/ports"
)

// Dimension is one axis of the grid: a group of positioners that move
// together plus the span they sweep.
type Dimension struct {
	Group []ports.Positioner
	Span  domain.Span
}

// Dim builds a single-positioner dimension.
func Dim(p ports.Positioner, start, stop float64, intervals int) Dimension {
	return Dimension{
		Group: []ports.Positioner{p},
		Span:  domain.Span{Start: start, Stop: stop, Intervals: intervals},
	}
}

// Broadcast stretches a length-1 slice to n elements so callers can hand a
// single value where one per dimension is expected. A slice that is already
// n long passes through unchanged.
func Broadcast[T any](xs []T, n int) ([]T, error) {
	switch len(xs) {
	case n:
		return xs, nil
	case 1:
		out := make([]T, n)
		for i := range out {
			out[i] = xs[0]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected 1 or %d values, got %d", n, len(xs))
	}
}

// Plan assembles dimensions from parallel slices, broadcasting any
// length-1 input across all dimensions. The dimension count is taken from
// intervals, matching how callers spell out N-dimensional scans.
func Plan(groups [][]ports.Positioner, starts, stops []float64, intervals []int) ([]Dimension, error) {
	n := len(intervals)
	if n == 0 {
		return nil, fmt.Errorf("no dimensions given")
	}

	groups, err := Broadcast(groups, n)
	if err != nil {
		return nil, fmt.Errorf("positioner groups: %w", err)
	}
	starts, err = Broadcast(starts, n)
	if err != nil {
		return nil, fmt.Errorf("starts: %w", err)
	}
	stops, err = Broadcast(stops, n)
	if err != nil {
		return nil, fmt.Errorf("stops: %w", err)
	}

	dims := make([]Dimension, n)
	for d := 0; d < n; d++ {
		dims[d] = Dimension{
			Group: groups[d],
			Span:  domain.Span{Start: starts[d], Stop: stops[d], Intervals: intervals[d]},
		}
	}
	return dims, nil
}

// Generate flattens the grid into one trajectory per positioner, ordered as
// a row-major Cartesian product: dimension 0 varies slowest, the last
// dimension fastest, direction never reverses. Every positioner in a group
// receives its own copy of the group's path.
func Generate(dims []Dimension) ([]ports.Positioner, []domain.Trajectory, error) {
	if len(dims) == 0 {
		return nil, nil, fmt.Errorf("no dimensions given")
	}
	for d, dim := range dims {
		if len(dim.Group) == 0 {
			return nil, nil, fmt.Errorf("dimension %d has no positioners", d)
		}
		if dim.Span.Intervals < 0 {
			return nil, nil, fmt.Errorf("dimension %d has negative interval count %d", d, dim.Span.Intervals)
		}
	}

	var (
		positioners  []ports.Positioner
		trajectories []domain.Trajectory
	)
	for d, dim := range dims {
		path := axisPath(dims, d)
		for _, p := range dim.Group {
			positioners = append(positioners, p)
			trajectories = append(trajectories, path.Clone())
		}
	}
	return positioners, trajectories, nil
}

// axisPath expands dimension d's linear sweep to the full grid length:
// each point repeats once per combination of the faster dimensions, and
// the whole sweep tiles once per combination of the slower ones.
func axisPath(dims []Dimension, d int) domain.Trajectory {
	span := dims[d].Span
	var line []float64
	if span.Points() == 1 {
		// A zero-interval axis holds still at its start value.
		line = []float64{span.Start}
	} else {
		line = floats.Span(make([]float64, span.Points()), span.Start, span.Stop)
	}

	inner := 1
	for _, dim := range dims[d+1:] {
		inner *= dim.Span.Points()
	}
	outer := 1
	for _, dim := range dims[:d] {
		outer *= dim.Span.Points()
	}

	out := make(domain.Trajectory, 0, len(line)*inner*outer)
	for t := 0; t < outer; t++ {
		for _, v := range line {
			for r := 0; r < inner; r++ {
				out = append(out, v)
			}
		}
	}
	return out
}
