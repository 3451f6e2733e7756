package ports

// Positioner is one controllable axis: it reports its position, moves to
// a target, and accepts the ordered trajectory it will follow during a run.
// Identity lives with the implementation; the scan core treats it opaquely.
type Positioner interface {
	Name() string
	Position() (float64, error)
	Moving() (bool, error)
	// Move commands a move to target. With wait set the call carries
	// blocking intent; implementations that cannot block must still
	// report progress through Moving.
	Move(target float64, wait bool) error
	SetTrajectory(path []float64) error
}
