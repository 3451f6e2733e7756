package ports

// Detector is an opaque handle to a measuring instrument. The scan core
// never reads it; the execution engine does.
type Detector interface {
	Name() string
}

// Trigger is an opaque handle to an acquisition trigger.
type Trigger interface {
	Name() string
}
