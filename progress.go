package wde

// Stages reported through the progress callback.
const (
	StageCoefficients    = "coefficients"
	StageSingleThreshold = "single-threshold"
	StageMultiThreshold  = "multi-threshold"
	StageMDL             = "mdl"
	StageIterative       = "iterative"
	StageBestLevel       = "best-level"
)

// Event is one observability point emitted while fitting. Selection
// routines report explored levels, accepted/rejected candidates and the
// achieved loss through these events instead of writing to any output.
type Event struct {
	Stage     string
	Level     int
	Loss      float64
	Accepted  bool
	NumCoeffs int
}

// ProgressFunc receives progress events during fitting. It is called
// synchronously from the fitting goroutine and must not block.
type ProgressFunc func(Event)

func (e *Estimator) emit(ev Event) {
	if e.cfg.Progress != nil {
		e.cfg.Progress(ev)
	}
}
