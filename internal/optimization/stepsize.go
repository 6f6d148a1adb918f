package optimization

// StepSchedule computes the effective step size of an outer step
type StepSchedule struct {
	// Size is the base step size
	Size float64

	// Diminishing divides the base size by (step+1), so the first step uses
	// the full base size
	Diminishing bool
}

// At returns the effective step size for the zero-based outer step index
func (s StepSchedule) At(step int) float64 {
	if s.Diminishing {
		return s.Size / float64(step+1)
	}
	return s.Size
}

// Validate checks that the schedule produces positive step sizes
func (s StepSchedule) Validate() error {
	if !(s.Size > 0) {
		return InvalidArgumentf("step size must be positive, got %v", s.Size)
	}
	return nil
}
