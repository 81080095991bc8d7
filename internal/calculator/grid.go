package calculator

import (
	"fmt"
	"time"
)

// InvalidRangeError reports malformed grid bounds.
type InvalidRangeError struct {
	From time.Time
	To   time.Time
	Step time.Duration
}

func (e *InvalidRangeError) Error() string {
	if e.Step <= 0 {
		return fmt.Sprintf("invalid grid step %s", e.Step)
	}
	return fmt.Sprintf("invalid grid range: from %s is not before to %s",
		e.From.Format(time.RFC3339), e.To.Format(time.RFC3339))
}

// BuildGrid returns from, from+step, from+2*step, ... strictly below to.
func BuildGrid(from, to time.Time, step time.Duration) ([]time.Time, error) {
	if step <= 0 || !from.Before(to) {
		return nil, &InvalidRangeError{From: from, To: to, Step: step}
	}
	n := int(to.Sub(from) / step)
	if to.Sub(from)%step != 0 {
		n++
	}
	grid := make([]time.Time, 0, n)
	for t := from; t.Before(to); t = t.Add(step) {
		grid = append(grid, t)
	}
	return grid, nil
}
