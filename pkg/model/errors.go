package model

import (
	"errors"
	"fmt"
)

// Error kinds returned by the model. Every failure is local and leaves the
// model as it was before the call.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrOverlapConflict  = errors.New("overlap conflict")
	ErrOverextension    = errors.New("overextension conflict")
	ErrIndex            = errors.New("index out of range")
	ErrEmptyComposition = errors.New("empty composition")
	ErrFlagOverlap      = errors.New("flag overlap")
	ErrInvalidOperation = errors.New("invalid operation")
)

// ConflictError reports an insertion that collides with what a track
// already holds at Beat.
type ConflictError struct {
	Err      error // ErrOverlapConflict or ErrOverextension
	Beat     int
	Existing Sound
	Incoming Sound
}

func (e *ConflictError) Error() string {
	if errors.Is(e.Err, ErrOverextension) {
		return fmt.Sprintf("%v: %s at beat %d does not fit in the silence that ends before %s",
			e.Err, e.Incoming, e.Beat, e.Existing)
	}
	return fmt.Sprintf("%v: beat %d is already occupied by %s, cannot add %s",
		e.Err, e.Beat, e.Existing, e.Incoming)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Range is a closed beat range [Earliest, Latest] covered by a repeat flag
type Range struct {
	Earliest int
	Latest   int
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Earliest, r.Latest)
}

// Intersects reports whether two flag ranges conflict. Ranges that only
// touch at an endpoint do not.
func (r Range) Intersects(o Range) bool {
	if r.Earliest == o.Earliest {
		return true
	}
	return r.Earliest < o.Latest && o.Earliest < r.Latest
}

// FlagOverlapError reports a repeat flag rejected by the registry
type FlagOverlapError struct {
	Added    Range
	Existing Range
}

func (e *FlagOverlapError) Error() string {
	return fmt.Sprintf("%v: cannot add a flag between %d and %d, a flag already covers %d to %d",
		ErrFlagOverlap, e.Added.Earliest, e.Added.Latest, e.Existing.Earliest, e.Existing.Latest)
}

func (e *FlagOverlapError) Unwrap() error {
	return ErrFlagOverlap
}
