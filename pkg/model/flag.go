package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// RepeatFlag is one repeat bracket, optionally with numbered endings. It
// keeps a repetition counter and a schedule of start and end beats indexed
// by that counter. Playback drives it through Advance.
type RepeatFlag struct {
	starts      map[int]int
	ends        map[int]int
	skipPoint   int
	hasSkip     bool
	repetitions int
}

// NewRepeat returns a bracket that plays [start, end) twice
func NewRepeat(start, end int) (*RepeatFlag, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: repeat starts at negative beat %d", ErrInvalidArgument, start)
	}
	if end < start {
		return nil, fmt.Errorf("%w: end %d comes before the start %d", ErrInvalidArgument, end, start)
	}
	return &RepeatFlag{
		starts: map[int]int{0: start},
		ends:   map[int]int{0: end},
	}, nil
}

// NewMultiEndingRepeat returns a bracket with numbered endings. Pass k plays
// up to endings[k] and jumps back to firstLoopStart; the first pass begins
// at start.
func NewMultiEndingRepeat(start, firstLoopStart int, endings ...int) (*RepeatFlag, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: repeat starts at negative beat %d", ErrInvalidArgument, start)
	}
	if len(endings) == 0 {
		return nil, fmt.Errorf("%w: a multi-ending repeat needs at least one ending", ErrInvalidArgument)
	}
	if endings[0] < start {
		return nil, fmt.Errorf("%w: end %d comes before the start %d", ErrInvalidArgument, endings[0], start)
	}
	for i := 1; i < len(endings); i++ {
		if endings[i-1] > endings[i] {
			return nil, fmt.Errorf("%w: ending %d at beat %d is unreachable after beat %d",
				ErrInvalidArgument, i+1, endings[i], endings[i-1])
		}
	}
	f := &RepeatFlag{
		starts:    map[int]int{0: start},
		ends:      make(map[int]int, len(endings)),
		skipPoint: firstLoopStart,
		hasSkip:   true,
	}
	for k, end := range endings {
		f.ends[k] = end
		f.starts[k+1] = firstLoopStart
	}
	return f, nil
}

// Repetitions returns how many times the bracket has redirected playback
func (f *RepeatFlag) Repetitions() int {
	return f.repetitions
}

// SetRepetitions forces the repetition counter
func (f *RepeatFlag) SetRepetitions(r int) {
	f.repetitions = r
}

// Reset rewinds the counter to the first pass
func (f *RepeatFlag) Reset() {
	f.repetitions = 0
}

// StartAt returns the start beat scheduled for repetition r
func (f *RepeatFlag) StartAt(r int) (int, bool) {
	b, ok := f.starts[r]
	return b, ok
}

// EndAt returns the end beat scheduled for repetition r
func (f *RepeatFlag) EndAt(r int) (int, bool) {
	b, ok := f.ends[r]
	return b, ok
}

// CurrentStart returns the start of the active pass. ok is false once the
// bracket is exhausted.
func (f *RepeatFlag) CurrentStart() (int, bool) {
	return f.StartAt(f.repetitions)
}

// CurrentEnd returns the end of the active pass. ok is false once the
// bracket is exhausted.
func (f *RepeatFlag) CurrentEnd() (int, bool) {
	return f.EndAt(f.repetitions)
}

// Advance returns the beat playback should continue from. When beat has
// reached the end of the active pass it returns the start of the next pass
// and bumps the counter; otherwise beat comes back unchanged.
func (f *RepeatFlag) Advance(beat int) int {
	end, ok := f.ends[f.repetitions]
	if !ok || beat < end {
		return beat
	}
	target, ok := f.starts[f.repetitions+1]
	if !ok {
		target, ok = f.starts[f.repetitions]
	}
	if !ok {
		target = beat
	}
	f.repetitions++
	return target
}

// AddStart schedules a start beat for repetition r unless one exists
func (f *RepeatFlag) AddStart(beat, r int) {
	if _, ok := f.starts[r]; !ok {
		f.starts[r] = beat
	}
}

// AddEnd schedules an end beat for repetition r unless one exists
func (f *RepeatFlag) AddEnd(beat, r int) {
	if _, ok := f.ends[r]; !ok {
		f.ends[r] = beat
	}
}

// OriginalStart is where the first pass begins
func (f *RepeatFlag) OriginalStart() int {
	return f.starts[0]
}

// OriginalEnd is where the first pass ends
func (f *RepeatFlag) OriginalEnd() int {
	return f.ends[0]
}

// SkipPoint is the loop-back beat of a multi-ending bracket. It only serves
// as a drawing hint.
func (f *RepeatFlag) SkipPoint() (int, bool) {
	return f.skipPoint, f.hasSkip
}

// EarliestBeat is the first beat the bracket touches
func (f *RepeatFlag) EarliestBeat() int {
	return f.starts[0]
}

// LatestBeat is the last beat anywhere in the schedule
func (f *RepeatFlag) LatestBeat() int {
	latest := f.starts[0]
	for _, b := range f.starts {
		latest = max(latest, b)
	}
	for _, b := range f.ends {
		latest = max(latest, b)
	}
	return latest
}

// Range returns [EarliestBeat, LatestBeat]
func (f *RepeatFlag) Range() Range {
	return Range{Earliest: f.EarliestBeat(), Latest: f.LatestBeat()}
}

// Starts returns a copy of the start schedule
func (f *RepeatFlag) Starts() map[int]int {
	return maps.Clone(f.starts)
}

// Ends returns a copy of the end schedule
func (f *RepeatFlag) Ends() map[int]int {
	return maps.Clone(f.ends)
}

// Endings lists the end beats in repetition order
func (f *RepeatFlag) Endings() []int {
	out := make([]int, 0, len(f.ends))
	for _, k := range slices.Sorted(maps.Keys(f.ends)) {
		out = append(out, f.ends[k])
	}
	return out
}

func (f *RepeatFlag) String() string {
	return fmt.Sprintf("repeat with starts at %s and ends at %s", schedule(f.starts), schedule(f.ends))
}

func schedule(m map[int]int) string {
	keys := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d:%d", k, m[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
