package model

import (
	"fmt"
	"slices"
)

// Track defaults
const (
	DefaultVolumeScale = 50
	MaxVolumeScale     = 100
)

// Track is an ordered run of events that tiles [0, TotalBeats) with no gaps
// or overlaps. Silence is always an explicit rest.
type Track struct {
	volumeScale int
	instrument  int
	events      []Sound
}

// NewTrack creates a track and retags every event with instrument
func NewTrack(volumeScale, instrument int, events ...Sound) (*Track, error) {
	if volumeScale < 0 || volumeScale > MaxVolumeScale {
		return nil, fmt.Errorf("%w: volume scale %d outside [0, %d]", ErrInvalidArgument, volumeScale, MaxVolumeScale)
	}
	if instrument < MinInstrument || instrument > MaxInstrument {
		return nil, fmt.Errorf("%w: instrument %d outside [%d, %d]", ErrInvalidArgument, instrument, MinInstrument, MaxInstrument)
	}
	t := &Track{volumeScale: volumeScale, instrument: instrument}
	for _, ev := range events {
		if ev.Duration() <= 0 {
			return nil, fmt.Errorf("%w: event with non-positive duration", ErrInvalidArgument)
		}
		t.events = append(t.events, t.own(ev))
	}
	return t, nil
}

// own retags an incoming event with the track instrument
func (t *Track) own(ev Sound) Sound {
	_ = ev.SetInstrument(t.instrument)
	return ev
}

// Instrument returns the track's instrument code
func (t *Track) Instrument() int {
	return t.instrument
}

// VolumeScale returns the track volume scale in [0, 100]
func (t *Track) VolumeScale() int {
	return t.volumeScale
}

// SetVolumeScale sets the track volume scale
func (t *Track) SetVolumeScale(scale int) error {
	if scale < 0 || scale > MaxVolumeScale {
		return fmt.Errorf("%w: volume scale %d outside [0, %d]", ErrInvalidArgument, scale, MaxVolumeScale)
	}
	t.volumeScale = scale
	return nil
}

// Len returns the number of events
func (t *Track) Len() int {
	return len(t.events)
}

// Events returns a copy of the event sequence
func (t *Track) Events() []Sound {
	return slices.Clone(t.events)
}

// Event returns the event at index
func (t *Track) Event(index int) (Sound, error) {
	if index < 0 || index >= len(t.events) {
		return Sound{}, fmt.Errorf("%w: event %d in track of %d events", ErrIndex, index, len(t.events))
	}
	return t.events[index], nil
}

// TotalBeats is the sum of every event duration
func (t *Track) TotalBeats() int {
	total := 0
	for _, ev := range t.events {
		total += ev.Duration()
	}
	return total
}

// StartOf returns the beat the event at index starts on
func (t *Track) StartOf(index int) int {
	elapsed := 0
	for i := 0; i < index && i < len(t.events); i++ {
		elapsed += t.events[i].Duration()
	}
	return elapsed
}

// locate returns the index of the event covering beat and that event's
// start. Past the end it returns len(events) and TotalBeats.
func (t *Track) locate(beat int) (index, start int) {
	for i, ev := range t.events {
		if beat < start+ev.Duration() {
			return i, start
		}
		start += ev.Duration()
	}
	return len(t.events), start
}

// EventIndexAt returns the index of the event covering beat, or the
// insertion point len(events) when beat is past the end. Negative beats
// return -1.
func (t *Track) EventIndexAt(beat int) int {
	if beat < 0 {
		return -1
	}
	i, _ := t.locate(beat)
	return i
}

// EventAt returns the event covering beat and the beat it starts on
func (t *Track) EventAt(beat int) (ev Sound, start int, ok bool) {
	if beat < 0 {
		return Sound{}, 0, false
	}
	i, start := t.locate(beat)
	if i == len(t.events) {
		return Sound{}, 0, false
	}
	return t.events[i], start, true
}

// StartsAt reports whether an event begins exactly on beat
func (t *Track) StartsAt(beat int) bool {
	_, start, ok := t.EventAt(beat)
	return ok && start == beat
}

// IsSoundingAt reports whether a non-rest event covers beat
func (t *Track) IsSoundingAt(beat int) bool {
	ev, _, ok := t.EventAt(beat)
	return ok && !ev.IsRest()
}

// IsFree reports whether nothing sounds anywhere in [from, to)
func (t *Track) IsFree(from, to int) bool {
	start := 0
	for _, ev := range t.events {
		end := start + ev.Duration()
		if !ev.IsRest() && start < to && from < end {
			return false
		}
		if end >= to {
			break
		}
		start = end
	}
	return true
}

// InsertAt places ev so that it starts on beat. Past the end the track is
// padded with a rest. Otherwise the covering event must be a rest and ev
// must fit inside the run of silence starting there, unless that silence
// runs to the end of the track, in which case the track grows. On error the
// track is unchanged.
func (t *Track) InsertAt(ev Sound, beat int) error {
	if beat < 0 {
		return fmt.Errorf("%w: negative beat %d", ErrInvalidArgument, beat)
	}
	if ev.Duration() <= 0 {
		return fmt.Errorf("%w: event with non-positive duration", ErrInvalidArgument)
	}
	ev = t.own(ev)

	total := t.TotalBeats()
	if beat >= total {
		if pad := beat - total; pad > 0 {
			t.events = append(t.events, rest(pad, t.instrument))
		}
		t.events = append(t.events, ev)
		return nil
	}

	i, start := t.locate(beat)
	covering := t.events[i]
	if !covering.IsRest() {
		return &ConflictError{Err: ErrOverlapConflict, Beat: beat, Existing: covering, Incoming: ev}
	}

	// extend over consecutive rests so a split tiling of silence still fits
	j, silence := i, covering.Duration()
	for j+1 < len(t.events) && t.events[j+1].IsRest() && silence-(beat-start) < ev.Duration() {
		j++
		silence += t.events[j].Duration()
	}
	lead := beat - start
	room := silence - lead
	toEnd := j == len(t.events)-1
	if ev.Duration() > room && !toEnd {
		next := t.events[j+1]
		return &ConflictError{Err: ErrOverextension, Beat: beat, Existing: next, Incoming: ev}
	}

	pieces := make([]Sound, 0, 3)
	if lead > 0 {
		pieces = append(pieces, rest(lead, t.instrument))
	}
	pieces = append(pieces, ev)
	if tail := room - ev.Duration(); tail > 0 {
		pieces = append(pieces, rest(tail, t.instrument))
	}
	t.events = slices.Replace(t.events, i, j+1, pieces...)
	return nil
}

// InsertIndex inserts ev before the event at index, shifting every later
// event by ev's duration. index may equal Len to append.
func (t *Track) InsertIndex(ev Sound, index int) error {
	if index < 0 || index > len(t.events) {
		return fmt.Errorf("%w: index %d in track of %d events", ErrIndex, index, len(t.events))
	}
	if ev.Duration() <= 0 {
		return fmt.Errorf("%w: event with non-positive duration", ErrInvalidArgument)
	}
	t.events = slices.Insert(t.events, index, t.own(ev))
	return nil
}

// ReplaceAt swaps the event starting exactly on beat for ev. The two must be
// the same length so the tiling is kept.
func (t *Track) ReplaceAt(ev Sound, beat int) error {
	old, start, ok := t.EventAt(beat)
	if !ok || start != beat {
		return fmt.Errorf("%w: no event starts at beat %d", ErrInvalidArgument, beat)
	}
	if ev.Duration() != old.Duration() {
		return fmt.Errorf("%w: replacement of length %d for %s at beat %d", ErrInvalidArgument, ev.Duration(), old, beat)
	}
	i, _ := t.locate(beat)
	t.events[i] = t.own(ev)
	return nil
}

// Merge splices every sounding event of other into t, with other's beat 0
// landing on beat. Either all of other is merged or, on error, nothing.
func (t *Track) Merge(beat int, other *Track) error {
	if beat < 0 {
		return fmt.Errorf("%w: negative beat %d", ErrInvalidArgument, beat)
	}
	work := t.clone()
	offset := beat
	for _, ev := range other.events {
		if !ev.IsRest() {
			if err := work.InsertAt(ev, offset); err != nil {
				return err
			}
		}
		offset += ev.Duration()
	}
	if pad := offset - work.TotalBeats(); pad > 0 {
		work.events = append(work.events, rest(pad, t.instrument))
	}
	t.events = work.events
	return nil
}

// OpenSpan inserts length beats of silence at beat, pushing later events
// back. A beat inside a rest lengthens that rest; a beat inside a sounding
// event is an overlap conflict. Beats at or past the end leave t unchanged.
func (t *Track) OpenSpan(beat, length int) error {
	if beat < 0 || length <= 0 {
		return fmt.Errorf("%w: span of %d beats at beat %d", ErrInvalidArgument, length, beat)
	}
	i, start := t.locate(beat)
	if i == len(t.events) {
		return nil
	}
	ev := t.events[i]
	switch {
	case start == beat:
		t.events = slices.Insert(t.events, i, rest(length, t.instrument))
	case ev.IsRest():
		t.events[i] = rest(ev.Duration()+length, t.instrument)
	default:
		return &ConflictError{Err: ErrOverlapConflict, Beat: beat, Existing: ev, Incoming: rest(length, t.instrument)}
	}
	return nil
}

// ChangeInstrument sets the track instrument and retags every event
func (t *Track) ChangeInstrument(instrument int) error {
	if instrument < MinInstrument || instrument > MaxInstrument {
		return fmt.Errorf("%w: instrument %d outside [%d, %d]", ErrInvalidArgument, instrument, MinInstrument, MaxInstrument)
	}
	t.instrument = instrument
	for i := range t.events {
		t.events[i] = t.own(t.events[i])
	}
	return nil
}

func (t *Track) clone() *Track {
	return &Track{volumeScale: t.volumeScale, instrument: t.instrument, events: slices.Clone(t.events)}
}

func (t *Track) String() string {
	return fmt.Sprintf("instrument %d: %v", t.instrument, t.events)
}
