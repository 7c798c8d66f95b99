package model

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// DefaultTempo is 120 beats per minute, in microseconds per beat
const DefaultTempo = 500000

// Composition is a set of independent tracks sharing a tempo, a volume
// multiplier and a registry of repeat flags. Tracks are addressed by their
// index, which stays stable until a track is removed.
type Composition struct {
	tracks []*Track
	tempo  int     // microseconds per beat
	volume float64 // multiplier in [0, 1]
	flags  []*RepeatFlag
}

// NewComposition returns a composition at volume percent (0 to 100)
func NewComposition(volume int, tracks ...*Track) (*Composition, error) {
	c := &Composition{tempo: DefaultTempo}
	if err := c.SetVolume(volume); err != nil {
		return nil, err
	}
	for _, t := range tracks {
		if err := c.AddTrack(t, 0); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Tempo returns microseconds per beat
func (c *Composition) Tempo() int {
	return c.tempo
}

// SetTempo sets microseconds per beat
func (c *Composition) SetTempo(micros int) error {
	if micros <= 0 {
		return fmt.Errorf("%w: tempo %d must be positive", ErrInvalidArgument, micros)
	}
	c.tempo = micros
	return nil
}

// Volume returns the volume multiplier in [0, 1]
func (c *Composition) Volume() float64 {
	return c.volume
}

// SetVolume sets the volume multiplier from a percentage
func (c *Composition) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume %d outside [0, 100]", ErrInvalidArgument, percent)
	}
	c.volume = float64(percent) / 100
	return nil
}

// ChangeVolume shifts the multiplier by delta percent, clamped to [0, 1]
func (c *Composition) ChangeVolume(delta int) {
	c.volume = math.Min(1, math.Max(0, c.volume+float64(delta)/100))
}

// Tracks returns the tracks in index order
func (c *Composition) Tracks() []*Track {
	return slices.Clone(c.tracks)
}

// Track returns the track at index
func (c *Composition) Track(index int) (*Track, error) {
	if index < 0 || index >= len(c.tracks) {
		return nil, fmt.Errorf("%w: track %d of %d", ErrIndex, index, len(c.tracks))
	}
	return c.tracks[index], nil
}

// AddTrack registers t so that its beat 0 lands on beat, by prefixing
// silence.
func (c *Composition) AddTrack(t *Track, beat int) error {
	if t == nil {
		return fmt.Errorf("%w: nil track", ErrInvalidArgument)
	}
	if beat < 0 {
		return fmt.Errorf("%w: negative beat %d", ErrInvalidArgument, beat)
	}
	if beat > 0 {
		if err := t.InsertIndex(rest(beat, t.instrument), 0); err != nil {
			return err
		}
	}
	c.tracks = append(c.tracks, t)
	return nil
}

// AppendTrack adds t so that it starts where the longest track ends
func (c *Composition) AppendTrack(t *Track) error {
	length, err := c.LengthInBeats()
	if err != nil {
		length = 0
	}
	return c.AddTrack(t, length)
}

// RemoveTrack drops the track at index; later tracks shift down by one
func (c *Composition) RemoveTrack(index int) error {
	if index < 0 || index >= len(c.tracks) {
		return fmt.Errorf("%w: track %d of %d", ErrIndex, index, len(c.tracks))
	}
	c.tracks = slices.Delete(c.tracks, index, index+1)
	return nil
}

// Splice opens room for t at beat in every existing track, then adds t
// starting at beat. Nothing changes if any track cannot be opened there.
func (c *Composition) Splice(beat int, t *Track) error {
	if t == nil {
		return fmt.Errorf("%w: nil track", ErrInvalidArgument)
	}
	length := t.TotalBeats()
	opened := make([]*Track, len(c.tracks))
	for i, existing := range c.tracks {
		work := existing.clone()
		if length > 0 {
			if err := work.OpenSpan(beat, length); err != nil {
				return fmt.Errorf("splice into track %d: %w", i, err)
			}
		}
		opened[i] = work
	}
	for i, work := range opened {
		c.tracks[i].events = work.events
	}
	return c.AddTrack(t, beat)
}

// MergeComposition copies every track of other into c, shifted to beat
func (c *Composition) MergeComposition(other *Composition, beat int) error {
	for _, t := range other.tracks {
		if err := c.AddTrack(t.clone(), beat); err != nil {
			return err
		}
	}
	return nil
}

// MergeIntoTrack merges other into the track at index, starting at beat
func (c *Composition) MergeIntoTrack(index, beat int, other *Track) error {
	t, err := c.Track(index)
	if err != nil {
		return err
	}
	return t.Merge(beat, other)
}

// InsertNote places ev at beat in the track at index
func (c *Composition) InsertNote(ev Sound, index, beat int) error {
	t, err := c.Track(index)
	if err != nil {
		return err
	}
	return t.InsertAt(ev, beat)
}

// SwapNote replaces the event starting at beat in the track at index
func (c *Composition) SwapNote(ev Sound, index, beat int) error {
	t, err := c.Track(index)
	if err != nil {
		return err
	}
	return t.ReplaceAt(ev, beat)
}

// RemoveNote silences the first matching note starting at beat on a track
// of the note's instrument. A chord loses just that note.
func (c *Composition) RemoveNote(n Note, beat int) error {
	for _, t := range c.tracks {
		if t.instrument != n.Instrument {
			continue
		}
		ev, start, ok := t.EventAt(beat)
		if !ok || start != beat {
			continue
		}
		if left, ok := ev.Without(n); ok {
			return t.ReplaceAt(left, beat)
		}
	}
	return fmt.Errorf("%w: no %s starts at beat %d", ErrInvalidArgument, n, beat)
}

// SetInstrument changes the instrument of the track at index
func (c *Composition) SetInstrument(instrument, index int) error {
	t, err := c.Track(index)
	if err != nil {
		return err
	}
	return t.ChangeInstrument(instrument)
}

// PlaceNote adds a note spanning [start, end) with a MIDI pitch. It goes to
// the first track of that instrument with room for it. A track where an
// event of the same length already starts on start takes the note as part
// of a chord. Failing both, a new track is created. end == start is a no-op.
func (c *Composition) PlaceNote(start, end, instrument, pitch, volume int) error {
	if end == start {
		return nil
	}
	if start < 0 || end < start {
		return fmt.Errorf("%w: note span [%d, %d)", ErrInvalidArgument, start, end)
	}
	n, err := NoteFromPitch(pitch, volume, end-start, instrument)
	if err != nil {
		return err
	}
	for _, t := range c.tracks {
		if t.instrument != instrument {
			continue
		}
		if ev, at, ok := t.EventAt(start); ok && at == start && !ev.IsRest() && ev.Duration() == n.Duration {
			chord, err := ev.MakeChord(n)
			if err != nil {
				return err
			}
			return t.ReplaceAt(chord, start)
		}
		if t.IsFree(start, end) {
			return t.InsertAt(n.Sound(), start)
		}
	}
	t, err := NewTrack(DefaultVolumeScale, instrument)
	if err != nil {
		return err
	}
	if err := t.InsertAt(n.Sound(), start); err != nil {
		return err
	}
	c.tracks = append(c.tracks, t)
	return nil
}

// SoundsAtBeat returns the event covering beat on each track that reaches
// it, in track order. Rests are included.
func (c *Composition) SoundsAtBeat(beat int) []Sound {
	var out []Sound
	for _, t := range c.tracks {
		if ev, _, ok := t.EventAt(beat); ok {
			out = append(out, ev)
		}
	}
	return out
}

// NotesAtBeat returns every note sounding at beat, in track order
func (c *Composition) NotesAtBeat(beat int) []Note {
	return NotesIn(c.SoundsAtBeat(beat))
}

// NoteStarts maps each beat to the notes that begin on it
func (c *Composition) NoteStarts() map[int][]Note {
	starts := make(map[int][]Note)
	for _, t := range c.tracks {
		beat := 0
		for _, ev := range t.events {
			if notes := ev.Notes(); len(notes) > 0 {
				starts[beat] = append(starts[beat], notes...)
			}
			beat += ev.Duration()
		}
	}
	return starts
}

// PlacedNote is a note with the beat it starts on and its track index
type PlacedNote struct {
	Start int
	Track int
	Note  Note
}

// NoteList returns every note ordered by start beat, then track index
func (c *Composition) NoteList() []PlacedNote {
	var out []PlacedNote
	for ti, t := range c.tracks {
		beat := 0
		for _, ev := range t.events {
			for _, n := range ev.Notes() {
				out = append(out, PlacedNote{Start: beat, Track: ti, Note: n})
			}
			beat += ev.Duration()
		}
	}
	slices.SortStableFunc(out, func(a, b PlacedNote) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.Track, b.Track))
	})
	return out
}

// LengthInBeats is the length of the longest track
func (c *Composition) LengthInBeats() (int, error) {
	if len(c.tracks) == 0 {
		return 0, fmt.Errorf("%w: there are no tracks, so there is no length", ErrEmptyComposition)
	}
	length := 0
	for _, t := range c.tracks {
		length = max(length, t.TotalBeats())
	}
	return length, nil
}

// HighestNote scans every track. ok is false when there are no notes.
func (c *Composition) HighestNote() (Note, bool) {
	var best Note
	found := false
	for _, t := range c.tracks {
		for _, n := range NotesIn(t.events) {
			if !found || n.Rank() > best.Rank() {
				best, found = n, true
			}
		}
	}
	return best, found
}

// LowestNote scans every track. ok is false when there are no notes.
func (c *Composition) LowestNote() (Note, bool) {
	var best Note
	found := false
	for _, t := range c.tracks {
		for _, n := range NotesIn(t.events) {
			if !found || n.Rank() < best.Rank() {
				best, found = n, true
			}
		}
	}
	return best, found
}

// AddFlag registers f, keeping flags ordered by earliest beat. A flag whose
// range intersects a registered one is rejected.
func (c *Composition) AddFlag(f *RepeatFlag) error {
	if f == nil {
		return fmt.Errorf("%w: nil flag", ErrInvalidArgument)
	}
	added := f.Range()
	for _, existing := range c.flags {
		if r := existing.Range(); added.Intersects(r) {
			return &FlagOverlapError{Added: added, Existing: r}
		}
	}
	i, _ := slices.BinarySearchFunc(c.flags, added.Earliest, func(g *RepeatFlag, beat int) int {
		return cmp.Compare(g.EarliestBeat(), beat)
	})
	c.flags = slices.Insert(c.flags, i, f)
	return nil
}

// Flags returns the registered flags in beat order
func (c *Composition) Flags() []*RepeatFlag {
	return slices.Clone(c.flags)
}

// FlagAt returns the flag whose first pass starts at beat
func (c *Composition) FlagAt(beat int) (*RepeatFlag, bool) {
	for _, f := range c.flags {
		if f.OriginalStart() == beat {
			return f, true
		}
	}
	return nil, false
}

// ResetFlags rewinds every flag to its first pass
func (c *Composition) ResetFlags() {
	for _, f := range c.flags {
		f.Reset()
	}
}

func (c *Composition) String() string {
	return fmt.Sprintf("tracks: %v, tempo: %d, volume: %.2f", c.tracks, c.tempo, c.volume)
}
