// Package playback walks a composition beat by beat, honouring its repeat
// flags.
package playback

import (
	"errors"
	"fmt"

	"github.com/james-see/beatline/pkg/model"
)

// ErrRunaway is returned when unrolling emits more beats than allowed
var ErrRunaway = errors.New("playback exceeded the beat limit")

// DefaultMaxBeats bounds Unroll and Timeline when no limit is given
const DefaultMaxBeats = 1 << 16

// Cursor is a playback position over a composition. On every tick it offers
// the pending beat to each registered flag in order; the first flag that
// redirects wins the tick.
type Cursor struct {
	c      *model.Composition
	beat   int
	length int
}

// NewCursor returns a cursor at beat 0 with every flag rewound
func NewCursor(c *model.Composition) *Cursor {
	cur := &Cursor{c: c}
	cur.Reset()
	return cur
}

// Beat is the beat the next call to Next will consider
func (cur *Cursor) Beat() int {
	return cur.beat
}

// Length is the composition length captured at the last Reset or Sync
func (cur *Cursor) Length() int {
	return cur.length
}

// Next returns the beat to sound and moves past it. ok is false once
// playback has run off the end of the composition.
func (cur *Cursor) Next() (beat int, ok bool) {
	beat = cur.beat
	for _, f := range cur.c.Flags() {
		if next := f.Advance(beat); next != beat {
			beat = next
			break
		}
	}
	if beat >= cur.length {
		cur.beat = beat
		return beat, false
	}
	cur.beat = beat + 1
	return beat, true
}

// Seek moves the cursor without touching flag counters
func (cur *Cursor) Seek(beat int) error {
	if beat < 0 {
		return fmt.Errorf("%w: seek to negative beat %d", model.ErrInvalidArgument, beat)
	}
	cur.beat = beat
	return nil
}

// Reset rewinds to beat 0, resets every flag and picks up the current length
func (cur *Cursor) Reset() {
	cur.beat = 0
	cur.c.ResetFlags()
	cur.Sync()
}

// Sync picks up a changed composition length, keeping the position and
// flag counters
func (cur *Cursor) Sync() {
	length, err := cur.c.LengthInBeats()
	if err != nil {
		length = 0
	}
	cur.length = length
}

// Unroll lists every beat in playback order. Flags are left rewound.
func Unroll(c *model.Composition, maxBeats int) ([]int, error) {
	if maxBeats <= 0 {
		maxBeats = DefaultMaxBeats
	}
	cur := NewCursor(c)
	defer c.ResetFlags()

	var beats []int
	for {
		beat, ok := cur.Next()
		if !ok {
			return beats, nil
		}
		if len(beats) == maxBeats {
			return nil, fmt.Errorf("%w: more than %d beats", ErrRunaway, maxBeats)
		}
		beats = append(beats, beat)
	}
}

// StartedNote is a note that begins on a source beat
type StartedNote struct {
	Track int        `json:"track"`
	Note  model.Note `json:"note"`
}

// Step pairs an output beat with the source beat it plays
type Step struct {
	Output int           `json:"output"`
	Source int           `json:"source"`
	Starts []StartedNote `json:"starts,omitempty"`
}

// Timeline unrolls c and attaches the notes starting on each source beat
func Timeline(c *model.Composition, maxBeats int) ([]Step, error) {
	beats, err := Unroll(c, maxBeats)
	if err != nil {
		return nil, err
	}
	starts := make(map[int][]StartedNote)
	for _, pn := range c.NoteList() {
		starts[pn.Start] = append(starts[pn.Start], StartedNote{Track: pn.Track, Note: pn.Note})
	}
	steps := make([]Step, len(beats))
	for i, beat := range beats {
		steps[i] = Step{Output: i, Source: beat, Starts: starts[beat]}
	}
	return steps, nil
}
