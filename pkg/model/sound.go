package model

import (
	"fmt"
	"strings"
)

// Value limits
const (
	MinVolume     = 0
	MaxVolume     = 127
	MinInstrument = 1
	MaxInstrument = 128
	MinOctave     = 0
	MaxOctave     = 10  // reaches G only, see MaxPitch
	MaxPitch      = 127 // highest rank a note may have
)

// Kind tags the variant held by a Sound
type Kind int

const (
	KindRest Kind = iota
	KindNote
	KindChord
)

func (k Kind) String() string {
	switch k {
	case KindRest:
		return "rest"
	case KindNote:
		return "note"
	case KindChord:
		return "chord"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Note is a single pitched sound
type Note struct {
	Pitch      PitchClass
	Octave     int
	Volume     int
	Duration   int // in beats
	Instrument int
}

// NewNote validates and returns a Note
func NewNote(pitch PitchClass, octave, volume, duration, instrument int) (Note, error) {
	n := Note{Pitch: pitch, Octave: octave, Volume: volume, Duration: duration, Instrument: instrument}
	if err := n.validate(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// NoteFromPitch builds a Note from a MIDI pitch in [0, 127], where 60 is C5
// in this model's octave numbering.
func NoteFromPitch(pitch, volume, duration, instrument int) (Note, error) {
	if pitch < 0 || pitch > MaxPitch {
		return Note{}, fmt.Errorf("%w: pitch %d outside [0, %d]", ErrInvalidArgument, pitch, MaxPitch)
	}
	return NewNote(PitchClass(pitch%PitchClasses), pitch/PitchClasses, volume, duration, instrument)
}

func (n Note) validate() error {
	switch {
	case !n.Pitch.Valid():
		return fmt.Errorf("%w: unknown pitch class %d", ErrInvalidArgument, int(n.Pitch))
	case n.Octave < MinOctave || n.Octave > MaxOctave:
		return fmt.Errorf("%w: octave %d outside [%d, %d]", ErrInvalidArgument, n.Octave, MinOctave, MaxOctave)
	case n.Rank() > MaxPitch:
		return fmt.Errorf("%w: %s is above MIDI pitch %d", ErrInvalidArgument, n.Name(), MaxPitch)
	case n.Volume < MinVolume || n.Volume > MaxVolume:
		return fmt.Errorf("%w: volume %d outside [%d, %d]", ErrInvalidArgument, n.Volume, MinVolume, MaxVolume)
	case n.Duration <= 0:
		return fmt.Errorf("%w: non-positive duration %d", ErrInvalidArgument, n.Duration)
	case n.Instrument < MinInstrument || n.Instrument > MaxInstrument:
		return fmt.Errorf("%w: instrument %d outside [%d, %d]", ErrInvalidArgument, n.Instrument, MinInstrument, MaxInstrument)
	}
	return nil
}

// Rank is the total order key of a note
func (n Note) Rank() int {
	return n.Octave*PitchClasses + int(n.Pitch)
}

// Name returns the pitch name followed by the octave, e.g. "C#4"
func (n Note) Name() string {
	return fmt.Sprintf("%s%d", n.Pitch, n.Octave)
}

func (n Note) String() string {
	return fmt.Sprintf("note %s of length %d", n.Name(), n.Duration)
}

// Sound wraps the note as a single-note event
func (n Note) Sound() Sound {
	return Sound{kind: KindNote, duration: n.Duration, instrument: n.Instrument, notes: []Note{n}}
}

// HigherThan compares against any event. Every note is higher than a rest.
func (n Note) HigherThan(other Sound) bool {
	if other.IsRest() {
		return true
	}
	h, _ := other.HighestNote()
	return n.Rank() > h.Rank()
}

// LowerThan compares against any event. Every note is lower than a rest.
func (n Note) LowerThan(other Sound) bool {
	if other.IsRest() {
		return true
	}
	l, _ := other.LowestNote()
	return n.Rank() < l.Rank()
}

// Sound is a single event on a track: a Rest, a Note or a Chord. The zero
// value is not a valid event; use the constructors.
type Sound struct {
	kind       Kind
	duration   int
	instrument int
	notes      []Note // one for KindNote, one or more for KindChord
}

// NewRest returns a rest lasting duration beats
func NewRest(duration int) (Sound, error) {
	if duration <= 0 {
		return Sound{}, fmt.Errorf("%w: non-positive rest duration %d", ErrInvalidArgument, duration)
	}
	return rest(duration, MinInstrument), nil
}

func rest(duration, instrument int) Sound {
	return Sound{kind: KindRest, duration: duration, instrument: instrument}
}

// NewChord returns a chord of the given notes. Every note is set to
// duration and to the instrument of the first note.
func NewChord(duration int, notes ...Note) (Sound, error) {
	if duration <= 0 {
		return Sound{}, fmt.Errorf("%w: non-positive chord duration %d", ErrInvalidArgument, duration)
	}
	if len(notes) == 0 {
		return Sound{}, fmt.Errorf("%w: a chord needs at least one note", ErrInvalidArgument)
	}
	instrument := notes[0].Instrument
	held := make([]Note, len(notes))
	for i, n := range notes {
		n.Duration = duration
		n.Instrument = instrument
		if err := n.validate(); err != nil {
			return Sound{}, err
		}
		held[i] = n
	}
	return Sound{kind: KindChord, duration: duration, instrument: instrument, notes: held}, nil
}

// Kind returns the variant tag
func (s Sound) Kind() Kind {
	return s.kind
}

// Duration returns the length in beats
func (s Sound) Duration() int {
	return s.duration
}

// IsRest reports whether s is silence
func (s Sound) IsRest() bool {
	return s.kind == KindRest
}

// Instrument returns the instrument code the event is tagged with
func (s Sound) Instrument() int {
	return s.instrument
}

// Volume returns the note volume, the loudest note of a chord, or 0 for a rest
func (s Sound) Volume() int {
	v := 0
	for _, n := range s.notes {
		v = max(v, n.Volume)
	}
	return v
}

// Notes flattens the event into its notes. A rest has none.
func (s Sound) Notes() []Note {
	switch s.kind {
	case KindNote, KindChord:
		out := make([]Note, len(s.notes))
		copy(out, s.notes)
		return out
	default:
		return nil
	}
}

// NotesIn flattens a sequence of events into their notes, in order
func NotesIn(sounds []Sound) []Note {
	var out []Note
	for _, s := range sounds {
		out = append(out, s.Notes()...)
	}
	return out
}

// HighestNote returns the note itself or the highest note of a chord
func (s Sound) HighestNote() (Note, error) {
	switch s.kind {
	case KindNote, KindChord:
		best := s.notes[0]
		for _, n := range s.notes[1:] {
			if n.Rank() > best.Rank() {
				best = n
			}
		}
		return best, nil
	default:
		return Note{}, fmt.Errorf("%w: rests have no pitch", ErrInvalidOperation)
	}
}

// LowestNote returns the note itself or the lowest note of a chord
func (s Sound) LowestNote() (Note, error) {
	switch s.kind {
	case KindNote, KindChord:
		best := s.notes[0]
		for _, n := range s.notes[1:] {
			if n.Rank() < best.Rank() {
				best = n
			}
		}
		return best, nil
	default:
		return Note{}, fmt.Errorf("%w: rests have no pitch", ErrInvalidOperation)
	}
}

// HigherThan reports whether s sounds above other. A rest is never higher;
// anything pitched is higher than a rest.
func (s Sound) HigherThan(other Sound) bool {
	switch s.kind {
	case KindNote, KindChord:
		h, _ := s.HighestNote()
		return h.HigherThan(other)
	default:
		return false
	}
}

// LowerThan reports whether s sounds below other. A rest is never lower;
// anything pitched is lower than a rest.
func (s Sound) LowerThan(other Sound) bool {
	switch s.kind {
	case KindNote, KindChord:
		l, _ := s.LowestNote()
		return l.LowerThan(other)
	default:
		return false
	}
}

// MakeChord returns a new chord holding the notes of s plus note, at the
// duration and instrument of s.
func (s Sound) MakeChord(note Note) (Sound, error) {
	switch s.kind {
	case KindNote, KindChord:
		notes := append(s.Notes(), note)
		for i := range notes {
			notes[i].Instrument = s.instrument
		}
		return NewChord(s.duration, notes...)
	default:
		return Sound{}, fmt.Errorf("%w: cannot chord a rest", ErrInvalidOperation)
	}
}

// Without returns s minus the first note equal to note. A chord left with a
// single note becomes that note; removing the last note yields a rest of the
// same length. ok is false when s holds no such note.
func (s Sound) Without(note Note) (Sound, bool) {
	for i, n := range s.notes {
		if n != note {
			continue
		}
		left := append(s.Notes()[:i:i], s.notes[i+1:]...)
		switch len(left) {
		case 0:
			return rest(s.duration, s.instrument), true
		case 1:
			return left[0].Sound(), true
		default:
			return Sound{kind: KindChord, duration: s.duration, instrument: s.instrument, notes: left}, true
		}
	}
	return s, false
}

// SetVolume sets the volume of every note. Rests stay silent.
func (s *Sound) SetVolume(volume int) error {
	if volume < MinVolume || volume > MaxVolume {
		return fmt.Errorf("%w: volume %d outside [%d, %d]", ErrInvalidArgument, volume, MinVolume, MaxVolume)
	}
	s.notes = s.Notes()
	for i := range s.notes {
		s.notes[i].Volume = volume
	}
	return nil
}

// SetInstrument retags the event and its notes
func (s *Sound) SetInstrument(instrument int) error {
	if instrument < MinInstrument || instrument > MaxInstrument {
		return fmt.Errorf("%w: instrument %d outside [%d, %d]", ErrInvalidArgument, instrument, MinInstrument, MaxInstrument)
	}
	s.instrument = instrument
	s.notes = s.Notes()
	for i := range s.notes {
		s.notes[i].Instrument = instrument
	}
	return nil
}

// ChangeOctave shifts every note by delta octaves. Rests are unaffected.
func (s *Sound) ChangeOctave(delta int) error {
	notes := s.Notes()
	for i := range notes {
		notes[i].Octave += delta
		if err := notes[i].validate(); err != nil {
			return err
		}
	}
	s.notes = notes
	return nil
}

// Names lists the note names held by s, or "rest"
func (s Sound) Names() []string {
	if s.IsRest() {
		return []string{"rest"}
	}
	names := make([]string, len(s.notes))
	for i, n := range s.notes {
		names[i] = n.Name()
	}
	return names
}

// Equal reports whether two events hold the same variant, length and notes
func (s Sound) Equal(o Sound) bool {
	if s.kind != o.kind || s.duration != o.duration || len(s.notes) != len(o.notes) {
		return false
	}
	for i := range s.notes {
		if s.notes[i] != o.notes[i] {
			return false
		}
	}
	return true
}

func (s Sound) String() string {
	switch s.kind {
	case KindNote:
		return s.notes[0].String()
	case KindChord:
		return fmt.Sprintf("chord [%s] of length %d", strings.Join(s.Names(), " "), s.duration)
	default:
		return fmt.Sprintf("rest of length %d", s.duration)
	}
}
