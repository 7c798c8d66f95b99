package api

import (
	"github.com/google/uuid"
	"github.com/james-see/beatline/pkg/model"
)

// NoteView is a note as the API reports it
type NoteView struct {
	Name       string `json:"name"`
	Pitch      int    `json:"pitch"`
	Octave     int    `json:"octave"`
	Volume     int    `json:"volume"`
	Duration   int    `json:"duration"`
	Instrument int    `json:"instrument"`
}

// SoundView is a rest, note or chord
type SoundView struct {
	Kind       string     `json:"kind"`
	Duration   int        `json:"duration"`
	Instrument int        `json:"instrument"`
	Notes      []NoteView `json:"notes,omitempty"`
}

// EventView is a sound placed on a track
type EventView struct {
	Start int       `json:"start"`
	Sound SoundView `json:"sound"`
}

// TrackView is a whole track
type TrackView struct {
	Index       int         `json:"index"`
	Instrument  int         `json:"instrument"`
	VolumeScale int         `json:"volume_scale"`
	Length      int         `json:"length"`
	Events      []EventView `json:"events"`
}

// FlagView is a registered repeat flag
type FlagView struct {
	Start    int   `json:"start"`
	End      int   `json:"end"`
	Loop     *int  `json:"loop,omitempty"`
	Endings  []int `json:"endings"`
	Earliest int   `json:"earliest"`
	Latest   int   `json:"latest"`
}

// Summary describes a stored composition
type Summary struct {
	ID     uuid.UUID  `json:"id"`
	Tempo  int        `json:"tempo"`
	Volume float64    `json:"volume"`
	Tracks int        `json:"tracks"`
	Notes  int        `json:"notes"`
	Length int        `json:"length"`
	Flags  []FlagView `json:"flags"`
}

// BeatView lists what sounds at one beat
type BeatView struct {
	Beat   int         `json:"beat"`
	Notes  []NoteView  `json:"notes"`
	Sounds []SoundView `json:"sounds"`
}

func noteView(n model.Note) NoteView {
	return NoteView{
		Name:       n.Name(),
		Pitch:      n.Rank(),
		Octave:     n.Octave,
		Volume:     n.Volume,
		Duration:   n.Duration,
		Instrument: n.Instrument,
	}
}

func noteViews(notes []model.Note) []NoteView {
	out := make([]NoteView, len(notes))
	for i, n := range notes {
		out[i] = noteView(n)
	}
	return out
}

func soundView(s model.Sound) SoundView {
	v := SoundView{Kind: s.Kind().String(), Duration: s.Duration(), Instrument: s.Instrument()}
	if notes := s.Notes(); len(notes) > 0 {
		v.Notes = noteViews(notes)
	}
	return v
}

func trackView(index int, t *model.Track) TrackView {
	v := TrackView{
		Index:       index,
		Instrument:  t.Instrument(),
		VolumeScale: t.VolumeScale(),
		Length:      t.TotalBeats(),
		Events:      []EventView{},
	}
	start := 0
	for _, ev := range t.Events() {
		v.Events = append(v.Events, EventView{Start: start, Sound: soundView(ev)})
		start += ev.Duration()
	}
	return v
}

func flagView(f *model.RepeatFlag) FlagView {
	v := FlagView{
		Start:    f.OriginalStart(),
		End:      f.OriginalEnd(),
		Endings:  f.Endings(),
		Earliest: f.EarliestBeat(),
		Latest:   f.LatestBeat(),
	}
	if loop, ok := f.SkipPoint(); ok {
		v.Loop = &loop
	}
	return v
}

func summarize(id uuid.UUID, c *model.Composition) Summary {
	length, err := c.LengthInBeats()
	if err != nil {
		length = 0
	}
	s := Summary{
		ID:     id,
		Tempo:  c.Tempo(),
		Volume: c.Volume(),
		Tracks: len(c.Tracks()),
		Notes:  len(c.NoteList()),
		Length: length,
		Flags:  []FlagView{},
	}
	for _, f := range c.Flags() {
		s.Flags = append(s.Flags, flagView(f))
	}
	return s
}
