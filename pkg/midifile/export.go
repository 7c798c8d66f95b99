// Package midifile converts compositions to and from Standard MIDI Files
package midifile

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/james-see/beatline/pkg/model"
	"github.com/james-see/beatline/pkg/playback"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// DefaultTicksPerBeat is the file resolution used when none is set
const DefaultTicksPerBeat = 480

// percussion is the General MIDI drum channel
const percussion = 9

// Exporter writes compositions as format 1 Standard MIDI Files. Repeats are
// unrolled, so the file plays exactly what a Cursor would.
type Exporter struct {
	TicksPerBeat uint16
	MaxBeats     int
}

// NewExporter creates an exporter at the default resolution
func NewExporter() *Exporter {
	return &Exporter{TicksPerBeat: DefaultTicksPerBeat}
}

// melodicChannels is the number of channels left once percussion is reserved
const melodicChannels = 15

// ErrTooManyInstruments is returned when a composition uses more instruments
// than there are melodic channels
var ErrTooManyInstruments = fmt.Errorf("%w: more than %d instruments", model.ErrInvalidOperation, melodicChannels)

// Channels assigns a MIDI channel to every track. Tracks of one instrument
// share a channel; instruments take channels in order of first use, skipping
// percussion.
func Channels(c *model.Composition) ([]uint8, error) {
	tracks := c.Tracks()
	out := make([]uint8, len(tracks))
	byInstrument := make(map[int]uint8)
	for i, t := range tracks {
		ch, ok := byInstrument[t.Instrument()]
		if !ok {
			n := len(byInstrument)
			if n == melodicChannels {
				return nil, fmt.Errorf("%w: track %d needs a channel for instrument %d", ErrTooManyInstruments, i, t.Instrument())
			}
			if n >= percussion {
				n++
			}
			ch = uint8(n)
			byInstrument[t.Instrument()] = ch
		}
		out[i] = ch
	}
	return out, nil
}

// Velocity is the note volume scaled by the track and composition volume
func Velocity(volume, volumeScale int, multiplier float64) uint8 {
	v := math.Round(float64(volume) * float64(volumeScale) / 100 * multiplier)
	return uint8(min(127, max(1, v)))
}

type timed struct {
	tick uint32
	off  bool
	msg  []byte
}

// Export renders c to SMF bytes
func (e *Exporter) Export(c *model.Composition) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil composition", model.ErrInvalidArgument)
	}
	if _, err := c.LengthInBeats(); err != nil {
		return nil, err
	}
	tpb := e.TicksPerBeat
	if tpb == 0 {
		tpb = DefaultTicksPerBeat
	}

	channels, err := Channels(c)
	if err != nil {
		return nil, err
	}

	steps, err := playback.Timeline(c, e.MaxBeats)
	if err != nil {
		return nil, fmt.Errorf("failed to unroll composition: %w", err)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(tpb)

	var tempo smf.Track
	micros := uint32(c.Tempo())
	tempo.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(micros >> 16),
		byte(micros >> 8),
		byte(micros),
	}))
	// 4/4, 24 clocks per click, 8 32nds per quarter
	tempo.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))
	tempo.Close(0)
	if err := s.Add(tempo); err != nil {
		return nil, fmt.Errorf("failed to add tempo track: %w", err)
	}

	tracks := c.Tracks()
	events := make([][]timed, len(tracks))
	for _, step := range steps {
		on := uint32(step.Output) * uint32(tpb)
		for _, sn := range step.Starts {
			ch := channels[sn.Track]
			key := uint8(sn.Note.Rank())
			vel := Velocity(sn.Note.Volume, tracks[sn.Track].VolumeScale(), c.Volume())
			off := on + uint32(sn.Note.Duration)*uint32(tpb)
			events[sn.Track] = append(events[sn.Track],
				timed{tick: on, msg: midi.NoteOn(ch, key, vel)},
				timed{tick: off, off: true, msg: midi.NoteOff(ch, key)},
			)
		}
	}

	for i, t := range tracks {
		var track smf.Track
		ch := channels[i]
		track.Add(0, midi.ProgramChange(ch, uint8(t.Instrument()-1)))

		evs := events[i]
		// note offs go first so a repeated key is released before it strikes again
		slices.SortStableFunc(evs, func(a, b timed) int {
			if a.tick != b.tick {
				return cmp.Compare(a.tick, b.tick)
			}
			if a.off != b.off {
				if a.off {
					return -1
				}
				return 1
			}
			return 0
		})
		var current uint32
		for _, ev := range evs {
			track.Add(ev.tick-current, ev.msg)
			current = ev.tick
		}
		track.Close(0)
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile exports c to filename
func (e *Exporter) WriteFile(c *model.Composition, filename string) error {
	data, err := e.Export(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
