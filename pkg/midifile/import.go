package midifile

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/james-see/beatline/pkg/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Importer reads Standard MIDI Files into compositions, quantizing every
// note to whole beats
type Importer struct{}

// NewImporter creates a MIDI importer
func NewImporter() *Importer {
	return &Importer{}
}

// ReadFile reads and imports a MIDI file
func (im *Importer) ReadFile(filename string) (*model.Composition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return im.Import(data)
}

type pressed struct {
	tick       int64
	velocity   uint8
	instrument int
}

type noteKey struct {
	channel, key uint8
}

// Import parses MIDI data. Percussion is skipped.
func (im *Importer) Import(data []byte) (*model.Composition, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	ticksPerBeat := int64(DefaultTicksPerBeat)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt.Resolution() > 0 {
		ticksPerBeat = int64(mt.Resolution())
	}
	beatOf := func(tick int64) int {
		return int(math.Round(float64(tick) / float64(ticksPerBeat)))
	}

	b := model.NewBuilder()
	tempoSet := false
	for _, track := range s.Tracks {
		var currentTick int64
		programs := make(map[uint8]int)
		held := make(map[noteKey]pressed)
		release := func(k noteKey) {
			p, ok := held[k]
			if !ok {
				return
			}
			delete(held, k)
			start := beatOf(p.tick)
			end := max(beatOf(currentTick), start+1)
			b.AddNote(start, end, p.instrument, int(k.key), int(p.velocity))
		}

		for _, ev := range track {
			currentTick += int64(ev.Delta)
			msg := ev.Message

			// Tempo meta message (FF 51 03 tt tt tt)
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				micros := int(msg[3])<<16 | int(msg[4])<<8 | int(msg[5])
				if micros > 0 && !tempoSet {
					b.SetTempo(micros)
					tempoSet = true
				}
				continue
			}

			// Program change (0xCn pp)
			if len(msg) >= 2 && msg[0] >= 0xC0 && msg[0] <= 0xCF {
				programs[msg[0]&0x0F] = int(msg[1]) + 1
				continue
			}

			var channel, key, velocity uint8
			switch {
			case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				if channel == percussion {
					continue
				}
				instrument := programs[channel]
				if instrument == 0 {
					instrument = model.MinInstrument
				}
				// a retrigger ends the note still held on that key
				k := noteKey{channel, key}
				release(k)
				held[k] = pressed{tick: currentTick, velocity: velocity, instrument: instrument}
			case msg.GetNoteOff(&channel, &key, &velocity), msg.GetNoteOn(&channel, &key, &velocity):
				release(noteKey{channel, key})
			}
		}
	}

	c, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build composition: %w", err)
	}
	return c, nil
}
