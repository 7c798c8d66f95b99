package songfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/beatline/pkg/midifile"
	"github.com/james-see/beatline/pkg/model"
	"gopkg.in/yaml.v3"
)

// Document is the structured form of a song, stored as YAML or JSON
type Document struct {
	Tempo   int          `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	Volume  *int         `json:"volume,omitempty" yaml:"volume,omitempty"`
	Notes   []NoteEntry  `json:"notes" yaml:"notes"`
	Repeats []RepeatItem `json:"repeats,omitempty" yaml:"repeats,omitempty"`
}

// NoteEntry is one note spanning [Start, End)
type NoteEntry struct {
	Start      int `json:"start" yaml:"start"`
	End        int `json:"end" yaml:"end"`
	Instrument int `json:"instrument" yaml:"instrument"`
	Pitch      int `json:"pitch" yaml:"pitch"`
	Volume     int `json:"volume" yaml:"volume"`
}

// RepeatItem is a repeat bracket. Without Endings it repeats [Start, End);
// with them Loop is where later passes resume.
type RepeatItem struct {
	Start   int   `json:"start" yaml:"start"`
	End     int   `json:"end,omitempty" yaml:"end,omitempty"`
	Loop    int   `json:"loop,omitempty" yaml:"loop,omitempty"`
	Endings []int `json:"endings,omitempty" yaml:"endings,omitempty,flow"`
}

// Flag builds the repeat flag the item describes
func (r RepeatItem) Flag() (*model.RepeatFlag, error) {
	if len(r.Endings) > 0 {
		return model.NewMultiEndingRepeat(r.Start, r.Loop, r.Endings...)
	}
	return model.NewRepeat(r.Start, r.End)
}

// Composition builds the song the document describes
func (d Document) Composition() (*model.Composition, error) {
	b := model.NewBuilder()
	if d.Volume != nil {
		c, err := model.NewComposition(*d.Volume)
		if err != nil {
			return nil, err
		}
		b = model.NewBuilderFor(c)
	}
	if d.Tempo != 0 {
		b.SetTempo(d.Tempo)
	}
	for _, n := range d.Notes {
		b.AddNote(n.Start, n.End, n.Instrument, n.Pitch, n.Volume)
	}
	for i, r := range d.Repeats {
		f, err := r.Flag()
		if err != nil {
			return nil, fmt.Errorf("repeat %d: %w", i, err)
		}
		b.AddFlag(f)
	}
	return b.Build()
}

// NewDocument captures c as a document
func NewDocument(c *model.Composition) Document {
	volume := int(c.Volume()*100 + 0.5)
	d := Document{Tempo: c.Tempo(), Volume: &volume, Notes: []NoteEntry{}}
	for _, pn := range c.NoteList() {
		d.Notes = append(d.Notes, NoteEntry{
			Start:      pn.Start,
			End:        pn.Start + pn.Note.Duration,
			Instrument: pn.Note.Instrument,
			Pitch:      pn.Note.Rank(),
			Volume:     pn.Note.Volume,
		})
	}
	for _, f := range c.Flags() {
		item := RepeatItem{Start: f.OriginalStart()}
		if loop, ok := f.SkipPoint(); ok {
			item.Loop = loop
			item.Endings = f.Endings()
		} else {
			item.End = f.OriginalEnd()
		}
		d.Repeats = append(d.Repeats, item)
	}
	return d
}

// Decode parses a document as JSON, falling back to YAML
func Decode(data []byte) (Document, error) {
	var d Document
	errJSON := json.Unmarshal(data, &d)
	if errJSON == nil {
		return d, nil
	}
	d = Document{}
	if errYaml := yaml.Unmarshal(data, &d); errYaml != nil {
		return Document{}, fmt.Errorf("%w: not a song document: %v / %v", ErrSyntax, errYaml, errJSON)
	}
	return d, nil
}

// MarshalYAML renders c as a YAML document
func MarshalYAML(c *model.Composition) ([]byte, error) {
	return yaml.Marshal(NewDocument(c))
}

// MarshalJSON renders c as an indented JSON document
func MarshalJSON(c *model.Composition) ([]byte, error) {
	return json.MarshalIndent(NewDocument(c), "", "  ")
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return false
}

func isMIDI(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return true
	}
	return false
}

// Load reads a song from path. .yml, .yaml and .json files are documents,
// .mid and .midi are imported as MIDI and anything else is the line format.
func Load(path string) (*model.Composition, error) {
	if isMIDI(path) {
		return midifile.NewImporter().ReadFile(path)
	}
	if !isDocument(path) {
		return ReadFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read song: %w", err)
	}
	d, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return d.Composition()
}

// Save writes c to path in the format its extension selects
func Save(path string, c *model.Composition) error {
	if isMIDI(path) {
		return midifile.NewExporter().WriteFile(c, path)
	}
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = MarshalJSON(c)
	case ".yml", ".yaml":
		data, err = MarshalYAML(c)
	default:
		var sb strings.Builder
		err = Write(&sb, c)
		data = []byte(sb.String())
	}
	if err != nil {
		return fmt.Errorf("failed to encode song: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
