package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/james-see/beatline/pkg/model"
	"github.com/james-see/beatline/pkg/playback"
	"github.com/james-see/beatline/pkg/songfile"
)

// songOptions are the flags every note-taking subcommand shares
type songOptions struct {
	file    string
	tempo   int
	notes   []string
	repeats []string
}

// composition loads --file when given, then applies --tempo, --note and
// --repeat on top
func (o songOptions) composition() (*model.Composition, error) {
	var c *model.Composition
	var err error
	if o.file != "" {
		c, err = songfile.Load(o.file)
	} else {
		c, err = model.NewComposition(100)
	}
	if err != nil {
		return nil, err
	}

	b := model.NewBuilderFor(c)
	if o.tempo > 0 {
		b.SetTempo(o.tempo)
	}
	for _, arg := range o.notes {
		n, err := songfile.ParseNote(arg)
		if err != nil {
			return nil, fmt.Errorf("--note %s: %w", arg, err)
		}
		if _, err := b.AddNote(n.Start, n.End, n.Instrument, n.Pitch, n.Volume).Build(); err != nil {
			return nil, fmt.Errorf("--note %s: %w", arg, err)
		}
	}
	for _, arg := range o.repeats {
		f, err := songfile.ParseRepeat(arg)
		if err != nil {
			return nil, fmt.Errorf("--repeat %s: %w", arg, err)
		}
		if _, err := b.AddFlag(f).Build(); err != nil {
			return nil, fmt.Errorf("--repeat %s: %w", arg, err)
		}
	}
	return b.Build()
}

// outputFor picks -o when set, else input with its extension swapped
func outputFor(output, input, ext string) string {
	if output != "" {
		return output
	}
	if input == "" {
		return "beatline" + ext
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// writeTrace prints one line per unrolled beat: output beat, source beat and
// the notes starting there
func writeTrace(w io.Writer, c *model.Composition, maxBeats int) error {
	steps, err := playback.Timeline(c, maxBeats)
	if err != nil {
		return err
	}
	for _, step := range steps {
		names := make([]string, len(step.Starts))
		for i, s := range step.Starts {
			names[i] = s.Note.Name()
		}
		line := fmt.Sprintf("%5d <- %-5d", step.Output, step.Source)
		if len(names) > 0 {
			line += " " + strings.Join(names, " ")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}
