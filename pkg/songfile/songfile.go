// Package songfile reads and writes the plain text song format:
//
//	tempo 200000
//	note 0 2 1 64 72
//	repeat 0 8
//	repeat 4 8 12 16
//
// note fields are start, end, instrument, MIDI pitch and volume. A repeat
// with two numbers is a simple bracket; with more it is start, loop start
// and then the endings.
package songfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/james-see/beatline/pkg/model"
)

// ErrSyntax marks a line that cannot be parsed
var ErrSyntax = errors.New("syntax error")

// Parse reads a song from r
func Parse(r io.Reader) (*model.Composition, error) {
	b := model.NewBuilder()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := apply(b, fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := b.Build(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read song: %w", err)
	}
	return b.Build()
}

// ReadFile parses the song at path
func ReadFile(path string) (*model.Composition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open song: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func apply(b *model.Builder, fields []string) error {
	args, err := ints(fields[1:])
	if err != nil {
		return err
	}
	switch fields[0] {
	case "tempo":
		if len(args) != 1 {
			return fmt.Errorf("%w: tempo takes 1 value, got %d", ErrSyntax, len(args))
		}
		b.SetTempo(args[0])
	case "note":
		if len(args) != 5 {
			return fmt.Errorf("%w: note takes 5 values, got %d", ErrSyntax, len(args))
		}
		b.AddNote(args[0], args[1], args[2], args[3], args[4])
	case "repeat":
		f, err := Repeat(args)
		if err != nil {
			return err
		}
		b.AddFlag(f)
	default:
		return fmt.Errorf("%w: unknown directive %q", ErrSyntax, fields[0])
	}
	return nil
}

// Repeat builds a flag from "start end" or "start loop end..." values
func Repeat(args []int) (*model.RepeatFlag, error) {
	switch {
	case len(args) == 2:
		return model.NewRepeat(args[0], args[1])
	case len(args) > 2:
		return model.NewMultiEndingRepeat(args[0], args[1], args[2:]...)
	default:
		return nil, fmt.Errorf("%w: repeat takes at least 2 values, got %d", ErrSyntax, len(args))
	}
}

func separator(r rune) bool {
	return r == ':' || r == ',' || unicode.IsSpace(r)
}

// ParseNote reads "start end instrument pitch volume". Colons may stand in
// for the spaces.
func ParseNote(text string) (NoteEntry, error) {
	args, err := ints(strings.FieldsFunc(text, separator))
	if err != nil {
		return NoteEntry{}, err
	}
	if len(args) != 5 {
		return NoteEntry{}, fmt.Errorf("%w: a note needs start, end, instrument, pitch and volume, got %q", ErrSyntax, text)
	}
	return NoteEntry{Start: args[0], End: args[1], Instrument: args[2], Pitch: args[3], Volume: args[4]}, nil
}

// ParseRepeat reads "start:end" or "start:loop:end1,end2"
func ParseRepeat(text string) (*model.RepeatFlag, error) {
	args, err := ints(strings.FieldsFunc(text, separator))
	if err != nil {
		return nil, err
	}
	return Repeat(args)
}

func ints(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrSyntax, f)
		}
		out[i] = v
	}
	return out, nil
}

// Write emits c in the song format. Parsing the output rebuilds the same
// notes and flags.
func Write(w io.Writer, c *model.Composition) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "tempo %d\n", c.Tempo())
	for _, pn := range c.NoteList() {
		n := pn.Note
		fmt.Fprintf(bw, "note %d %d %d %d %d\n", pn.Start, pn.Start+n.Duration, n.Instrument, n.Rank(), n.Volume)
	}
	for _, f := range c.Flags() {
		if loop, ok := f.SkipPoint(); ok {
			parts := []string{strconv.Itoa(f.OriginalStart()), strconv.Itoa(loop)}
			for _, end := range f.Endings() {
				parts = append(parts, strconv.Itoa(end))
			}
			fmt.Fprintf(bw, "repeat %s\n", strings.Join(parts, " "))
			continue
		}
		fmt.Fprintf(bw, "repeat %d %d\n", f.OriginalStart(), f.OriginalEnd())
	}
	return bw.Flush()
}
