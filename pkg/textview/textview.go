// Package textview renders a composition as a console grid: one column per
// pitch between the lowest and highest note, one row per beat. A note start
// is drawn as X and each beat it sustains as |.
package textview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/james-see/beatline/pkg/model"
)

const columnWidth = 5

// NoMark disables the cursor marker in RenderRange
const NoMark = -1

// Render draws every beat of c. A composition with no notes renders as a
// single newline.
func Render(c *model.Composition) string {
	return RenderRange(c, 0, -1, NoMark)
}

// Length is the number of rows Render draws
func Length(c *model.Composition) int {
	length := 0
	for _, pn := range c.NoteList() {
		length = max(length, pn.Start+pn.Note.Duration)
	}
	return length
}

// RenderRange draws rows [from, to). A negative to runs to the last
// sounding beat. The row for mark carries a > after its beat number.
func RenderRange(c *model.Composition, from, to, mark int) string {
	lowest, ok := c.LowestNote()
	if !ok {
		return "\n"
	}
	highest, _ := c.HighestNote()
	low, high := lowest.Rank(), highest.Rank()
	width := (high - low + 1) * columnWidth

	length := Length(c)
	if to < 0 || to > length {
		to = length
	}
	from = max(0, from)

	rows := make([][]byte, max(0, to-from))
	for i := range rows {
		rows[i] = []byte(strings.Repeat(" ", width))
	}
	for _, pn := range c.NoteList() {
		col := (pn.Note.Rank()-low)*columnWidth + 1
		for beat := pn.Start + 1; beat < pn.Start+pn.Note.Duration; beat++ {
			if beat >= from && beat < to && rows[beat-from][col] != 'X' {
				rows[beat-from][col] = '|'
			}
		}
		if pn.Start >= from && pn.Start < to {
			rows[pn.Start-from][col] = 'X'
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", columnWidth))
	for rank := low; rank <= high; rank++ {
		b.WriteString(center(model.PitchClass(rank%model.PitchClasses).String() + strconv.Itoa(rank/model.PitchClasses)))
	}
	for i, row := range rows {
		sep := ' '
		if from+i == mark {
			sep = '>'
		}
		fmt.Fprintf(&b, "\n%*d%c%s", columnWidth, from+i, sep, row)
	}
	b.WriteString("\n")
	return b.String()
}

func center(name string) string {
	pad := max(0, (columnWidth-len(name))/2)
	s := strings.Repeat(" ", pad) + name
	if len(s) < columnWidth {
		s += strings.Repeat(" ", columnWidth-len(s))
	}
	return s
}
