package textview

import (
	"strings"
	"testing"

	"github.com/james-see/beatline/pkg/model"
)

func TestRenderEmpty(t *testing.T) {
	c, _ := model.NewComposition(100)
	if got := Render(c); got != "\n" {
		t.Errorf("Render() = %q, want a single newline", got)
	}

	silent, _ := model.NewTrack(model.DefaultVolumeScale, 1)
	if err := silent.InsertAt(mustRest(t, 4), 0); err != nil {
		t.Fatal(err)
	}
	c, _ = model.NewComposition(100, silent)
	if got := Render(c); got != "\n" {
		t.Errorf("Render() of rests = %q, want a single newline", got)
	}
}

func mustRest(t *testing.T, d int) model.Sound {
	t.Helper()
	r, err := model.NewRest(d)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRender(t *testing.T) {
	c, err := model.NewBuilder().
		AddNote(0, 2, 1, 48, 100).
		AddNote(1, 2, 1, 52, 100).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"      C4   C#4  D4   D#4  E4  ",
		"    0  X" + strings.Repeat(" ", 23),
		"    1  |" + strings.Repeat(" ", 19) + "X   ",
	}, "\n") + "\n"

	if got := Render(c); got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderRetriggerShowsStart(t *testing.T) {
	c, err := model.NewBuilder().
		AddNote(0, 3, 1, 60, 100).
		AddNote(1, 2, 2, 60, 100).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(Render(c), "\n")
	// header, three rows, trailing empty string
	if len(lines) != 5 {
		t.Fatalf("Render() has %d lines: %q", len(lines), lines)
	}
	if lines[2] != "    1  X   " || lines[3] != "    2  |   " {
		t.Errorf("rows = %q, %q", lines[2], lines[3])
	}
}

func TestRenderRange(t *testing.T) {
	c, err := model.NewBuilder().AddNote(0, 10, 1, 60, 100).AddNote(12, 13, 1, 60, 100).Build()
	if err != nil {
		t.Fatal(err)
	}
	if Length(c) != 13 {
		t.Errorf("Length() = %d, want 13", Length(c))
	}

	out := RenderRange(c, 8, 11, 9)
	want := "      C5  \n    8  |   \n    9> |   \n   10      \n"
	if out != want {
		t.Errorf("RenderRange() = %q, want %q", out, want)
	}
}
