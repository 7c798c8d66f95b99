package model

import (
	"errors"
	"testing"
)

func TestBuilder(t *testing.T) {
	f, _ := NewRepeat(0, 2)
	c, err := NewBuilder().
		SetTempo(400000).
		AddNote(0, 2, 1, 60, 90).
		AddNote(2, 3, 1, 62, 90).
		AddFlag(f).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if c.Tempo() != 400000 || c.Volume() != 1 {
		t.Errorf("tempo %d volume %v", c.Tempo(), c.Volume())
	}
	if len(c.NoteList()) != 2 || len(c.Flags()) != 1 {
		t.Errorf("built composition = %v", c)
	}
}

func TestBuilderErrorSticks(t *testing.T) {
	b := NewBuilder().SetTempo(-1).AddNote(0, 1, 1, 60, 90)
	if _, err := b.Build(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Build() error = %v, want ErrInvalidArgument", err)
	}
	if len(b.c.Tracks()) != 0 {
		t.Error("calls after an error should be ignored")
	}
}
