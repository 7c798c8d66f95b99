package model

import (
	"errors"
	"maps"
	"testing"
)

func TestSimpleRepeatAdvance(t *testing.T) {
	f, err := NewRepeat(0, 5)
	if err != nil {
		t.Fatalf("NewRepeat() error = %v", err)
	}

	for beat := 0; beat < 5; beat++ {
		if got := f.Advance(beat); got != beat {
			t.Errorf("Advance(%d) = %d, want unchanged", beat, got)
		}
	}
	if got := f.Advance(5); got != 0 {
		t.Errorf("Advance(5) = %d, want 0", got)
	}
	if f.Repetitions() != 1 {
		t.Errorf("Repetitions() = %d, want 1", f.Repetitions())
	}
	for _, beat := range []int{0, 3, 5, 9} {
		if got := f.Advance(beat); got != beat {
			t.Errorf("exhausted Advance(%d) = %d, want unchanged", beat, got)
		}
	}
	if _, ok := f.CurrentEnd(); ok {
		t.Error("CurrentEnd() should report an exhausted bracket")
	}
	if _, ok := f.CurrentStart(); ok {
		t.Error("CurrentStart() should report an exhausted bracket")
	}
}

func TestMultiEndingSchedule(t *testing.T) {
	f, err := NewMultiEndingRepeat(5, 10, 15, 20)
	if err != nil {
		t.Fatalf("NewMultiEndingRepeat() error = %v", err)
	}

	wantStarts := map[int]int{0: 5, 1: 10, 2: 10}
	wantEnds := map[int]int{0: 15, 1: 20}
	if !maps.Equal(f.Starts(), wantStarts) {
		t.Errorf("Starts() = %v, want %v", f.Starts(), wantStarts)
	}
	if !maps.Equal(f.Ends(), wantEnds) {
		t.Errorf("Ends() = %v, want %v", f.Ends(), wantEnds)
	}
	if skip, ok := f.SkipPoint(); !ok || skip != 10 {
		t.Errorf("SkipPoint() = %d, %v, want 10", skip, ok)
	}

	steps := []struct {
		beat, want, reps int
	}{
		{14, 14, 0},
		{15, 10, 1},
		{19, 19, 1},
		{20, 10, 2},
		{20, 20, 2},
	}
	for _, s := range steps {
		if got := f.Advance(s.beat); got != s.want {
			t.Errorf("Advance(%d) = %d, want %d", s.beat, got, s.want)
		}
		if f.Repetitions() != s.reps {
			t.Errorf("after Advance(%d) Repetitions() = %d, want %d", s.beat, f.Repetitions(), s.reps)
		}
	}
}

func TestCurrentStartEnd(t *testing.T) {
	f, _ := NewMultiEndingRepeat(5, 10, 15, 20)
	if s, _ := f.CurrentStart(); s != 5 {
		t.Errorf("CurrentStart() = %d, want 5", s)
	}
	if e, _ := f.CurrentEnd(); e != 15 {
		t.Errorf("CurrentEnd() = %d, want 15", e)
	}
	f.SetRepetitions(1)
	if s, _ := f.CurrentStart(); s != 10 {
		t.Errorf("CurrentStart() = %d, want 10", s)
	}
	if e, _ := f.CurrentEnd(); e != 20 {
		t.Errorf("CurrentEnd() = %d, want 20", e)
	}
	f.Reset()
	if f.Repetitions() != 0 {
		t.Errorf("Reset() left %d repetitions", f.Repetitions())
	}
}

func TestRepeatConstructionErrors(t *testing.T) {
	if _, err := NewRepeat(5, 4); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewRepeat(5, 4) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewMultiEndingRepeat(5, 6, 4); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ending before start error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewMultiEndingRepeat(0, 2, 8, 6); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("decreasing endings error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewMultiEndingRepeat(0, 2); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no endings error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewRepeat(3, 3); err != nil {
		t.Errorf("NewRepeat(3, 3) error = %v", err)
	}
}

func TestFlagRange(t *testing.T) {
	tests := []struct {
		name             string
		flag             func() (*RepeatFlag, error)
		earliest, latest int
	}{
		{"simple", func() (*RepeatFlag, error) { return NewRepeat(0, 5) }, 0, 5},
		{"one ending", func() (*RepeatFlag, error) { return NewMultiEndingRepeat(1, 5, 10) }, 1, 10},
		{"two endings", func() (*RepeatFlag, error) { return NewMultiEndingRepeat(5, 10, 15, 20) }, 5, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.flag()
			if err != nil {
				t.Fatal(err)
			}
			if f.EarliestBeat() != tt.earliest || f.LatestBeat() != tt.latest {
				t.Errorf("range = %v, want [%d, %d]", f.Range(), tt.earliest, tt.latest)
			}
		})
	}
}

func TestAddStartEndKeepExisting(t *testing.T) {
	f, _ := NewRepeat(0, 4)
	f.AddStart(9, 0)
	f.AddEnd(9, 0)
	if f.OriginalStart() != 0 || f.OriginalEnd() != 4 {
		t.Errorf("existing entries overwritten: %v", f)
	}

	f.AddEnd(12, 1)
	f.AddStart(6, 2)
	f.Advance(4)
	if got := f.Advance(12); got != 6 {
		t.Errorf("second pass Advance(12) = %d, want 6", got)
	}
}
