package model

import (
	"errors"
	"testing"
)

func newTrack(t *testing.T, events ...Sound) *Track {
	t.Helper()
	tr, err := NewTrack(DefaultVolumeScale, 1, events...)
	if err != nil {
		t.Fatalf("NewTrack() error = %v", err)
	}
	return tr
}

func noteOf(t *testing.T, duration int) Sound {
	t.Helper()
	return mustNote(t, C, 4, duration).Sound()
}

// assertTiling checks that every beat of the track is covered by exactly one
// event and that durations add up.
func assertTiling(t *testing.T, tr *Track) {
	t.Helper()
	total := 0
	for _, ev := range tr.events {
		if ev.Duration() <= 0 {
			t.Fatalf("event %v has non-positive duration", ev)
		}
		total += ev.Duration()
	}
	if total != tr.TotalBeats() {
		t.Fatalf("sum of durations = %d, TotalBeats() = %d", total, tr.TotalBeats())
	}
	covered := make([]int, total)
	start := 0
	for _, ev := range tr.events {
		for b := start; b < start+ev.Duration(); b++ {
			covered[b]++
		}
		start += ev.Duration()
	}
	for b, n := range covered {
		if n != 1 {
			t.Fatalf("beat %d covered %d times", b, n)
		}
	}
}

func kinds(tr *Track) []string {
	var out []string
	for _, ev := range tr.events {
		out = append(out, ev.String())
	}
	return out
}

func TestNewTrackValidation(t *testing.T) {
	if _, err := NewTrack(101, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewTrack(101) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewTrack(50, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewTrack(instrument 0) error = %v, want ErrInvalidArgument", err)
	}
	tr, err := NewTrack(50, 7, noteOf(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	if ev, _ := tr.Event(0); ev.Instrument() != 7 {
		t.Errorf("event instrument = %d, want 7", ev.Instrument())
	}
}

func TestInsertAtPadsPastEnd(t *testing.T) {
	tr := newTrack(t)
	if err := tr.InsertAt(noteOf(t, 2), 3); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}
	if tr.TotalBeats() != 5 || tr.Len() != 2 {
		t.Fatalf("track = %v, want rest 3 + note 2", kinds(tr))
	}
	if first, _ := tr.Event(0); !first.IsRest() || first.Duration() != 3 {
		t.Errorf("first event = %v, want rest of length 3", first)
	}

	before := tr.TotalBeats()
	if err := tr.InsertAt(noteOf(t, 4), before); err != nil {
		t.Fatalf("InsertAt(end) error = %v", err)
	}
	if tr.TotalBeats() != before+4 || tr.Len() != 3 {
		t.Errorf("insert at end grew track to %d beats, %d events", tr.TotalBeats(), tr.Len())
	}
	assertTiling(t, tr)
}

func TestInsertAtSplitsRest(t *testing.T) {
	tests := []struct {
		name   string
		beat   int
		length int
		events int
	}{
		{"middle", 3, 2, 4},
		{"start of rest", 1, 2, 3},
		{"end of rest", 6, 2, 3},
		{"whole rest", 1, 7, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTrack(t, noteOf(t, 1), mustRest(t, 7), noteOf(t, 1))
			if err := tr.InsertAt(noteOf(t, tt.length), tt.beat); err != nil {
				t.Fatalf("InsertAt() error = %v", err)
			}
			assertTiling(t, tr)
			if tr.TotalBeats() != 9 {
				t.Errorf("TotalBeats() = %d, want 9", tr.TotalBeats())
			}
			if tr.Len() != tt.events+1 {
				t.Errorf("events = %v", kinds(tr))
			}
			if !tr.StartsAt(tt.beat) || !tr.IsSoundingAt(tt.beat) {
				t.Errorf("no sounding event starts at %d: %v", tt.beat, kinds(tr))
			}
		})
	}
}

func TestInsertAtOverlapLeavesTrackUnchanged(t *testing.T) {
	tr := newTrack(t, noteOf(t, 4), mustRest(t, 2))
	before := tr.Events()

	for _, beat := range []int{0, 2, 3} {
		err := tr.InsertAt(noteOf(t, 1), beat)
		if !errors.Is(err, ErrOverlapConflict) {
			t.Fatalf("InsertAt(%d) error = %v, want ErrOverlapConflict", beat, err)
		}
		var conflict *ConflictError
		if !errors.As(err, &conflict) || conflict.Beat != beat {
			t.Errorf("error %v does not carry beat %d", err, beat)
		}
	}

	after := tr.Events()
	if len(before) != len(after) {
		t.Fatalf("events changed from %v to %v", before, after)
	}
	for i := range before {
		if !before[i].Equal(after[i]) {
			t.Errorf("event %d changed from %v to %v", i, before[i], after[i])
		}
	}
}

func TestInsertAtOverextension(t *testing.T) {
	tr := newTrack(t, noteOf(t, 1), mustRest(t, 2), noteOf(t, 1))
	err := tr.InsertAt(noteOf(t, 3), 1)
	if !errors.Is(err, ErrOverextension) {
		t.Fatalf("InsertAt() error = %v, want ErrOverextension", err)
	}
	if tr.Len() != 3 || tr.TotalBeats() != 4 {
		t.Errorf("track mutated after failed insert: %v", kinds(tr))
	}
}

func TestInsertAtGrowsIntoTrailingRest(t *testing.T) {
	tr := newTrack(t, noteOf(t, 1), mustRest(t, 2))
	if err := tr.InsertAt(noteOf(t, 5), 2); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}
	assertTiling(t, tr)
	if tr.TotalBeats() != 7 {
		t.Errorf("TotalBeats() = %d, want 7", tr.TotalBeats())
	}
}

func TestInsertAtSpansSplitRests(t *testing.T) {
	tr := newTrack(t, mustRest(t, 2), mustRest(t, 2), noteOf(t, 1))
	if err := tr.InsertAt(noteOf(t, 3), 1); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}
	assertTiling(t, tr)
	if tr.TotalBeats() != 5 || tr.Len() != 3 {
		t.Errorf("track = %v", kinds(tr))
	}
}

func TestTilingAfterManyInserts(t *testing.T) {
	tr := newTrack(t)
	inserts := []struct{ beat, length int }{
		{10, 2}, {0, 1}, {4, 3}, {2, 1}, {8, 2}, {13, 1}, {20, 4},
	}
	for _, in := range inserts {
		if err := tr.InsertAt(noteOf(t, in.length), in.beat); err != nil {
			t.Fatalf("InsertAt(%d) error = %v", in.beat, err)
		}
		assertTiling(t, tr)
	}
	for _, in := range inserts {
		if !tr.IsSoundingAt(in.beat) {
			t.Errorf("nothing sounding at %d", in.beat)
		}
	}
}

func TestEventIndexAt(t *testing.T) {
	tr := newTrack(t, noteOf(t, 2), mustRest(t, 3), noteOf(t, 1))
	tests := []struct{ beat, index int }{
		{0, 0}, {1, 0}, {2, 1}, {4, 1}, {5, 2}, {6, 3}, {40, 3}, {-1, -1},
	}
	for _, tt := range tests {
		if got := tr.EventIndexAt(tt.beat); got != tt.index {
			t.Errorf("EventIndexAt(%d) = %d, want %d", tt.beat, got, tt.index)
		}
	}
	if tr.StartOf(2) != 5 {
		t.Errorf("StartOf(2) = %d, want 5", tr.StartOf(2))
	}
}

func TestIsSoundingAt(t *testing.T) {
	empty := newTrack(t)
	if empty.IsSoundingAt(0) {
		t.Error("empty track should not be sounding at 0")
	}
	tr := newTrack(t, mustRest(t, 2), noteOf(t, 2))
	want := []bool{false, false, true, true, false}
	for beat, w := range want {
		if got := tr.IsSoundingAt(beat); got != w {
			t.Errorf("IsSoundingAt(%d) = %v, want %v", beat, got, w)
		}
	}
	if !tr.IsFree(0, 2) || tr.IsFree(1, 3) || !tr.IsFree(4, 9) {
		t.Error("IsFree() mismatch")
	}
}

func TestReplaceAt(t *testing.T) {
	tr := newTrack(t, noteOf(t, 2), mustRest(t, 2))

	if err := tr.ReplaceAt(noteOf(t, 2), 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ReplaceAt(mid-event) error = %v, want ErrInvalidArgument", err)
	}
	if err := tr.ReplaceAt(noteOf(t, 3), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ReplaceAt(wrong length) error = %v, want ErrInvalidArgument", err)
	}
	if err := tr.ReplaceAt(noteOf(t, 2), 2); err != nil {
		t.Fatalf("ReplaceAt() error = %v", err)
	}
	if !tr.IsSoundingAt(3) {
		t.Error("replacement did not take")
	}
	assertTiling(t, tr)
}

func TestInsertIndex(t *testing.T) {
	tr := newTrack(t, noteOf(t, 2))
	if err := tr.InsertIndex(mustRest(t, 3), 0); err != nil {
		t.Fatal(err)
	}
	if tr.TotalBeats() != 5 || !tr.IsSoundingAt(3) {
		t.Errorf("InsertIndex() = %v", kinds(tr))
	}
	if err := tr.InsertIndex(noteOf(t, 1), 5); !errors.Is(err, ErrIndex) {
		t.Errorf("InsertIndex(5) error = %v, want ErrIndex", err)
	}
	if _, err := tr.Event(2); !errors.Is(err, ErrIndex) {
		t.Errorf("Event(2) error = %v, want ErrIndex", err)
	}
}

func TestMerge(t *testing.T) {
	tr := newTrack(t, noteOf(t, 1), mustRest(t, 6))
	other := newTrack(t, noteOf(t, 1), mustRest(t, 1), noteOf(t, 2), mustRest(t, 4))

	if err := tr.Merge(2, other); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	assertTiling(t, tr)
	if tr.TotalBeats() != 10 {
		t.Errorf("TotalBeats() = %d, want 10 after trailing rest", tr.TotalBeats())
	}
	for _, beat := range []int{0, 2, 4, 5} {
		if !tr.IsSoundingAt(beat) {
			t.Errorf("nothing sounding at %d: %v", beat, kinds(tr))
		}
	}
}

func TestMergeIsAtomic(t *testing.T) {
	tr := newTrack(t, mustRest(t, 3), noteOf(t, 1))
	other := newTrack(t, noteOf(t, 1), noteOf(t, 1), noteOf(t, 1))

	err := tr.Merge(1, other)
	if !errors.Is(err, ErrOverlapConflict) {
		t.Fatalf("Merge() error = %v, want ErrOverlapConflict", err)
	}
	if tr.Len() != 2 || tr.IsSoundingAt(1) {
		t.Errorf("failed merge mutated the track: %v", kinds(tr))
	}
}

func TestOpenSpan(t *testing.T) {
	tr := newTrack(t, noteOf(t, 2), mustRest(t, 2), noteOf(t, 1))

	if err := tr.OpenSpan(2, 3); err != nil {
		t.Fatal(err)
	}
	if tr.TotalBeats() != 8 || !tr.IsSoundingAt(7) {
		t.Errorf("OpenSpan(boundary) = %v", kinds(tr))
	}
	if err := tr.OpenSpan(3, 1); err != nil {
		t.Fatal(err)
	}
	if tr.TotalBeats() != 9 {
		t.Errorf("OpenSpan(inside rest) = %v", kinds(tr))
	}
	if err := tr.OpenSpan(1, 1); !errors.Is(err, ErrOverlapConflict) {
		t.Errorf("OpenSpan(inside note) error = %v, want ErrOverlapConflict", err)
	}
	assertTiling(t, tr)
}

func TestChangeInstrument(t *testing.T) {
	tr := newTrack(t, noteOf(t, 1), mustRest(t, 1), noteOf(t, 1))
	if err := tr.ChangeInstrument(42); err != nil {
		t.Fatal(err)
	}
	for _, ev := range tr.Events() {
		if ev.Instrument() != 42 {
			t.Errorf("event %v instrument = %d, want 42", ev, ev.Instrument())
		}
		for _, n := range ev.Notes() {
			if n.Instrument != 42 {
				t.Errorf("note %v instrument = %d, want 42", n.Name(), n.Instrument)
			}
		}
	}
	if err := tr.ChangeInstrument(200); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ChangeInstrument(200) error = %v, want ErrInvalidArgument", err)
	}
}
