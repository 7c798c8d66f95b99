package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/beatline/pkg/model"
	"github.com/james-see/beatline/pkg/songfile"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return got, cmd
}

func song(t *testing.T, flags ...*model.RepeatFlag) *model.Composition {
	t.Helper()
	b := model.NewBuilder().AddNote(0, 2, 1, 60, 90).AddNote(2, 4, 1, 64, 90)
	for _, f := range flags {
		b.AddFlag(f)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestPlaceNoteFromInput(t *testing.T) {
	m := New(nil, 0)
	m, _ = update(t, m, key("tab"))
	if !m.input.Focused() {
		t.Fatal("tab should focus the note input")
	}
	m.input.SetValue("0 4 1 60 90")
	m, _ = update(t, m, key("enter"))

	if m.err != nil {
		t.Fatalf("enter error = %v", m.err)
	}
	if n := len(m.Composition().NoteList()); n != 1 {
		t.Errorf("NoteList() has %d notes, want 1", n)
	}
	if m.cursor.Length() != 4 {
		t.Errorf("cursor length = %d, want 4", m.cursor.Length())
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	m, _ = update(t, m, key("esc"))
	if m.input.Focused() {
		t.Error("esc should blur the note input")
	}
}

func TestPlaceNoteErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"0 4 1", songfile.ErrSyntax},
		{"0 4 1 300 90", model.ErrInvalidArgument},
		{"4 2 1 60 90", model.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, _ := update(t, New(nil, 0), key("i"))
			m.input.SetValue(tt.in)
			m, _ = update(t, m, key("enter"))
			if !errors.Is(m.err, tt.want) {
				t.Fatalf("error = %v, want %v", m.err, tt.want)
			}
			if !strings.Contains(m.View(), m.err.Error()) {
				t.Error("View() should show the error")
			}
		})
	}
}

func TestPlayback(t *testing.T) {
	f, _ := model.NewRepeat(0, 2)
	m := New(song(t, f), 0)

	m, cmd := update(t, m, key(" "))
	if m.state != StatePlaying || cmd == nil {
		t.Fatalf("space should start playback, state = %v", m.state)
	}
	if !strings.Contains(m.View(), "PLAYING") {
		t.Error("View() should show the playing title")
	}

	var played []int
	for i := 0; i < 10 && m.state == StatePlaying; i++ {
		m, _ = update(t, m, tickMsg{run: m.run})
		if m.state == StatePlaying {
			played = append(played, m.mark)
		}
	}
	want := []int{0, 1, 0, 1, 2, 3}
	if len(played) != len(want) {
		t.Fatalf("played %v, want %v", played, want)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Fatalf("played %v, want %v", played, want)
		}
	}
	if m.status != "end of song" {
		t.Errorf("status = %q", m.status)
	}
}

func TestPauseDropsStaleTicks(t *testing.T) {
	m := New(song(t), 0)
	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, tickMsg{run: m.run})
	stale := m.run

	m, _ = update(t, m, key(" "))
	if m.state != StateEdit {
		t.Fatalf("second space should pause, state = %v", m.state)
	}
	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, tickMsg{run: stale})
	if m.cursor.Beat() != 1 {
		t.Errorf("stale tick moved the cursor to %d", m.cursor.Beat())
	}
}

func TestSeekAndRewind(t *testing.T) {
	m := New(song(t), 0)
	m, _ = update(t, m, key("right"))
	m, _ = update(t, m, key("l"))
	if m.cursor.Beat() != 2 || m.mark != 2 {
		t.Errorf("beat = %d mark = %d, want 2", m.cursor.Beat(), m.mark)
	}
	m, _ = update(t, m, key("h"))
	if m.cursor.Beat() != 1 {
		t.Errorf("beat = %d, want 1", m.cursor.Beat())
	}
	m, _ = update(t, m, key("home"))
	if m.cursor.Beat() != 0 || m.status != "rewound" {
		t.Errorf("home left beat %d status %q", m.cursor.Beat(), m.status)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	m := New(song(t), 0).WithPath(filepath.Join(dir, "song.yaml"))

	if got := m.outputPath(".mid"); got != filepath.Join(dir, "song.mid") {
		t.Errorf("outputPath() = %q", got)
	}
	m, _ = update(t, m, key("s"))
	if m.state != StateSaving {
		t.Fatalf("s should start saving, state = %v", m.state)
	}

	path := filepath.Join(dir, "song.yaml")
	m, _ = update(t, m, save(m.Composition(), path)())
	if m.err != nil || m.status != "wrote song.yaml" || m.state != StateEdit {
		t.Fatalf("after save: err = %v status = %q", m.err, m.status)
	}

	fresh := New(nil, 0)
	fresh, _ = update(t, fresh, load(path)())
	if fresh.err != nil {
		t.Fatalf("load error = %v", fresh.err)
	}
	if len(fresh.Composition().NoteList()) != 2 || fresh.cursor.Length() != 4 {
		t.Errorf("loaded %v", fresh.Composition())
	}

	fresh, _ = update(t, fresh, load(filepath.Join(dir, "missing.txt"))())
	if fresh.err == nil {
		t.Error("loading a missing file should set an error")
	}
}

func TestViewEmpty(t *testing.T) {
	view := New(nil, 0).View()
	if !strings.Contains(view, "no notes yet") || !strings.Contains(view, "BEAT 0 / 0") {
		t.Errorf("View() = %s", view)
	}
}

func TestKeysWaitForSave(t *testing.T) {
	m := New(song(t), 0).WithPath(filepath.Join(t.TempDir(), "song.txt"))
	m, _ = update(t, m, key("s"))

	for _, k := range []string{"tab", "i", " ", "home", "right", "o", "e"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, key(k))
		if m.state != StateSaving || m.input.Focused() || cmd != nil {
			t.Fatalf("%q during save: state = %v, focused = %v", k, m.state, m.input.Focused())
		}
	}
	if m.cursor.Beat() != 0 {
		t.Errorf("cursor moved to %d during save", m.cursor.Beat())
	}

	m, _ = update(t, m, savedMsg{path: m.path})
	m, _ = update(t, m, key("tab"))
	if !m.input.Focused() {
		t.Error("tab should focus the input once the save is done")
	}
}
