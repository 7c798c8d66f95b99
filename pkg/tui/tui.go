// Package tui provides a terminal editor and player for beatline songs
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/beatline/pkg/model"
	"github.com/james-see/beatline/pkg/playback"
	"github.com/james-see/beatline/pkg/songfile"
	"github.com/james-see/beatline/pkg/textview"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	gridStyle = lipgloss.NewStyle().
			Foreground(silverGray)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateEdit State = iota
	StatePlaying
	StateFilePicker
	StateSaving
)

// DefaultInterval is the time one beat is shown during playback
const DefaultInterval = 200 * time.Millisecond

const defaultRows = 16

// Model represents the TUI model
type Model struct {
	state      State
	comp       *model.Composition
	cursor     *playback.Cursor
	input      textinput.Model
	filePicker filepicker.Model
	spinner    spinner.Model
	interval   time.Duration
	mark       int
	run        int
	path       string
	status     string
	err        error
	width      int
	height     int
}

// tickMsg carries the play run it belongs to so ticks from a paused run die
type tickMsg struct {
	run int
}

type loadedMsg struct {
	path string
	comp *model.Composition
	err  error
}

type savedMsg struct {
	path string
	err  error
}

// New creates a model editing c. A zero interval means DefaultInterval.
func New(c *model.Composition, interval time.Duration) Model {
	if c == nil {
		c, _ = model.NewComposition(100)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".txt", ".yaml", ".yml", ".json", ".mid", ".midi"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	in := textinput.New()
	in.Placeholder = "start end instrument pitch volume"
	in.Prompt = "note> "
	in.CharLimit = 64

	return Model{
		state:      StateEdit,
		comp:       c,
		cursor:     playback.NewCursor(c),
		input:      in,
		filePicker: fp,
		spinner:    s,
		interval:   interval,
		mark:       textview.NoMark,
	}
}

// WithPath sets the file the song was read from. Saving writes next to it.
func (m Model) WithPath(path string) Model {
	m.path = path
	return m
}

// Composition is the song being edited
func (m Model) Composition() *model.Composition {
	return m.comp
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

func (m Model) tick() tea.Cmd {
	run := m.run
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{run: run} })
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// the file picker needs to see every message while it is open
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateEdit
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.state = StateEdit
			return m, load(path)
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)

	case tickMsg:
		if m.state != StatePlaying || msg.run != m.run {
			return m, nil
		}
		beat, ok := m.cursor.Next()
		if !ok {
			m.state = StateEdit
			m.mark = textview.NoMark
			m.status = "end of song"
			return m, nil
		}
		m.mark = beat
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.comp = msg.comp
		m.cursor = playback.NewCursor(msg.comp)
		m.path = msg.path
		m.mark = textview.NoMark
		m.err = nil
		m.status = fmt.Sprintf("opened %s", filepath.Base(msg.path))
		return m, nil

	case savedMsg:
		m.state = StateEdit
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("wrote %s", filepath.Base(msg.path))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.err = nil
		n, err := songfile.ParseNote(m.input.Value())
		if err == nil {
			err = m.comp.PlaceNote(n.Start, n.End, n.Instrument, n.Pitch, n.Volume)
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.cursor.Sync()
		m.input.Reset()
		m.status = fmt.Sprintf("placed %d-%d pitch %d", n.Start, n.End, n.Pitch)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// the save command reads the composition until savedMsg arrives
	if m.state == StateSaving {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "i":
		m.state = StateEdit
		return m, m.input.Focus()
	case " ":
		if m.state == StatePlaying {
			m.state = StateEdit
			m.status = fmt.Sprintf("paused at beat %d", m.cursor.Beat())
			return m, nil
		}
		if m.cursor.Beat() >= m.cursor.Length() {
			m.cursor.Reset()
		}
		m.state = StatePlaying
		m.run++
		m.err = nil
		m.status = "playing"
		return m, m.tick()
	case "home", "r":
		m.cursor.Reset()
		m.mark = textview.NoMark
		m.status = "rewound"
	case "right", "l":
		if m.state != StatePlaying {
			m.seek(m.cursor.Beat() + 1)
		}
	case "left", "h":
		if m.state != StatePlaying && m.cursor.Beat() > 0 {
			m.seek(m.cursor.Beat() - 1)
		}
	case "o":
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "s":
		m.state = StateSaving
		path := m.path
		if path == "" {
			path = m.outputPath(".txt")
		}
		return m, tea.Batch(m.spinner.Tick, save(m.comp, path))
	case "e":
		m.state = StateSaving
		return m, tea.Batch(m.spinner.Tick, save(m.comp, m.outputPath(".mid")))
	}
	return m, nil
}

func (m *Model) seek(beat int) {
	if err := m.cursor.Seek(beat); err != nil {
		m.err = err
		return
	}
	m.mark = beat
}

func (m Model) outputPath(ext string) string {
	if m.path == "" {
		return "beatline" + ext
	}
	return strings.TrimSuffix(m.path, filepath.Ext(m.path)) + ext
}

func load(path string) tea.Cmd {
	return func() tea.Msg {
		c, err := songfile.Load(path)
		return loadedMsg{path: path, comp: c, err: err}
	}
}

func save(c *model.Composition, path string) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{path: path, err: songfile.Save(path, c)}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	default:
		s.WriteString(m.viewSong())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("space: play/pause • ←/→: step • home: rewind • tab: add note • o: open • s: save • e: export midi • q: quit"))

	return s.String()
}

func (m Model) rows() int {
	if m.height > 20 {
		return m.height - 20
	}
	return defaultRows
}

func (m Model) viewSong() string {
	var s strings.Builder

	length := m.cursor.Length()
	focus := m.cursor.Beat()
	if m.mark != textview.NoMark {
		focus = m.mark
	}
	title := fmt.Sprintf(" BEAT %d / %d ", focus, length)
	if m.state == StatePlaying {
		title = fmt.Sprintf(" PLAYING %d / %d ", focus, length)
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	if length == 0 {
		s.WriteString(gridStyle.Render("no notes yet"))
	} else {
		from := max(0, focus-m.rows()/4)
		s.WriteString(gridStyle.Render(textview.RenderRange(m.comp, from, from+m.rows(), m.mark)))
	}
	s.WriteString("\n")
	s.WriteString(m.input.View())

	switch {
	case m.err != nil:
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
	case m.state == StateSaving:
		s.WriteString("\n")
		s.WriteString(statusStyle.Render(fmt.Sprintf("%s saving...", m.spinner.View())))
	case m.status != "":
		s.WriteString("\n")
		s.WriteString(successStyle.Render(m.status))
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" OPEN SONG "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to song"))

	return s.String()
}

func asciiLogo() string {
	logo := `
   _                _   _ _
  | |__   ___  __ _| |_| (_)_ __   ___
  | '_ \ / _ \/ _' | __| | | '_ \ / _ \
  | |_) |  __/ (_| | |_| | | | | |  __/
  |_.__/ \___|\__,_|\__|_|_|_| |_|\___|
`
	return lipgloss.NewStyle().Foreground(acidGreen).Render(logo)
}

// Run starts the TUI application on c
func Run(c *model.Composition, path string, interval time.Duration) error {
	p := tea.NewProgram(New(c, interval).WithPath(path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
