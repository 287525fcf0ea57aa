// Package tui provides a terminal user interface for urftunes
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/urftunes/pkg/composer"
	"github.com/james-see/urftunes/pkg/converter"
	"github.com/james-see/urftunes/pkg/scheduler"
)

// Ultra Rapid Fire color scheme
var (
	urfGold   = lipgloss.Color("#F0C419")
	urfOrange = lipgloss.Color("#FF8C1A")
	urfBlue   = lipgloss.Color("#5AC8FA")
	darkGray  = lipgloss.Color("#333333")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(urfGold).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(urfBlue).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(urfGold).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(urfOrange).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(urfGold).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(urfGold).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateComposing
	StatePreview
	StateWriting
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	FromKind    string
	Types       []string
}

var (
	seedTypes = []string{".json", ".yaml", ".yml"}
	songTypes = []string{".json", ".yaml", ".yml", ".msgpack"}
)

var menuItems = []MenuItem{
	{Title: "COMPOSE", Description: "Compose a song from a mastery file", FromKind: "seed", Types: seedTypes},
	{Title: "OPEN SONG", Description: "Load a previously exported song", FromKind: "song", Types: songTypes},
	{Title: "Exit", Description: "Exit the application"},
}

// chord numerals for scale degrees 0..6 in C major
var numerals = []string{"I", "ii", "iii", "IV", "V", "vi", "vii°"}

// Model represents the TUI model
type Model struct {
	conv         *converter.Converter
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	source       MenuItem
	selectedFile string
	doc          *converter.Document
	formatIndex  int
	result       *converter.ConversionResult
	err          error
	width        int
	height       int
}

// composedMsg carries the song built or loaded from the selected file.
type composedMsg struct {
	doc *converter.Document
	err error
}

// writtenMsg signals the export finished.
type writtenMsg struct {
	result *converter.ConversionResult
	err    error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New(conv *converter.Converter) Model {
	fp := filepicker.New()
	fp.AllowedTypes = seedTypes
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(urfGold)

	return Model{
		conv:        conv,
		state:       StateMenu,
		filePicker:  fp,
		spinner:     s,
		formatIndex: formatIndex(converter.FormatMIDI),
	}
}

func formatIndex(f converter.Format) int {
	for i, candidate := range converter.Formats {
		if candidate == f {
			return i
		}
	}
	return 0
}

// Format is the export format currently selected in the preview.
func (m Model) Format() converter.Format {
	return converter.Formats[m.formatIndex]
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs every message, not just keys.
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateComposing
			return m, tea.Batch(m.spinner.Tick, m.compose())
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
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StatePreview:
			return m.updatePreview(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case composedMsg:
		if msg.err != nil {
			m.state = StateResult
			m.err = msg.err
			return m, nil
		}
		m.state = StatePreview
		m.doc = msg.doc
		return m, nil

	case writtenMsg:
		m.state = StateResult
		m.result = msg.result
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.source = menuItems[m.menuIndex]
		m.filePicker.AllowedTypes = m.source.Types
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.formatIndex = (m.formatIndex + len(converter.Formats) - 1) % len(converter.Formats)
	case "right", "l", "tab":
		m.formatIndex = (m.formatIndex + 1) % len(converter.Formats)
	case "enter", "w":
		m.state = StateWriting
		return m, tea.Batch(m.spinner.Tick, m.write())
	case "esc":
		return m.reset(), nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		return m.reset(), nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) reset() Model {
	m.state = StateMenu
	m.err = nil
	m.doc = nil
	m.result = nil
	m.selectedFile = ""
	return m
}

// outputPath picks a file next to input, avoiding overwriting it when the
// output format has the same extension.
func outputPath(input string, format converter.Format) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	out := base + format.Extension()
	if out == input {
		out = base + ".song" + format.Extension()
	}
	return out
}

// compose builds (seed) or loads (song) the selected file.
func (m Model) compose() tea.Cmd {
	input := m.selectedFile
	conv := m.conv
	return func() tea.Msg {
		data, err := os.ReadFile(input)
		if err != nil {
			return composedMsg{err: err}
		}
		doc, err := conv.Decode(data, converter.DetectFormat(input))
		return composedMsg{doc: doc, err: err}
	}
}

func (m Model) write() tea.Cmd {
	doc := m.doc
	format := m.Format()
	output := outputPath(m.selectedFile, format)
	conv := m.conv
	return func() tea.Msg {
		result, err := conv.Export(doc, format)
		if err != nil {
			return writtenMsg{err: err}
		}
		if err := os.WriteFile(output, result.Data, 0644); err != nil {
			return writtenMsg{err: err}
		}
		result.Filename = output
		return writtenMsg{result: result}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateComposing:
		s.WriteString(m.viewBusy(" COMPOSING ", "Composing"))
	case StatePreview:
		s.WriteString(m.viewPreview())
	case StateWriting:
		s.WriteString(m.viewBusy(" WRITING ", "Writing "+string(m.Format())))
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" WHAT SHALL WE PLAY "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(urfOrange).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(m.source.FromKind))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewBusy(title, verb string) string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s %s %s...\n", m.spinner.View(), verb, filepath.Base(m.selectedFile)))

	return boxStyle.Render(s.String())
}

func (m Model) viewPreview() string {
	var s strings.Builder
	song := m.doc.Song

	s.WriteString(titleStyle.Render(" PREVIEW "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("File:    %s\n", filepath.Base(m.selectedFile)))
	s.WriteString(fmt.Sprintf("Tempo:   %.1f bpm\n", m.doc.Tempo.BeatsPerMinute))
	s.WriteString(fmt.Sprintf("Form:    %s\n", formString(song.Form)))

	beats := scheduler.NewTimeline(song).BodyBeats()
	s.WriteString(fmt.Sprintf("Length:  %d bars (%.0fs)\n\n",
		int(beats)/song.BeatsPerBar, beats*m.doc.Tempo.SecondsPerBeat()))

	for i, seg := range song.Segments {
		s.WriteString(fmt.Sprintf("%c  %-16s %3d notes  %s\n",
			'A'+i, progression(seg.Chords), len(seg.MelodyNotes()), backgroundList(seg.Backgrounds)))
	}
	s.WriteString(fmt.Sprintf("End  %s\n\n", progression(song.Ending.Chords)))

	s.WriteString("Export: ")
	for i, f := range converter.Formats {
		if i == m.formatIndex {
			s.WriteString(selectedStyle.Render("[" + string(f) + "]"))
		} else {
			s.WriteString(menuStyle.Render(string(f)))
		}
	}
	s.WriteString("\n")
	s.WriteString(statusStyle.Render("  → " + filepath.Base(outputPath(m.selectedFile, m.Format()))))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("←/→: format • enter: write • esc: back to menu"))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Song written!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		if m.result != nil {
			s.WriteString(fmt.Sprintf("Output: %s (%d bytes of %s)", filepath.Base(m.result.Filename), len(m.result.Data), m.result.Format))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

// formString renders a form as section letters, e.g. "AABACABA".
func formString(form []int) string {
	var b strings.Builder
	for _, idx := range form {
		b.WriteByte(byte('A' + idx))
	}
	return b.String()
}

// progression renders chords as numerals, e.g. "I-V-vi-IV".
func progression(chords []int) string {
	names := make([]string, len(chords))
	for i, c := range chords {
		names[i] = numerals[c%len(numerals)]
	}
	return strings.Join(names, "-")
}

func backgroundList(layers []composer.BackgroundLayer) string {
	if len(layers) == 0 {
		return "-"
	}
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = fmt.Sprintf("%s(%d)", l.Key, l.Level)
	}
	return strings.Join(names, " ")
}

func asciiLogo() string {
	logo := `
   _   _ ____  _____ _____ _   _ _   _ _____ ____
  | | | |  _ \|  ___|_   _| | | | \ | | ____/ ___|
  | | | | |_) | |_    | | | | | |  \| |  _| \___ \
  | |_| |  _ <|  _|   | | | |_| | |\  | |___ ___) |
   \___/|_| \_\_|     |_|  \___/|_| \_|_____|____/
`
	return lipgloss.NewStyle().Foreground(urfGold).Render(logo)
}

// Run starts the TUI application
func Run(conv *converter.Converter) error {
	p := tea.NewProgram(New(conv), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
