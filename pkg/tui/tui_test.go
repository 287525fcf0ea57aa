package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/james-see/urftunes/pkg/converter"
	"github.com/james-see/urftunes/pkg/session"
)

func newModel() Model {
	return New(converter.New(session.DefaultSettings(), 0))
}

func press(m Model, key tea.KeyType) Model {
	next, _ := m.Update(tea.KeyMsg{Type: key})
	return next.(Model)
}

func TestMenuNavigation(t *testing.T) {
	m := press(newModel(), tea.KeyDown)
	if m.menuIndex != 1 {
		t.Fatalf("menuIndex = %d, want 1", m.menuIndex)
	}

	m = press(press(m, tea.KeyUp), tea.KeyUp)
	if m.menuIndex != 0 {
		t.Fatalf("menuIndex = %d, want 0", m.menuIndex)
	}

	m = press(m, tea.KeyEnter)
	if m.state != StateFilePicker {
		t.Fatalf("state = %v, want StateFilePicker", m.state)
	}
	if m.source.FromKind != "seed" {
		t.Errorf("source = %+v, want seed", m.source)
	}
	if len(m.filePicker.AllowedTypes) != len(seedTypes) {
		t.Errorf("AllowedTypes = %v, want %v", m.filePicker.AllowedTypes, seedTypes)
	}

	if press(m, tea.KeyEsc).state != StateMenu {
		t.Error("esc should return to the menu")
	}
}

func TestComposePreviewAndWrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "mastery.json")
	if err := os.WriteFile(input, []byte(`{"ahri": 1, "hecarim": 3}`), 0644); err != nil {
		t.Fatal(err)
	}

	m := newModel()
	m.selectedFile = input
	m.state = StateComposing

	msg, ok := m.compose()().(composedMsg)
	if !ok {
		t.Fatal("compose() did not return a composedMsg")
	}
	if msg.err != nil {
		t.Fatalf("compose failed: %v", msg.err)
	}
	next, _ := m.Update(msg)
	m = next.(Model)
	if m.state != StatePreview {
		t.Fatalf("state = %v, want StatePreview", m.state)
	}

	view := m.View()
	for _, want := range []string{"PREVIEW", "84.5 bpm", formString(m.doc.Song.Form), "ahri(1)", "mastery.mid"} {
		if !strings.Contains(view, want) {
			t.Errorf("preview missing %q:\n%s", want, view)
		}
	}

	if m.Format() != converter.FormatMIDI {
		t.Fatalf("default format = %s, want midi", m.Format())
	}
	m = press(m, tea.KeyRight)
	if m.Format() != converter.FormatJSON {
		t.Fatalf("format after right = %s, want json", m.Format())
	}
	if press(m, tea.KeyLeft).Format() != converter.FormatMIDI {
		t.Error("left should wrap back to midi")
	}

	m = press(m, tea.KeyEnter)
	if m.state != StateWriting {
		t.Fatalf("state = %v, want StateWriting", m.state)
	}
	written, ok := m.write()().(writtenMsg)
	if !ok {
		t.Fatal("write() did not return a writtenMsg")
	}
	if written.err != nil {
		t.Fatalf("write failed: %v", written.err)
	}
	if want := filepath.Join(dir, "mastery.song.json"); written.result.Filename != want {
		t.Errorf("Filename = %s, want %s", written.result.Filename, want)
	}
	if _, err := os.Stat(written.result.Filename); err != nil {
		t.Errorf("output not written: %v", err)
	}

	next, _ = m.Update(written)
	view = next.(Model).View()
	if !strings.Contains(view, "Song written") || !strings.Contains(view, "mastery.song.json") {
		t.Errorf("result view missing summary:\n%s", view)
	}
	if press(next.(Model), tea.KeyEnter).state != StateMenu {
		t.Error("enter on the result should return to the menu")
	}
}

func TestComposeFailureShowsError(t *testing.T) {
	m := newModel()
	m.selectedFile = filepath.Join(t.TempDir(), "missing.json")

	next, _ := m.Update(m.compose()())
	m = next.(Model)
	if m.state != StateResult || m.err == nil {
		t.Fatalf("state = %v, err = %v; want an error result", m.state, m.err)
	}
	if !strings.Contains(m.View(), "ERROR") {
		t.Error("error view not rendered")
	}
}

func TestFormString(t *testing.T) {
	if got := formString([]int{0, 0, 1, 0, 2}); got != "AABAC" {
		t.Errorf("formString() = %q, want AABAC", got)
	}
}

func TestProgression(t *testing.T) {
	if got := progression([]int{0, 4, 5, 3}); got != "I-V-vi-IV" {
		t.Errorf("progression() = %q, want I-V-vi-IV", got)
	}
}
