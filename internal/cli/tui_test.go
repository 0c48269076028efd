package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

func pickerDocs(n int) []maven.SearchDoc {
	docs := make([]maven.SearchDoc, n)
	for i := range docs {
		docs[i] = maven.SearchDoc{GroupID: "org.example", ArtifactID: "lib" + string(rune('a'+i)), LatestVersion: "1.0"}
	}
	return docs
}

func press(m SearchPickerModel, keys ...string) (SearchPickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(SearchPickerModel)
	}
	return m, cmd
}

func TestSearchPickerNavigation(t *testing.T) {
	m := NewSearchPickerModel(pickerDocs(4))
	m.Height = 2

	m, _ = press(m, "down", "down", "j")
	if m.Cursor != 3 || m.Offset != 2 {
		t.Errorf("cursor %d offset %d, want 3 and 2", m.Cursor, m.Offset)
	}
	m, _ = press(m, "down")
	if m.Cursor != 3 {
		t.Errorf("cursor moved past the end: %d", m.Cursor)
	}
	m, _ = press(m, "up", "k", "up")
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("cursor %d offset %d after moving up", m.Cursor, m.Offset)
	}

	m, cmd := press(m, "down", "enter")
	if m.Selected == nil || m.Selected.ArtifactID != "libb" {
		t.Errorf("Selected = %+v", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
}

func TestSearchPickerQuit(t *testing.T) {
	m, cmd := press(NewSearchPickerModel(pickerDocs(2)), "q")
	if m.Selected != nil || cmd == nil {
		t.Errorf("q should quit without a selection: %+v", m.Selected)
	}

	m, cmd = press(NewSearchPickerModel(nil), "enter")
	if m.Selected != nil || cmd == nil {
		t.Error("enter on an empty list should quit without a selection")
	}
}

func TestSearchPickerView(t *testing.T) {
	view := NewSearchPickerModel(pickerDocs(3)).View()
	for _, want := range []string{"Select Artifact", "org.example", "liba", "Latest", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
