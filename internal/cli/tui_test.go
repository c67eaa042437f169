package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/donut/visual"
)

func newTestExplorer(t *testing.T, labels ...string) *ExploreModel {
	t.Helper()
	values := make([]float64, len(labels))
	for i := range values {
		values[i] = float64(10 * (i + 1))
	}
	s := settings.Default()
	s.Chart.Interactive = true
	v := visual.New()
	v.Update(visual.Update{
		Result:            dataview.Categorical("Region", labels, "Sales", values, nil),
		Viewport:          donut.Viewport{Width: 400, Height: 400},
		Settings:          s,
		SuppressAnimation: true,
	})
	return NewExploreModel("sales", v)
}

func press(m *ExploreModel, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func current(t *testing.T, m *ExploreModel) int {
	t.Helper()
	rot := m.Frame().Rotation
	if rot == nil {
		t.Fatal("explorer frame has no rotation state")
	}
	return rot.Current
}

func TestExploreStepWraps(t *testing.T) {
	m := newTestExplorer(t, "North", "South", "East", "West", "Central")
	if got := current(t, m); got != 0 {
		t.Fatalf("start = %d, want 0", got)
	}
	press(m, "right", "right")
	if got := current(t, m); got != 2 {
		t.Errorf("after two steps right = %d, want 2", got)
	}
	press(m, "left", "left", "left")
	if got := current(t, m); got != 4 {
		t.Errorf("stepping left past the first slice = %d, want 4", got)
	}
}

func TestExploreDrag(t *testing.T) {
	m := newTestExplorer(t, "North", "South", "East", "West")
	start := m.Frame().Rotation.Angle

	press(m, "l", "l")
	if !m.dragging {
		t.Fatal("h/l should start a drag")
	}
	if m.Frame().Rotation.Angle == start {
		t.Error("dragging should rotate the chart")
	}

	press(m, "enter")
	if m.dragging {
		t.Error("enter should release the drag")
	}
	settled := m.Frame().Rotation.Angle
	press(m, "enter")
	if m.Frame().Rotation.Angle != settled {
		t.Error("enter without a drag should do nothing")
	}

	press(m, "right")
	if m.dragging {
		t.Error("stepping should not start a drag")
	}
}

func TestExploreSelection(t *testing.T) {
	m := newTestExplorer(t, "North", "South", "East")

	press(m, " ")
	if !m.Frame().Slices[0].Selected {
		t.Fatal("space should select the current slice")
	}
	press(m, "right", " ")
	if !m.Frame().Slices[0].Selected || !m.Frame().Slices[1].Selected {
		t.Error("space should add to the selection")
	}
	press(m, " ")
	if m.Frame().Slices[1].Selected {
		t.Error("space on a selected slice should deselect it")
	}
	press(m, "c")
	for _, s := range m.Frame().Slices {
		if s.Selected {
			t.Errorf("%s still selected after clear", s.ID)
		}
	}
	if m.events != 4 {
		t.Errorf("selection events = %d, want 4", m.events)
	}
}

func TestExploreView(t *testing.T) {
	m := newTestExplorer(t, "North", "South", "East", "West")
	press(m, "right")
	view := m.View()
	for _, want := range []string{"sales", "South", "share", "rotation"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}
