package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/rotation"
	"github.com/matzehuels/donut/pkg/donut/selection"
	"github.com/matzehuels/donut/pkg/donut/visual"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	// dragStep is how far one h/l press moves the simulated pointer.
	dragStep = math.Pi / 18
	// ringWidth is the width of the proportion bar in cells.
	ringWidth = 60
)

// =============================================================================
// ExploreModel - Interactive legend
// =============================================================================

// ExploreModel is the bubbletea model driving a chart's rotating legend.
//
// ←/→ step to the neighboring slice, h/l drag the chart with a simulated
// pointer (enter releases it), space toggles the current slice's selection
// and c clears the selection.
type ExploreModel struct {
	Title string

	v     *visual.Visual
	frame visual.Frame

	dragging bool
	pointer  float64 // simulated pointer angle, clockwise from 12 o'clock
	events   int
	lastEvt  string
}

// NewExploreModel wraps v, which must already hold data.
func NewExploreModel(title string, v *visual.Visual) *ExploreModel {
	m := &ExploreModel{Title: title, v: v, frame: v.Frame()}
	v.OnSelect(func(ev selection.Event) {
		m.events++
		m.lastEvt = ev.ID
	})
	return m
}

// Frame returns the most recent frame.
func (m *ExploreModel) Frame() visual.Frame { return m.frame }

func (m *ExploreModel) Init() tea.Cmd {
	return nil
}

func (m *ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left":
		m.release()
		m.frame = m.v.Step(-1)
	case "right":
		m.release()
		m.frame = m.v.Step(1)
	case "h":
		m.drag(-dragStep)
	case "l":
		m.drag(dragStep)
	case "enter":
		m.release()
	case " ", "space":
		m.release()
		m.frame = m.v.Select(m.toggled()...)
	case "c":
		m.release()
		m.frame = m.v.ClearSelection()
	}
	return m, nil
}

// drag moves the simulated pointer by delta, starting a gesture if needed.
func (m *ExploreModel) drag(delta float64) {
	if !m.dragging {
		m.dragging = true
		m.pointer = 0
		m.frame = m.v.DragStart(m.pointerSample())
	}
	m.pointer += delta
	m.frame = m.v.DragMove(m.pointerSample())
}

func (m *ExploreModel) release() {
	if m.dragging {
		m.dragging = false
		m.frame = m.v.DragEnd()
	}
}

// pointerSample places the pointer on the outer edge of the chart.
func (m *ExploreModel) pointerSample() rotation.Sample {
	vp := m.frame.Viewport
	cx, cy := vp.Center()
	r := math.Min(vp.Width, vp.Height) / 2
	return rotation.Pointer(cx+r*math.Sin(m.pointer), cy-r*math.Cos(m.pointer))
}

// toggled returns the selection with the current slice flipped.
func (m *ExploreModel) toggled() []donut.Identity {
	cur, ok := m.current()
	if !ok {
		return nil
	}
	var ids []donut.Identity
	found := false
	for _, s := range m.frame.Slices {
		switch {
		case s.ID == cur.ID && s.Selected:
			found = true
		case s.Selected:
			ids = append(ids, s.ID)
		}
	}
	if !found {
		ids = append(ids, cur.ID)
	}
	return ids
}

func (m *ExploreModel) current() (donut.Slice, bool) {
	rot := m.frame.Rotation
	if rot == nil || rot.Current < 0 || rot.Current >= len(m.frame.Slices) {
		return donut.Slice{}, false
	}
	return m.frame.Slices[rot.Current], true
}

func (m *ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ step  h/l drag  ⏎ release  space select  c clear  q quit"))
	b.WriteString("\n\n")

	if m.frame.Empty() {
		b.WriteString(listDimStyle.Render("  nothing to draw"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.ring())
	b.WriteString("\n\n")
	b.WriteString(m.strip())
	b.WriteString("\n\n")

	if cur, ok := m.current(); ok {
		fmtr := m.v.Formatter()
		printRow := func(k, v string) {
			b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Width(12).Render(k))
			b.WriteString(" ")
			b.WriteString(StyleValue.Render(v))
			b.WriteString("\n")
		}
		printRow("slice", fmt.Sprintf("%s %s", swatch(cur.Color), cur.Label))
		printRow("value", fmtr.Value(cur.Measure))
		printRow("share", fmtr.Percent(cur.Percentage))
		printRow("rotation", fmt.Sprintf("%.1f°", m.frame.Rotation.Angle*180/math.Pi))
		if m.dragging {
			printRow("drag", fmt.Sprintf("pointer at %.0f°", m.pointer*180/math.Pi))
		}
		printRow("selected", m.selectedLabels())
	}
	if m.events > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("\n  %d selection events, last %s", m.events, m.lastEvt)))
		b.WriteString("\n")
	}
	return b.String()
}

// ring draws the slices as a proportional bar, rotated so the current
// slice's center sits under the marker in the middle.
func (m *ExploreModel) ring() string {
	cells := make([]string, ringWidth)
	// rotation angle maps the current slice center to 12 o'clock, which is
	// the middle of the bar
	offset := m.frame.Rotation.Angle/(2*math.Pi) + 0.5
	pos := 0.0
	for _, s := range m.frame.Slices {
		end := pos + s.Percentage
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
		if !s.Selected && anySelected(m.frame.Slices) {
			style = style.Faint(true)
		}
		for i := range cells {
			at := math.Mod(float64(i)/ringWidth-offset+2, 1)
			if at >= pos && at < end {
				cells[i] = style.Render("█")
			}
		}
		pos = end
	}
	for i, c := range cells {
		if c == "" {
			cells[i] = listDimStyle.Render("·")
		}
	}
	marker := strings.Repeat(" ", ringWidth/2) + StyleHighlight.Render("▼")
	return marker + "\n" + strings.Join(cells, "")
}

// strip draws the legend window around the current slice.
func (m *ExploreModel) strip() string {
	rot := m.frame.Rotation
	parts := make([]string, len(rot.Strip))
	for i, it := range rot.Strip {
		e := rot.Entries[i]
		text := fmt.Sprintf("%s %s", e.Label, e.Percent)
		if it.Current {
			parts[i] = listSelectedStyle.Render("[" + text + "]")
			continue
		}
		style := listNormalStyle
		if it.Slice < len(m.frame.Slices) && !m.frame.Slices[it.Slice].Selected && anySelected(m.frame.Slices) {
			style = listDimStyle
		}
		parts[i] = style.Render(text)
	}
	return strings.Join(parts, listDimStyle.Render("  ·  "))
}

func (m *ExploreModel) selectedLabels() string {
	var labels []string
	for _, s := range m.frame.Slices {
		if s.Selected {
			labels = append(labels, s.Label)
		}
	}
	if len(labels) == 0 {
		return "—"
	}
	return strings.Join(labels, ", ")
}

func anySelected(slices []donut.Slice) bool {
	for _, s := range slices {
		if s.Selected {
			return true
		}
	}
	return false
}
