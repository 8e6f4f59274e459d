package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"typedsql/internal/driver"
)

// maxRows caps the file list; finished passing files scroll away first.
const maxRows = 12

type progressModel struct {
	title      string
	events     <-chan driver.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []fileItem
	index      map[string]int
	stageLabel string
	width      int
	done       bool
}

type fileItem struct {
	path     string
	status   driver.Status
	failures int
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders check progress.
// Files appear as their queued events arrive; the model quits when events
// is closed.
func NewProgressModel(title string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	finished, failed := m.counts()
	if len(m.items) > 0 {
		header = fmt.Sprintf("%s %d/%d", header, finished, len(m.items))
	}
	if failed > 0 {
		header = fmt.Sprintf("%s, %d failing", header, failed)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.visible() {
		label := statusLabel(item)
		styled := styleStatus(item.status).Render(fmt.Sprintf("%12s", label))
		fmt.Fprintf(&b, "  %s %s\n", styled, truncate(item.path, nameWidth))
	}

	if len(m.items) > 0 {
		b.WriteString("\n")
		if m.done {
			b.WriteString(m.prog.ViewAs(1.0))
		} else {
			b.WriteString(m.prog.View())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	if ev.File == "" {
		m.stageLabel = stageLabel(ev)
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		idx = len(m.items)
		m.index[ev.File] = idx
		m.items = append(m.items, fileItem{path: ev.File})
	}
	m.items[idx].status = ev.Status
	m.items[idx].failures = ev.Failures

	finished, _ := m.counts()
	return m.prog.SetPercent(float64(finished) / float64(len(m.items)))
}

func (m *progressModel) counts() (finished, failed int) {
	for _, item := range m.items {
		switch item.status {
		case driver.StatusDone:
			finished++
		case driver.StatusFailed:
			finished++
			failed++
		}
	}
	return finished, failed
}

// visible keeps failing and in-flight files ahead of the rest.
func (m *progressModel) visible() []fileItem {
	out := make([]fileItem, 0, maxRows)
	for _, pass := range []func(driver.Status) bool{
		func(s driver.Status) bool { return s == driver.StatusFailed },
		func(s driver.Status) bool { return s == driver.StatusWorking },
		func(s driver.Status) bool { return s == driver.StatusQueued },
		func(s driver.Status) bool { return s == driver.StatusDone },
	} {
		for _, item := range m.items {
			if len(out) == maxRows {
				return out
			}
			if pass(item.status) {
				out = append(out, item)
			}
		}
	}
	return out
}

func statusLabel(item fileItem) string {
	switch item.status {
	case driver.StatusWorking:
		return "checking"
	case driver.StatusFailed:
		return fmt.Sprintf("%d failed", item.failures)
	case driver.StatusDone:
		return "ok"
	default:
		return string(item.status)
	}
}

func stageLabel(ev driver.Event) string {
	switch {
	case ev.Stage == driver.StageLoad && ev.Status == driver.StatusWorking:
		return "loading packages"
	case ev.Stage == driver.StageLoad && ev.Status == driver.StatusFailed:
		return "load failed"
	case ev.Stage == driver.StageCheck:
		return "checking"
	}
	return ""
}

func styleStatus(status driver.Status) lipgloss.Style {
	switch status {
	case driver.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case driver.StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case driver.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
