package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	prog "calltrace/internal/progress"
)

// maxVisible caps the item list; big scans show only the busiest rows.
const maxVisible = 24

type progressModel struct {
	title      string
	events     <-chan prog.Event
	spinner    spinner.Model
	bar        progress.Model
	items      []item
	index      map[string]int
	stageLabel string
	width      int
	done       bool
	failed     int
	truncated  int
}

type item struct {
	name   string
	status prog.Status
	stage  prog.Stage
}

type eventMsg prog.Event
type doneMsg struct{}

// NewProgressModel renders per-item progress (thread files of a forest
// build, or records of a scan) until events is closed.
func NewProgressModel(title string, names []string, events <-chan prog.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	items := make([]item, 0, len(names))
	index := make(map[string]int, len(names))
	for i, name := range names {
		items = append(items, item{name: name, status: prog.StatusQueued})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(prog.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		// прерывание обрабатывает вызывающий через контекст
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
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
			m.bar.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s %d/%d", m.title, m.finished(), len(m.items))
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.truncated > 0 {
		header += fmt.Sprintf(", %d truncated", m.truncated)
	}
	if m.failed > 0 {
		header += fmt.Sprintf(", %d failed", m.failed)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 10
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, it := range m.visible() {
		status := statusLabel(it.stage, it.status)
		styled := styleStatus(it.status).Render(fmt.Sprintf("%10s", status))
		fmt.Fprintf(&b, "  %s %s\n", styled, truncate(it.name, nameWidth))
	}
	if hidden := len(m.items) - len(m.visible()); hidden > 0 {
		fmt.Fprintf(&b, "  %10s %d more\n", "", hidden)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// visible keeps working and failed rows first, then the rest in order.
func (m *progressModel) visible() []item {
	if len(m.items) <= maxVisible {
		return m.items
	}
	out := make([]item, 0, maxVisible)
	for _, pass := range []func(prog.Status) bool{
		func(s prog.Status) bool { return s == prog.StatusWorking || s == prog.StatusError },
		func(s prog.Status) bool { return s != prog.StatusWorking && s != prog.StatusError },
	} {
		for _, it := range m.items {
			if len(out) == maxVisible {
				return out
			}
			if pass(it.status) {
				out = append(out, it)
			}
		}
	}
	return out
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

func (m *progressModel) applyEvent(ev prog.Event) tea.Cmd {
	if ev.File == "" {
		m.stageLabel = stageLabel(ev.Stage)
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	if isFinal(it.status) {
		return nil
	}
	it.status, it.stage = ev.Status, ev.Stage
	switch ev.Status {
	case prog.StatusError:
		m.failed++
	case prog.StatusTruncated:
		m.truncated++
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) finished() int {
	n := 0
	for _, it := range m.items {
		if isFinal(it.status) {
			n++
		}
	}
	return n
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range m.items {
		switch {
		case isFinal(it.status):
			total += 1
		case it.status == prog.StatusWorking:
			total += 0.5
		}
	}
	return total / float64(len(m.items))
}

func isFinal(s prog.Status) bool {
	return s == prog.StatusDone || s == prog.StatusTruncated || s == prog.StatusError
}

func statusLabel(stage prog.Stage, status prog.Status) string {
	if status == prog.StatusWorking {
		if l := stageLabel(stage); l != "" {
			return l
		}
	}
	return string(status)
}

func stageLabel(stage prog.Stage) string {
	switch stage {
	case prog.StageReplay:
		return "replaying"
	case prog.StageMerge:
		return "merging"
	case prog.StageAnalyze:
		return "analyzing"
	case prog.StageScan:
		return "scanning"
	default:
		return ""
	}
}

func styleStatus(status prog.Status) lipgloss.Style {
	switch status {
	case prog.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case prog.StatusTruncated:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case prog.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case prog.StatusWorking:
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
