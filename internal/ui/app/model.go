package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	proceduredto "audiometer/internal/modules/procedure/dto"
	"audiometer/internal/ui/components"
	"audiometer/internal/ui/theme"
)

const pollInterval = 50 * time.Millisecond

type procedurePort interface {
	Run(ctx context.Context, kind string, binaural bool) (proceduredto.RunOutput, error)
	Progress() proceduredto.ProgressOutput
	Skip() bool
}

// Responder receives the listener's key presses.
type Responder interface {
	Press() bool
}

// Result is what the run view hands back when it exits.
type Result struct {
	Output  proceduredto.RunOutput
	Err     error
	Aborted bool
}

type runDoneMsg struct {
	out proceduredto.RunOutput
	err error
}

type tickMsg time.Time

type keyMap struct {
	Respond key.Binding
	Skip    key.Binding
	Quit    key.Binding
}

func defaultKeys(testMode bool) keyMap {
	k := keyMap{
		Respond: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "I heard it")),
		Skip:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "skip")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
	k.Skip.SetEnabled(testMode)
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Respond, k.Skip, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// Model runs one procedure and shows its progress. The procedure itself runs
// in a tea.Cmd; the view only polls progress and forwards key presses.
type Model struct {
	procedure procedurePort
	responder Responder
	kind      string
	binaural  bool

	ctx    context.Context
	cancel context.CancelFunc

	keys keyMap
	help help.Model
	bar  progress.Model

	value  float64
	done   bool
	result Result
	status string
	width  int
}

func NewModel(procedure procedurePort, responder Responder, kind string, binaural, testMode bool) Model {
	ctx, cancel := context.WithCancel(context.Background())
	bar := progress.New(progress.WithSolidFill(string(theme.Sapphire)), progress.WithoutPercentage())
	bar.Width = 40
	return Model{
		procedure: procedure,
		responder: responder,
		kind:      kind,
		binaural:  binaural,
		ctx:       ctx,
		cancel:    cancel,
		keys:      defaultKeys(testMode),
		help:      help.New(),
		bar:       bar,
		status:    "press space whenever you hear a tone",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.runCmd(), tick())
}

func (m Model) runCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.procedure.Run(m.ctx, m.kind, m.binaural)
		return runDoneMsg{out: out, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(msg.Width-8, 60))
		m.help.Width = msg.Width

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.value = m.procedure.Progress().Value
		return m, tick()

	case runDoneMsg:
		m.done = true
		m.result.Output = msg.out
		m.result.Err = msg.err
		m.value = m.procedure.Progress().Value
		m.status = summary(msg.out, msg.err)
		m.keys.Respond.SetEnabled(false)
		m.keys.Skip.SetEnabled(false)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if !m.done {
				m.cancel()
				m.result.Aborted = true
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Respond):
			if m.responder != nil && m.responder.Press() {
				m.status = "response registered"
			}
		case key.Matches(msg, m.keys.Skip):
			if m.procedure.Skip() {
				m.status = "skipping"
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	title := m.kind
	if m.binaural {
		title += " (binaural)"
	}
	b.WriteString(theme.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.value))
	b.WriteString(theme.Muted.Render(fmt.Sprintf(" %3.0f%%", m.value*100)))
	b.WriteString("\n\n")

	status := theme.Hot.Render(m.status)
	if m.done && m.result.Err == nil && m.result.Output.Success {
		status = theme.Good.Render(m.status)
	} else if m.done {
		status = theme.Bad.Render(m.status)
	}
	b.WriteString(status)

	if m.done && m.result.Err == nil {
		b.WriteString("\n\n")
		b.WriteString(theme.Pane.Render(components.AudiogramGrid(m.result.Output.Frequencies, m.result.Output.Left, m.result.Output.Right)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return theme.App.Render(lipgloss.NewStyle().MaxWidth(max(m.width, 80)).Render(b.String()))
}

// Result is valid once the program has exited.
func (m Model) Result() Result {
	return m.result
}

func summary(out proceduredto.RunOutput, err error) string {
	switch {
	case err != nil:
		return "aborted: " + err.Error()
	case out.Skipped:
		return "skipped, record saved to " + out.Path
	case out.Success:
		return "finished, record saved to " + out.Path
	case len(out.FailedEars) > 0:
		return fmt.Sprintf("failed on %s: %s", strings.Join(out.FailedEars, ", "), out.Reason)
	default:
		return "failed: " + out.Reason
	}
}
