// Package builder is the interactive route builder behind the
// "shellgate init" subcommand (spec.md §9, SPEC_FULL.md §4.10): a small
// bubbletea wizard that collects method/path/handler triples, validates
// each with the same parser the gateway uses at startup, and appends the
// accepted routes to a TOML config file. It never spawns a handler.
package builder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shellgate/shellgate/internal/route"
)

type field int

const (
	fieldMethod field = iota
	fieldPath
	fieldHandler
)

var keyMap = struct {
	Next  key.Binding
	Prev  key.Binding
	Add   key.Binding
	Done  key.Binding
	Quit  key.Binding
}{
	Next: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	Prev: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
	Add:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add route")),
	Done: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "save and exit")),
	Quit: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("ctrl+c", "cancel")),
}

// Model is the bubbletea model for the route builder wizard.
type Model struct {
	inputs  []textinput.Model
	current field

	routes []string // accepted "METHOD:path handler" specs, in entry order
	status string   // last validation error, or "" when clean

	quitting bool
	saved    bool
}

// New builds a fresh Model with three inputs: method, path, handler.
func New() Model {
	method := textinput.New()
	method.Placeholder = "GET"
	method.CharLimit = 10
	method.Width = 10
	method.Focus()

	path := textinput.New()
	path.Placeholder = "/hello/{name}"
	path.CharLimit = 200
	path.Width = 40

	handler := textinput.New()
	handler.Placeholder = "/bin/echo hi ${name}"
	handler.CharLimit = 300
	handler.Width = 40

	return Model{inputs: []textinput.Model{method, path, handler}}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyMap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keyMap.Done):
			m.saved = true
			return m, tea.Quit

		case key.Matches(msg, keyMap.Next):
			m.blur()
			m.current = (m.current + 1) % field(len(m.inputs))
			m.focus()
			return m, nil

		case key.Matches(msg, keyMap.Prev):
			m.blur()
			m.current = (m.current - 1 + field(len(m.inputs))) % field(len(m.inputs))
			m.focus()
			return m, nil

		case key.Matches(msg, keyMap.Add):
			m.addRoute()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.current], cmd = m.inputs[m.current].Update(msg)
	return m, cmd
}

// addRoute validates the three fields with route.Parse and, on success,
// appends the normalised spec and clears the inputs for the next entry.
func (m *Model) addRoute() {
	spec := fmt.Sprintf("%s:%s %s",
		strings.TrimSpace(m.inputs[fieldMethod].Value()),
		strings.TrimSpace(m.inputs[fieldPath].Value()),
		strings.TrimSpace(m.inputs[fieldHandler].Value()),
	)

	if _, err := route.Parse(spec); err != nil {
		m.status = err.Error()
		return
	}

	m.routes = append(m.routes, spec)
	m.status = ""
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.blur()
	m.current = fieldMethod
	m.focus()
}

func (m *Model) focus() { m.inputs[m.current].Focus() }
func (m *Model) blur()  { m.inputs[m.current].Blur() }

// Routes returns the accepted route specs, in entry order.
func (m Model) Routes() []string { return m.routes }

// Saved reports whether the wizard ended via Done (ctrl+d) rather than
// being cancelled.
func (m Model) Saved() bool { return m.saved }

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(10)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("shellgate route builder\n\n")

	labels := []string{"method", "path", "handler"}
	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(errorStyle.Render("invalid route: " + m.status))
		b.WriteString("\n")
	}
	if n := len(m.routes); n > 0 {
		b.WriteString(fmt.Sprintf("%d route(s) added\n", n))
	}

	b.WriteString(helpStyle.Render("tab: next field   enter: add route   ctrl+d: save   ctrl+c: cancel\n"))
	return b.String()
}
