package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/klass/klass"
	"github.com/mgomes/klass/script"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

const (
	replPrompt         = "klass> "
	replContinuePrompt = "  ...> "
)

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

type replModel struct {
	textInput   textinput.Model
	session     *script.Session
	printed     *bytes.Buffer
	pending     []string
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showVars    bool
	showClasses bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	CtrlC  key.Binding
	CtrlD  key.Binding
	CtrlL  key.Binding
	Tab    key.Binding
	CtrlV  key.Binding
	CtrlH  key.Binding
	CtrlT  key.Binding
	Escape key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous command"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next command"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlV: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "toggle vars"),
	),
	CtrlH: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
	CtrlT: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "toggle classes"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "discard pending lines"),
	),
}

var replKeywords = []string{"class", "def", "end", "self", "base", "return", "print", "true", "false", "nil"}

func newREPLModel() replModel {
	ti := textinput.New()
	ti.Placeholder = "type a statement..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = replPrompt

	printed := new(bytes.Buffer)
	return replModel{
		textInput:  ti,
		session:    script.NewSession(klass.MustNew(klass.Config{}), printed),
		printed:    printed,
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlV):
			m.showVars = !m.showVars
			return m, nil

		case key.Matches(msg, keys.CtrlH):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.CtrlT):
			m.showClasses = !m.showClasses
			return m, nil

		case key.Matches(msg, keys.Escape):
			m.pending = nil
			m.textInput.Prompt = replPrompt
			m.textInput.SetValue("")
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			line := m.textInput.Value()
			input := strings.TrimSpace(line)
			if input == "" && len(m.pending) == 0 {
				return m, nil
			}

			if len(m.pending) == 0 && strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			m.textInput.SetValue("")
			m.historyIdx = -1
			if input != "" {
				m.cmdHistory = append(m.cmdHistory, input)
			}

			source := strings.Join(append(m.pending, line), "\n")
			if _, err := script.Parse(source); script.IsIncomplete(err) {
				m.pending = append(m.pending, line)
				m.textInput.Prompt = replContinuePrompt
				return m, nil
			}
			m.pending = nil
			m.textInput.Prompt = replPrompt

			output, isErr := m.evaluate(source)
			m.history = append(m.history, historyEntry{
				input:  source,
				output: output,
				isErr:  isErr,
			})
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":vars", ":v":
		m.showVars = !m.showVars
	case ":classes", ":t":
		m.showClasses = !m.showClasses
	case ":reset", ":r":
		m.session.Reset()
		m.history = append(m.history, historyEntry{
			input:  input,
			output: "Session reset",
			isErr:  false,
		})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	if input == "" {
		return m
	}

	lastWord := input
	if idx := strings.LastIndexAny(input, " \t.(,[{"); idx >= 0 {
		lastWord = input[idx+1:]
	}
	if lastWord == "" {
		return m
	}

	completions := completionCandidates(m.session, lastWord)
	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			input:  "",
			output: "Completions: " + strings.Join(completions, ", "),
			isErr:  false,
		})
	}

	return m
}

// completionCandidates lists keywords, bindings and root class statics that
// start with prefix.
func completionCandidates(session *script.Session, prefix string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(names []string) {
		for _, name := range names {
			if _, ok := seen[name]; ok || !strings.HasPrefix(name, prefix) {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	add(replKeywords)
	add(session.Names())
	add(session.Runtime().Root().StaticNames())
	add([]string{"new"})
	sort.Strings(out)
	return out
}

func (m replModel) evaluate(source string) (string, bool) {
	m.printed.Reset()
	result, err := m.session.Eval(context.Background(), source)
	printed := strings.TrimRight(m.printed.String(), "\n")
	m.printed.Reset()
	if err != nil {
		if printed != "" {
			return printed + "\n" + err.Error(), true
		}
		return err.Error(), true
	}

	value := script.Inspect(result)
	if printed != "" {
		return printed + "\n" + value, false
	}
	return value, false
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("klass REPL")
	version := mutedStyle.Render("v" + klass.Version)
	b.WriteString(header + " " + version + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", min(m.width-2, 60))) + "\n\n")

	classes := m.session.Classes()
	reservedLines := 8
	if m.showHelp {
		reservedLines += 12
	}
	if m.showVars {
		reservedLines += len(m.session.Names()) + 3
	}
	if m.showClasses {
		reservedLines += len(classes) + 3
	}
	reservedLines += len(m.pending)
	availableHeight := m.height - reservedLines

	historyStart := 0
	if availableHeight < 0 {
		availableHeight = 0
	}
	if len(m.history) > availableHeight {
		historyStart = len(m.history) - availableHeight
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		if entry.input != "" {
			for _, line := range strings.Split(entry.input, "\n") {
				b.WriteString(mutedStyle.Render("  › ") + line + "\n")
			}
		}
		if entry.isErr {
			b.WriteString("  " + errorStyle.Render("✗ "+entry.output) + "\n")
		} else {
			b.WriteString("  " + resultStyle.Render("→ "+entry.output) + "\n")
		}
		b.WriteString("\n")
	}

	if m.showVars {
		b.WriteString(renderVarsPanel(m.session))
		b.WriteString("\n")
	}

	if m.showClasses {
		b.WriteString(renderClassPanel(classes))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	for _, line := range m.pending {
		b.WriteString(mutedStyle.Render(replContinuePrompt) + line + "\n")
	}
	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+v") + helpDescStyle.Render(" vars  ") +
		helpKeyStyle.Render("ctrl+t") + helpDescStyle.Render(" classes  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderVarsPanel(session *script.Session) string {
	names := session.Names()
	if len(names) == 0 {
		return borderStyle.Render(mutedStyle.Render("No variables defined"))
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Variables"))
	varNameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for _, name := range names {
		val, _ := session.Lookup(name)
		line := fmt.Sprintf("  %s = %s", varNameStyle.Render(name), script.Inspect(val))
		lines = append(lines, line)
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

// renderClassPanel draws the bound classes as a tree following their recorded
// ancestors. Classes whose ancestor is not bound are drawn at the top level,
// as is any class only reachable through an ancestor cycle left by cast.
func renderClassPanel(classes []*klass.Class) string {
	if len(classes) == 0 {
		return borderStyle.Render(mutedStyle.Render("No classes defined"))
	}

	bound := make(map[*klass.Class]bool, len(classes))
	for _, cl := range classes {
		bound[cl] = true
	}
	children := make(map[*klass.Class][]*klass.Class)
	var roots []*klass.Class
	for _, cl := range classes {
		if parent := cl.Ancestor(); parent != nil && bound[parent] {
			children[parent] = append(children[parent], cl)
			continue
		}
		roots = append(roots, cl)
	}

	nameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Classes")}
	drawn := make(map[*klass.Class]bool, len(classes))
	var walk func(cl *klass.Class, indent string, last, top bool)
	walk = func(cl *klass.Class, indent string, last, top bool) {
		drawn[cl] = true
		branch, next := "", indent
		if !top {
			branch, next = "├─ ", indent+"│  "
			if last {
				branch, next = "└─ ", indent+"   "
			}
		}
		lines = append(lines, fmt.Sprintf("  %s%s%s %s", indent, branch, nameStyle.Render(className(cl)), mutedStyle.Render(classSummary(cl))))
		var kids []*klass.Class
		for _, kid := range children[cl] {
			if !drawn[kid] {
				kids = append(kids, kid)
			}
		}
		for i, kid := range kids {
			walk(kid, next, i == len(kids)-1, false)
		}
	}
	for _, root := range roots {
		walk(root, "", true, true)
	}
	for _, cl := range classes {
		if !drawn[cl] {
			walk(cl, "", true, true)
		}
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func className(cl *klass.Class) string {
	if cl.Name() == "" {
		return "(anonymous)"
	}
	return cl.Name()
}

func classSummary(cl *klass.Class) string {
	var methods []string
	for _, name := range cl.Prototype().Names() {
		if name == "constructor" || name == "base" {
			continue
		}
		methods = append(methods, name)
	}
	summary := "< " + cl.AncestorName()
	if len(methods) > 0 {
		summary += "  " + strings.Join(methods, ", ")
	}
	return summary
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate command history"},
		{"Tab", "Autocomplete"},
		{"Enter", "Execute, or continue an open block"},
		{"Esc", "Discard pending lines"},
		{":help", "Toggle this help"},
		{":vars", "Toggle variables panel"},
		{":classes", "Toggle class hierarchy panel"},
		{":clear", "Clear history"},
		{":reset", "Reset session"},
		{":quit", "Exit REPL"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-9s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL() error {
	p := tea.NewProgram(newREPLModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
