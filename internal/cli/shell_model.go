package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/formatter"
	"github.com/alexanderramin/itopnl/internal/service"
)

// shellResultMsg carries the output of a finished remote call.
type shellResultMsg struct {
	output string
}

// shellModel is the bubbletea Model for the interactive shell REPL.
type shellModel struct {
	input   textinput.Model
	spin    spinner.Model
	history *history

	ctx    context.Context
	app    *App
	class  string
	format domain.OutputFormat

	busy     bool
	quitting bool
}

func newShellModel(ctx context.Context, app *App, h *history) shellModel {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.Placeholder = "ask a question, or type help"
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple

	return shellModel{
		input:   ti,
		spin:    sp,
		history: h,
		ctx:     ctx,
		app:     app,
		format:  domain.FormatDetailed,
	}
}

// ── bubbletea interface ──────────────────────────────────────────────────────

func (m shellModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.Println(shellWelcome()))
}

func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - len(m.promptPrefix()) - 1
		return m, nil

	case shellResultMsg:
		m.busy = false
		return m, tea.Println(msg.output)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m.updatePrompt(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m shellModel) View() string {
	if m.quitting {
		return formatter.Dim("Goodbye.") + "\n"
	}
	if m.busy {
		return m.spin.View() + " " + formatter.Dim("Querying iTop...")
	}
	return m.promptPrefix() + m.input.View()
}

func (m shellModel) promptPrefix() string {
	label := formatter.StylePurple.Render("itop")
	if m.class != "" {
		label += formatter.Dim("(") + formatter.StyleGreen.Render(m.class) + formatter.Dim(")")
	}
	return label + " " + formatter.Dim("❯") + " "
}

func (m shellModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		m.history.add(line)
		return m.execute(line)

	case tea.KeyUp:
		if line, ok := m.history.prev(); ok {
			m.input.SetValue(line)
			m.input.CursorEnd()
		}
		return m, nil

	case tea.KeyDown:
		m.input.SetValue(m.history.next())
		m.input.CursorEnd()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute handles one line. Local commands answer at once; remote calls
// run in a tea.Cmd while the spinner turns.
func (m shellModel) execute(line string) (tea.Model, tea.Cmd) {
	name, rest := splitShellCommand(line)
	svc := m.app.Service
	ctx := m.ctx

	var run func() string
	switch name {
	case "exit", "quit", ":q":
		m.quitting = true
		return m, tea.Quit
	case "help", "?":
		return m, tea.Println(shellHelp())
	case ":class":
		m.class = rest
		if rest == "" {
			return m, tea.Println(formatter.Dim("Class detection restored."))
		}
		return m, tea.Println(formatter.Dim("Queries now run against " + rest + "."))
	case ":format":
		f, err := domain.ParseOutputFormat(rest)
		if err != nil {
			return m, tea.Println(formatter.FormatError(err))
		}
		m.format = f
		return m, tea.Println(formatter.Dim("Output format: " + string(f)))
	case ":explain":
		req := service.Request{Query: rest, ForceClass: m.class}
		run = func() string { return svc.Explain(ctx, req) }
	case ":schema":
		run = func() string { return svc.DescribeClass(ctx, rest) }
	case ":values":
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return m, tea.Println(formatter.FormatWarning("Usage", ":values <class> <field> [search]"))
		}
		search := strings.Join(fields[2:], " ")
		run = func() string { return svc.DiscoverValues(ctx, fields[0], fields[1], search, 0) }
	case ":ops":
		run = func() string { return svc.ListOperations(ctx) }
	default:
		if strings.HasPrefix(name, ":") {
			return m, tea.Println(formatter.FormatError(fmt.Errorf("unknown command %s; type help", name)))
		}
		req := service.Request{Query: line, ForceClass: m.class, Limit: m.app.Config.DefaultLimit, Format: string(m.format)}
		run = func() string { return svc.Process(ctx, req) }
	}

	m.busy = true
	return m, tea.Batch(m.spin.Tick, func() tea.Msg { return shellResultMsg{output: run()} })
}

// splitShellCommand splits the lowercased first word from the rest of line.
func splitShellCommand(line string) (name, rest string) {
	name, rest, _ = strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

func shellWelcome() string {
	return formatter.Header("iTop natural-language shell") + "\n" +
		formatter.Dim("Ask a question such as \"open incidents this week\". Type help for commands, exit to leave.")
}

func shellHelp() string {
	rows := [][]string{
		{"<question>", "run a natural-language query"},
		{":explain <question>", "show the reading and OQL without running it"},
		{":schema <class>", "show the fields of a class"},
		{":values <class> <field> [search]", "list stored values of a field"},
		{":ops", "list REST operations"},
		{":class [class]", "pin queries to a class, or clear the pin"},
		{":format <format>", "detailed, summary, table or json"},
		{"exit", "leave the shell"},
	}
	return formatter.RenderTable([]string{"command", "does"}, rows)
}
