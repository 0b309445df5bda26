// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     console
// Description: Interactive Bubbletea console running lines on one thread
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/stringx"
	"github.com/msto63/zuse/internal/stack"
	"github.com/msto63/zuse/pkg/core/logging"
	"github.com/msto63/zuse/pkg/core/version"
)

// DefaultPrompt is used when Config.Prompt is empty
const DefaultPrompt = "zuse> "

// Processor runs one input line on a thread
type Processor interface {
	Process(t stack.CommandThread, line string) (string, error)
}

// Config holds console configuration
type Config struct {
	Interp Processor
	Thread stack.CommandThread
	Prompt string

	// HistoryFile persists the input history; empty keeps it in memory
	HistoryFile string

	Logger *logging.Logger
}

// entry is one processed line of the transcript
type entry struct {
	prompt   string
	line     string
	result   string
	err      error
	duration time.Duration
}

// resultMsg carries the outcome of a processed line
type resultMsg struct {
	entry entry
	depth int
}

// Model is the Bubbletea model of the console
type Model struct {
	// State
	width    int
	height   int
	ready    bool
	busy     bool
	quitting bool
	depth    int
	commands int
	failures int

	// Components
	input    textinput.Model
	viewport viewport.Model

	entries []entry

	// Input history
	history      []string
	historyIndex int // -1 while editing a new line
	currentInput string

	cfg    Config
	logger *logging.Logger
}

// New creates a console model. The history is loaded from cfg.HistoryFile.
func New(cfg Config) Model {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("console")
	}

	ti := textinput.New()
	ti.Placeholder = "command (Enter to run)"
	ti.Prompt = cfg.Prompt
	ti.PromptStyle = PromptStyle
	ti.TextStyle = InputLineStyle
	ti.PlaceholderStyle = SubHeaderStyle
	ti.CharLimit = 4096
	ti.Focus()

	return Model{
		input:        ti,
		depth:        cfg.Thread.Depth(),
		history:      LoadHistory(cfg.HistoryFile),
		historyIndex: -1,
		cfg:          cfg,
		logger:       cfg.Logger,
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 7 // input box, status bar, help, transcript border
		viewportHeight := msg.Height - headerHeight - footerHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.input.Width = msg.Width - 6 - lipgloss.Width(m.input.Prompt)
		m.refresh()
		return m, nil

	case resultMsg:
		m.busy = false
		m.depth = msg.depth
		m.commands++
		if msg.entry.err != nil {
			m.failures++
			m.logger.Debug("Console line failed",
				"line", msg.entry.line,
				"error", msg.entry.err.Error())
		}
		m.entries = append(m.entries, msg.entry)
		m.input.Prompt = m.prompt()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()

	case tea.KeyEsc:
		if m.input.Value() != "" {
			m.input.Reset()
			m.historyIndex = -1
			return m, nil
		}
		return m.quit()

	case tea.KeyCtrlL:
		m.entries = nil
		m.refresh()
		return m, nil

	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		if stringx.IsBlank(m.input.Value()) {
			return m, nil
		}
		line := strings.TrimSpace(m.input.Value())
		if m.depth <= 1 && (strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit")) {
			return m.quit()
		}

		m.history = appendHistory(m.history, line)
		if err := SaveHistory(m.cfg.HistoryFile, m.history); err != nil {
			m.logger.Warn("Failed to save console history", "error", err.Error())
		}
		m.historyIndex = -1
		m.currentInput = ""
		m.input.Reset()
		m.busy = true
		return m, m.execute(m.prompt(), line)

	case tea.KeyUp:
		if len(m.history) > 0 {
			if m.historyIndex == -1 {
				m.currentInput = m.input.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}
			m.input.SetValue(m.history[m.historyIndex])
			m.input.CursorEnd()
		}
		return m, nil

	case tea.KeyDown:
		if m.historyIndex != -1 {
			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.input.SetValue(m.history[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.input.SetValue(m.currentInput)
			}
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute processes line off the UI loop. Only one line runs at a time, so
// the thread is never shared.
func (m Model) execute(prompt, line string) tea.Cmd {
	interp, thread := m.cfg.Interp, m.cfg.Thread
	return func() tea.Msg {
		started := time.Now()
		result, err := interp.Process(thread, line)
		return resultMsg{
			entry: entry{
				prompt:   prompt,
				line:     line,
				result:   result,
				err:      err,
				duration: time.Since(started),
			},
			depth: thread.Depth(),
		}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// prompt returns the input prompt. Inside open blocks it shows the nesting.
func (m Model) prompt() string {
	if m.depth <= 1 {
		return m.cfg.Prompt
	}
	return strings.Repeat("  ", m.depth-1) + "... "
}

// refresh rerenders the transcript into the viewport
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.Transcript())
	m.viewport.GotoBottom()
}

// Transcript renders all processed lines with their results
func (m Model) Transcript() string {
	var b strings.Builder
	for _, e := range m.entries {
		promptStyle := PromptStyle
		if e.prompt != m.cfg.Prompt {
			promptStyle = PendingPromptStyle
		}
		b.WriteString(promptStyle.Render(e.prompt))
		b.WriteString(InputLineStyle.Render(e.line))
		b.WriteString("\n")
		switch {
		case e.err != nil:
			b.WriteString(ErrorStyle.Render(FormatError(e.err)))
			b.WriteString("\n")
		case e.result != "":
			b.WriteString(ResultStyle.Render(e.result))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatError renders err with its error code when it carries one
func FormatError(err error) string {
	code := zerror.GetCode(err)
	if code == zerror.CodeUnknown {
		return "error: " + err.Error()
	}
	return ErrorCodeStyle.Render("["+string(code)+"]") + " " + err.Error()
}

// Quitting reports whether the console asked to exit
func (m Model) Quitting() bool { return m.quitting }

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting console..."
	}

	var b strings.Builder
	b.WriteString(LogoStyle.Render("zuse"))
	b.WriteString(" ")
	b.WriteString(SubHeaderStyle.Render("command interpreter " + version.Interpreter))
	b.WriteString("\n\n")

	b.WriteString(TranscriptStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")

	inputStyle := InputStyle
	if m.busy {
		inputStyle = BusyInputStyle
	}
	b.WriteString(inputStyle.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("enter run • ↑/↓ history • pgup/pgdn scroll • ctrl+l clear • esc quit"))
	return b.String()
}

// renderStatusBar renders thread, depth and counters
func (m Model) renderStatusBar() string {
	id := m.cfg.Thread.ID()
	if len(id) > 8 {
		id = id[:8]
	}
	state := "ready"
	if m.busy {
		state = "running"
	}
	parts := []string{
		StatusKeyStyle.Render("thread") + " " + id,
		StatusKeyStyle.Render("depth") + fmt.Sprintf(" %d", m.depth),
		StatusKeyStyle.Render("commands") + fmt.Sprintf(" %d", m.commands),
		StatusKeyStyle.Render("failed") + fmt.Sprintf(" %d", m.failures),
	}
	if n := len(m.entries); n > 0 {
		last := m.entries[n-1].duration.Round(time.Microsecond)
		parts = append(parts, StatusKeyStyle.Render("last")+" "+last.String())
	}
	parts = append(parts, state)
	return StatusBarStyle.Render(strings.Join(parts, "  "))
}

// Run starts the console and blocks until the user quits
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return zerror.Wrap(err, "console failed").WithCode(zerror.CodeInternal)
	}
	return nil
}
