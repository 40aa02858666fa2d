// Package ui renders gitcamus output on the terminal.
//
// The generated message is the only thing written to stdout; status lines,
// the spinner and the setup wizard use stderr.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Spinner provides loading animation functionality.
type Spinner interface {
	Start()
	Stop()
}

// Presenter defines the output operations of a run.
type Presenter interface {
	// Show prints the message followed by a newline to stdout.
	Show(message string) error
	// Committed reports a successful commit on stderr.
	Committed(message string)
	// NoChanges reports that nothing is staged.
	NoChanges()
	// ShowSpinner returns a started spinner; callers must Stop it.
	ShowSpinner(text string) Spinner
}

// NoChangesMessage is printed when the index is empty.
const NoChangesMessage = "No staged changes to commit."

// TerminalPresenter implements Presenter with lipgloss styling and a
// bubbletea spinner.
type TerminalPresenter struct {
	out            io.Writer
	errOut         io.Writer
	spinnerEnabled bool
	styles         *styles
}

type styles struct {
	success lipgloss.Style
	message lipgloss.Style
	info    lipgloss.Style
	spinner lipgloss.Style
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		return &styles{
			success: lipgloss.NewStyle(),
			message: lipgloss.NewStyle(),
			info:    lipgloss.NewStyle(),
			spinner: lipgloss.NewStyle(),
		}
	}
	return &styles{
		success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		message: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("220")),
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")),
	}
}

// NewPresenter creates a presenter writing to out and errOut. The spinner
// only animates when requested and errOut is a terminal.
func NewPresenter(out, errOut io.Writer, colorEnabled, spinnerEnabled bool) *TerminalPresenter {
	return &TerminalPresenter{
		out:            out,
		errOut:         errOut,
		spinnerEnabled: spinnerEnabled && IsTerminal(errOut),
		styles:         newStyles(colorEnabled && IsTerminal(errOut)),
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Show implements Presenter. The message is never styled so it can be piped.
func (p *TerminalPresenter) Show(message string) error {
	_, err := fmt.Fprintln(p.out, message)
	return err
}

// Committed implements Presenter.
func (p *TerminalPresenter) Committed(message string) {
	fmt.Fprintln(p.errOut, p.styles.success.Render("Committed with message:")+" "+p.styles.message.Render(message))
}

// NoChanges implements Presenter.
func (p *TerminalPresenter) NoChanges() {
	fmt.Fprintln(p.errOut, p.styles.info.Render(NoChangesMessage))
}

// ShowSpinner implements Presenter.
func (p *TerminalPresenter) ShowSpinner(text string) Spinner {
	var s Spinner = noopSpinner{}
	if p.spinnerEnabled {
		s = newBubbleSpinner(p.errOut, text, p.styles.spinner)
	}
	s.Start()
	return s
}

// bubbleSpinner implements Spinner using Bubble Tea.
type bubbleSpinner struct {
	out     io.Writer
	model   spinnerModel
	program *tea.Program
	done    chan struct{}
	mu      sync.Mutex
}

// spinnerModel is the Bubble Tea model for the spinner.
type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

// spinnerQuitMsg signals the spinner to quit.
type spinnerQuitMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.text)
}

func newBubbleSpinner(out io.Writer, text string, style lipgloss.Style) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style

	return &bubbleSpinner{
		out: out,
		model: spinnerModel{
			spinner: s,
			text:    text,
		},
	}
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		return
	}
	// No input: the spinner must not steal keystrokes or the terminal's
	// signal handling from the main flow.
	s.program = tea.NewProgram(s.model,
		tea.WithOutput(s.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(s.program, s.done)
}

// Stop quits the program and waits until the spinner line is cleared.
func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(spinnerQuitMsg{})
	<-s.done
	s.program = nil
}

// noopSpinner is used when stderr is not a terminal or the spinner is off.
type noopSpinner struct{}

func (noopSpinner) Start() {}
func (noopSpinner) Stop()  {}
