package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

type statusMsg Status

type tuiModel struct {
	bar    progress.Model
	status Status
	width  int
}

func newTUIModel() tuiModel {
	return tuiModel{bar: progress.New(progress.WithDefaultGradient()), width: 80}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = Status(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-4, 10)
	}
	return m, nil
}

func (m tuiModel) View() string {
	return fmt.Sprintf("%s\n%s\n", m.bar.ViewAs(m.status.Percent()/100), m.status.String())
}

// TUISink renders progress as a bubbletea program with a progress bar.
// Diagnostics are printed above the program.
type TUISink struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
	err     error
}

// NewTUISink starts a TUI writing to w. Input and signal handling stay with
// the caller so an interrupt reaches the run context.
func NewTUISink(w io.Writer) *TUISink {
	p := tea.NewProgram(newTUIModel(),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s := &TUISink{program: p, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		_, s.err = p.Run()
	}()
	return s
}

func (s *TUISink) Render(status Status) {
	s.program.Send(statusMsg(status))
}

func (s *TUISink) Diagnostic(line string) {
	s.program.Println(line + "\n")
}

// Close stops the program and waits for the final frame to be flushed.
func (s *TUISink) Close() {
	s.once.Do(func() {
		s.program.Quit()
		<-s.done
	})
}

// Err reports the error the program exited with, if any. Valid after Close.
func (s *TUISink) Err() error {
	return s.err
}
