// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program that shows one conversion
package ui

import (
	"fmt"

	"github.com/Sendspin/umxconv/pkg/convert"
	tea "github.com/charmbracelet/bubbletea"
)

// Program shows the progress of one conversion
type Program struct {
	program *tea.Program
}

// NewProgram creates a program for job. Options are passed to bubbletea.
func NewProgram(job Job, opts ...tea.ProgramOption) *Program {
	return &Program{
		program: tea.NewProgram(NewModel(job), opts...),
	}
}

// Run blocks until the conversion is done or the user quits, and
// returns the final model
func (p *Program) Run() (Model, error) {
	final, err := p.program.Run()
	if err != nil {
		return Model{}, fmt.Errorf("tui failed: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Model{}, fmt.Errorf("unexpected final model %T", final)
	}
	return m, nil
}

// Stage reports a started stage; it matches convert.WithProgress
func (p *Program) Stage(stage convert.Stage) {
	p.program.Send(StageMsg{Stage: stage})
}

// Source updates where the conversion runs
func (p *Program) Source(source string) {
	p.program.Send(StatusMsg{Source: source})
}

// Done reports the outcome and ends the program
func (p *Program) Done(filename string, size int, duration float64, err error) {
	p.program.Send(DoneMsg{Filename: filename, Size: size, Duration: duration, Err: err})
}
