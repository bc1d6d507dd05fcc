// ABOUTME: Bubbletea model for the conversion progress TUI
// ABOUTME: Defines conversion state, stage tracking and rendering
package ui

import (
	"fmt"
	"time"

	"github.com/Sendspin/umxconv/pkg/convert"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const boxWidth = 54

// Model represents the TUI state
type Model struct {
	// Job
	input  string
	target string
	source string // "local" or the server name
	stages []convert.Stage

	// Progress
	current   convert.Stage
	started   bool
	startTime time.Time
	elapsed   time.Duration

	// Result
	done     bool
	filename string
	size     int
	duration float64
	err      error

	showDetails bool
	quitting    bool

	// Dimensions
	width  int
	height int
}

// Job describes the conversion shown by the TUI
type Job struct {
	Input  string
	Source string
	Config convert.Config
	Save   bool
}

// StageMsg reports that a pipeline stage has started
type StageMsg struct {
	Stage convert.Stage
}

// DoneMsg reports the end of the conversion
type DoneMsg struct {
	Filename string
	Size     int
	Duration float64
	Err      error
}

// StatusMsg updates the job description
type StatusMsg struct {
	Source string
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// NewModel creates a TUI model for job
func NewModel(job Job) Model {
	return Model{
		input:  job.Input,
		target: describeTarget(job.Config),
		source: job.Source,
		stages: StagesFor(job.Config.Format, job.Save),
	}
}

// StagesFor lists the stages a conversion to format goes through
func StagesFor(format string, save bool) []convert.Stage {
	stages := []convert.Stage{
		convert.StageDecode,
		convert.StageResample,
		convert.StageEncode,
		convert.StageModule,
	}
	if format != convert.FormatIT {
		stages = append(stages, convert.StagePackage)
	}
	if save {
		stages = append(stages, convert.StageSave)
	}
	return stages
}

func describeTarget(cfg convert.Config) string {
	format := cfg.Format
	if format == "" {
		format = convert.DefaultFormat
	}
	return fmt.Sprintf("%s %dHz %s %d-bit +%d ch",
		format, cfg.SampleRate, channelName(cfg.Stereo), cfg.BitDepth, cfg.ExtraChannels)
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		if msg.Source != "" {
			m.source = msg.Source
		}
	case StageMsg:
		m.applyStage(msg.Stage)
	case DoneMsg:
		m.applyDone(msg)
		return m, tea.Quit
	}

	return m, nil
}

// applyStage records the stage that just started
func (m *Model) applyStage(stage convert.Stage) {
	if !m.started {
		m.started = true
		m.startTime = time.Now()
	}
	m.current = stage
	if stage == convert.StageDone {
		m.done = true
	}
}

// applyDone records the result
func (m *Model) applyDone(msg DoneMsg) {
	m.done = true
	m.err = msg.Err
	m.filename = msg.Filename
	m.size = msg.Size
	m.duration = msg.Duration
	if m.started {
		m.elapsed = time.Since(m.startTime)
	}
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "d":
		m.showDetails = !m.showDetails
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	s := m.renderHeader()
	s += m.renderStages()
	s += m.renderResult()

	if m.showDetails {
		s += m.renderDetails()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the job description
func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ UMX Converter ──────────────────────────────────────┐
│ Input:  %-44s │
│ Target: %-44s │
│ Via:    %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(m.input, 44), truncate(m.target, 44), truncate(m.source, 44))
}

// renderStages renders one line per stage and a progress bar
func (m Model) renderStages() string {
	s := ""
	for _, stage := range m.stages {
		icon, style := m.stageIcon(stage)
		s += "│ " + style.Render(fmt.Sprintf("%s %-50s", icon, stage.String())) + " │\n"
	}

	completed := m.completedStages()
	s += fmt.Sprintf("│ [%s] %d/%d%-27s │\n",
		renderBar(completed, len(m.stages), 20), completed, len(m.stages), "")
	return s
}

// stageIcon picks the marker for a stage given the current progress
func (m Model) stageIcon(stage convert.Stage) (string, lipgloss.Style) {
	switch {
	case m.done && m.err == nil:
		return "✓", doneStyle
	case m.done && m.err != nil && m.started && stage == m.current:
		return "✗", errorStyle
	case !m.started || stage > m.current:
		return "·", pendingStyle
	case stage == m.current && !m.done:
		return "▶", activeStyle
	case stage < m.current:
		return "✓", doneStyle
	default:
		return "·", pendingStyle
	}
}

// completedStages counts stages finished so far
func (m Model) completedStages() int {
	if m.done && m.err == nil {
		return len(m.stages)
	}
	if !m.started {
		return 0
	}
	n := 0
	for _, stage := range m.stages {
		if stage < m.current {
			n++
		}
	}
	return n
}

// renderResult renders the outcome once finished
func (m Model) renderResult() string {
	s := "├──────────────────────────────────────────────────────┤\n"
	switch {
	case !m.done:
		s += fmt.Sprintf("│ %-52s │\n", "Converting...")
	case m.err != nil:
		s += "│ " + errorStyle.Render(fmt.Sprintf("%-52s", "Error: "+truncate(m.err.Error(), 45))) + " │\n"
	default:
		s += fmt.Sprintf("│ Wrote:  %-44s │\n", truncate(m.filename, 44))
		s += fmt.Sprintf("│ Size:   %-44s │\n", fmt.Sprintf("%d bytes, %.2fs of audio", m.size, m.duration))
	}
	return s
}

// renderDetails renders timing information
func (m Model) renderDetails() string {
	elapsed := m.elapsed
	if !m.done && m.started {
		elapsed = time.Since(m.startTime)
	}
	return fmt.Sprintf("│ DEBUG:  stage=%-10s elapsed=%-20s │\n",
		m.current.String(), elapsed.Round(time.Millisecond).String())
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Details  q:Quit                                    │
└──────────────────────────────────────────────────────┘
`
}

// Err returns the conversion error, if any
func (m Model) Err() error {
	return m.err
}

// Done reports whether the conversion finished
func (m Model) Done() bool {
	return m.done
}

// Quitting reports whether the user quit before the conversion ended
func (m Model) Quitting() bool {
	return m.quitting
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(stereo bool) string {
	if stereo {
		return "Stereo"
	}
	return "Mono"
}
