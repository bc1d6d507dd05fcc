// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests stage tracking, results, key handling and rendering
package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/Sendspin/umxconv/pkg/convert"
	tea "github.com/charmbracelet/bubbletea"
)

func testJob() Job {
	return Job{
		Input:  "theme.mp3",
		Source: "local",
		Config: convert.DefaultConfig(),
		Save:   true,
	}
}

func TestNewModel(t *testing.T) {
	model := NewModel(testJob())

	if model.started || model.done {
		t.Error("expected fresh model to be idle")
	}
	if model.input != "theme.mp3" {
		t.Errorf("expected input theme.mp3, got %s", model.input)
	}
	if model.target != "umx 22050Hz Stereo 16-bit +2 ch" {
		t.Errorf("unexpected target %q", model.target)
	}
	if len(model.stages) != 6 {
		t.Errorf("expected 6 stages, got %d", len(model.stages))
	}
}

func TestStagesFor(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		save     bool
		expected []convert.Stage
	}{
		{
			name:     "it without save",
			format:   "it",
			expected: []convert.Stage{convert.StageDecode, convert.StageResample, convert.StageEncode, convert.StageModule},
		},
		{
			name:     "umx with save",
			format:   "umx",
			save:     true,
			expected: []convert.Stage{convert.StageDecode, convert.StageResample, convert.StageEncode, convert.StageModule, convert.StagePackage, convert.StageSave},
		},
		{
			name:     "default format packages",
			format:   "",
			expected: []convert.Stage{convert.StageDecode, convert.StageResample, convert.StageEncode, convert.StageModule, convert.StagePackage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StagesFor(tt.format, tt.save)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("stage %d: expected %s, got %s", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestStageProgress(t *testing.T) {
	model := NewModel(testJob())

	model.applyStage(convert.StageDecode)
	if !model.started {
		t.Error("expected model to be started")
	}
	if n := model.completedStages(); n != 0 {
		t.Errorf("expected 0 completed stages, got %d", n)
	}

	model.applyStage(convert.StageModule)
	if n := model.completedStages(); n != 3 {
		t.Errorf("expected 3 completed stages, got %d", n)
	}

	model.applyStage(convert.StageDone)
	if !model.done {
		t.Error("expected done after StageDone")
	}
	if n := model.completedStages(); n != len(model.stages) {
		t.Errorf("expected all stages completed, got %d", n)
	}
}

func TestStageIcons(t *testing.T) {
	model := NewModel(testJob())
	model.applyStage(convert.StageEncode)

	tests := []struct {
		stage    convert.Stage
		expected string
	}{
		{convert.StageDecode, "✓"},
		{convert.StageResample, "✓"},
		{convert.StageEncode, "▶"},
		{convert.StageModule, "·"},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			icon, _ := model.stageIcon(tt.stage)
			if icon != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, icon)
			}
		})
	}

	model.applyDone(DoneMsg{Err: errors.New("boom")})
	if icon, _ := model.stageIcon(convert.StageEncode); icon != "✗" {
		t.Errorf("expected failed stage marker, got %s", icon)
	}
	if icon, _ := model.stageIcon(convert.StageDecode); icon != "✓" {
		t.Errorf("expected earlier stage to stay done, got %s", icon)
	}
}

func TestDoneMsgQuits(t *testing.T) {
	model := NewModel(testJob())

	updated, cmd := model.Update(DoneMsg{Filename: "output.umx", Size: 1234, Duration: 2.5})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	m := updated.(Model)
	if !m.Done() || m.Err() != nil {
		t.Errorf("expected successful completion, got done=%v err=%v", m.Done(), m.Err())
	}

	view := m.View()
	for _, want := range []string{"output.umx", "1234 bytes", "2.50s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDoneMsgError(t *testing.T) {
	model := NewModel(testJob())
	model.applyStage(convert.StageDecode)

	updated, _ := model.Update(DoneMsg{Err: convert.ErrDecode})
	m := updated.(Model)

	if !errors.Is(m.Err(), convert.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", m.Err())
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Error("expected error in view")
	}
}

func TestStatusMsgSource(t *testing.T) {
	model := NewModel(testJob())

	updated, _ := model.Update(StatusMsg{Source: "Studio (10.0.0.2:8927)"})
	if updated.(Model).source != "Studio (10.0.0.2:8927)" {
		t.Error("expected source to be updated")
	}

	updated, _ = updated.Update(StatusMsg{})
	if updated.(Model).source != "Studio (10.0.0.2:8927)" {
		t.Error("expected empty status to keep source")
	}
}

func TestKeyHandling(t *testing.T) {
	model := NewModel(testJob())

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if !updated.(Model).showDetails {
		t.Error("expected details to toggle on")
	}
	if !strings.Contains(updated.View(), "DEBUG:") {
		t.Error("expected details in view")
	}

	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !updated.(Model).Quitting() {
		t.Error("expected quitting state")
	}
}

func TestWindowSize(t *testing.T) {
	model := NewModel(testJob())

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m := updated.(Model)
	if m.width != 80 || m.height != 24 {
		t.Errorf("expected 80x24, got %dx%d", m.width, m.height)
	}
}

func TestViewHeader(t *testing.T) {
	view := NewModel(testJob()).View()
	for _, want := range []string{"UMX Converter", "theme.mp3", "umx 22050Hz", "local", "decode", "package", "save", "0/6"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value, max, width int
		filled            int
	}{
		{0, 6, 20, 0},
		{3, 6, 20, 10},
		{6, 6, 20, 20},
		{1, 0, 4, 4},
	}

	for _, tt := range tests {
		bar := renderBar(tt.value, tt.max, tt.width)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("renderBar(%d, %d, %d): expected %d filled, got %d", tt.value, tt.max, tt.width, tt.filled, got)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tt.width {
			t.Errorf("expected width %d, got %d", tt.width, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %s", got)
	}
	if got := truncate("a-very-long-file-name.wav", 10); got != "a-very-..." {
		t.Errorf("expected truncated string, got %s", got)
	}
}
