package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/onboardbase/securelog/internal/report"
)

// Run opens the findings browser and blocks until the user quits.
func Run(findings []report.Finding, masked bool, rescanFunc func() ([]report.Finding, error)) error {
	m := NewModel(findings, masked, rescanFunc)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
