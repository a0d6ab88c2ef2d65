package tui

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/onboardbase/securelog/internal/report"
)

// copyValueToClipboard copies the selected finding's value.
func (m Model) copyValueToClipboard() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return func() tea.Msg { return statusMsg("No finding selected") }
	}
	if err := clipboard.WriteAll(f.RawValue); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg("Copied value to clipboard") }
}

// copySourceToClipboard copies the selected finding's source path.
func (m Model) copySourceToClipboard() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return func() tea.Msg { return statusMsg("No finding selected") }
	}
	if err := clipboard.WriteAll(f.Source); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied: %s", f.Source)) }
}

// copyFindingToClipboard copies full finding details.
func (m Model) copyFindingToClipboard() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return func() tea.Msg { return statusMsg("No finding selected") }
	}
	if err := clipboard.WriteAll(findingText(*f)); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg("Copied finding details to clipboard") }
}

func findingText(f report.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\n", f.Source)
	fmt.Fprintf(&sb, "Detector: %s\n", f.Detector)
	fmt.Fprintf(&sb, "Origin: %s\n", f.Origin)
	fmt.Fprintf(&sb, "Line: %d\n", f.Line)
	fmt.Fprintf(&sb, "Value: %s\n", f.RawValue)
	return sb.String()
}

// exportFindings writes the current view to a file in the working directory.
func (m *Model) exportFindings(format string) tea.Cmd {
	fs := m.displayFindings()
	if len(fs) == 0 {
		return func() tea.Msg { return statusMsg("Nothing to export") }
	}
	var buf bytes.Buffer
	var err error
	ext := format
	switch format {
	case "sarif":
		err = report.WriteSARIF(&buf, fs, "")
	default:
		ext = "json"
		err = report.WriteJSON(&buf, fs)
	}
	if err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Export failed: %v", err)) }
	}
	name := fmt.Sprintf("securelog-findings-%s.%s", time.Now().Format("20060102-150405"), ext)
	if err := os.WriteFile(name, buf.Bytes(), 0600); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Export failed: %v", err)) }
	}
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Exported %d findings to %s", len(fs), name)) }
}

func (m *Model) displayFindings() []report.Finding {
	out := make([]report.Finding, len(m.display))
	for i, idx := range m.display {
		out[i] = m.findings[idx]
	}
	return out
}
