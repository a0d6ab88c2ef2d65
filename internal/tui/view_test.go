package tui

import (
	"strings"
	"testing"
)

func TestView_Rendering(t *testing.T) {
	m := newTestModel(t, testFindings())

	output := m.View()
	if !strings.Contains(output, "Total: 3") {
		t.Errorf("expected totals in view, got %q", output)
	}
	if strings.Contains(output, token) {
		t.Error("raw secret rendered while hidden")
	}

	m.showHelp = true
	if out := m.View(); !strings.Contains(out, "export JSON") {
		t.Error("help view missing key list")
	}
	m.showHelp = false

	m.query = "aws"
	m.rebuild()
	if out := m.View(); !strings.Contains(out, "Showing: 1/3") {
		t.Errorf("expected filter summary, got %q", out)
	}

	m.scanning = true
	if out := m.View(); !strings.Contains(out, "Rescanning") {
		t.Error("expected scanning popup")
	}

	empty := newTestModel(t, nil)
	if out := empty.View(); !strings.Contains(out, "No secrets detected") {
		t.Errorf("expected empty-state message, got %q", out)
	}

	notReady := newTestModel(t, nil)
	notReady.ready = false
	if notReady.View() != "Initializing..." {
		t.Error("expected initializing view")
	}
}
