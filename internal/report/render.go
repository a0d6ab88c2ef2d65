package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	// Masked means values were masked by the scan and are printed as is.
	Masked bool
}

var (
	detectorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// PrintText writes one line per finding.
func PrintText(w io.Writer, findings []Finding, opts PrintOptions) {
	Sort(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, paint(okStyle, "No secrets found ✅", opts.NoColor))
	} else {
		maxDet := 8
		for _, f := range findings {
			if l := len(f.Detector); l > maxDet {
				maxDet = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			det := fmt.Sprintf("%-*s", maxDet, f.Detector)
			fmt.Fprintf(w, "%s %s:%d  %-12s %s\n", paint(detectorStyle, det, opts.NoColor), f.Source, f.Line, f.Origin, display(f.RawValue, opts))
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable renders findings as a bordered table.
func PrintTable(w io.Writer, findings []Finding, opts PrintOptions) {
	Sort(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, paint(okStyle, "No secrets found ✅", opts.NoColor))
		printFooter(w, findings, opts)
		return
	}
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{f.Detector, f.Source, strconv.Itoa(f.Line), f.Origin, display(f.RawValue, opts)})
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Detector", "Source", "Line", "Origin", "Value"})
	_ = table.Bulk(rows)
	_ = table.Render()
	printFooter(w, findings, opts)
}

func printFooter(w io.Writer, findings []Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	byDetector := map[string]int{}
	for _, f := range findings {
		byDetector[f.Detector]++
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, paint(footerStyle, fmt.Sprintf("Findings: %d (detectors: %d)", len(findings), len(byDetector)), opts.NoColor))
	if opts.Duration > 0 {
		fmt.Fprintln(w, paint(footerStyle, fmt.Sprintf("Scan duration: %.2fs", opts.Duration.Seconds()), opts.NoColor))
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintln(w, paint(footerStyle, fmt.Sprintf("Files scanned: %d", opts.FilesScanned), opts.NoColor))
	}
}

func display(v string, opts PrintOptions) string {
	if opts.Masked {
		return v
	}
	return maskValue(v)
}

// maskValue keeps unmasked secrets off the terminal.
func maskValue(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "********"
	}
	return string(r[:4]) + "…" + string(r[len(r)-4:])
}

func paint(style lipgloss.Style, s string, noColor bool) string {
	if noColor {
		return s
	}
	return style.Render(s)
}
