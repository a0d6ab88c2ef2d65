package tui

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/onboardbase/securelog/internal/report"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Sort columns, cycled with "s".
const (
	sortSource = iota
	sortDetector
	sortOrigin
	sortColumns
)

var sortNames = [sortColumns]string{"source", "detector", "origin"}

type statusMsg string

type rescanMsg struct {
	findings []report.Finding
	err      error
}

// Model is the state of the findings browser.
type Model struct {
	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model
	search   textinput.Model

	findings   []report.Finding
	display    []int // indices into findings after filter and sort
	rescanFunc func() ([]report.Finding, error)
	masked     bool
	prefs      Prefs

	sortCol     int
	sortReverse bool
	searching   bool
	query       string

	width, height int
	ready         bool
	quitting      bool
	scanning      bool
	showHelp      bool

	statusMessage string
	statusTimeout *time.Time
	lastScanTime  time.Time
}

// NewModel builds a browser over findings. masked reports that values were
// masked by the scan, so revealing them shows nothing new. rescanFunc may be
// nil.
func NewModel(findings []report.Finding, masked bool, rescanFunc func() ([]report.Finding, error)) Model {
	cols := []table.Column{
		{Title: "Detector", Width: 22},
		{Title: "Source", Width: 30},
		{Title: "Line", Width: 5},
		{Title: "Origin", Width: 12},
		{Title: "Value", Width: 24},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(10))
	st := table.DefaultStyles()
	st.Header = st.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).BorderBottom(true).Bold(true)
	st.Selected = st.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(false)
	t.SetStyles(st)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "filter by detector, source, origin or value"
	ti.Prompt = "/ "

	m := Model{
		table:        t,
		viewport:     viewport.New(80, 10),
		spinner:      sp,
		search:       ti,
		findings:     findings,
		rescanFunc:   rescanFunc,
		masked:       masked,
		prefs:        LoadPrefs(),
		lastScanTime: time.Now(),
	}
	m.rebuild()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) rescan() tea.Cmd {
	if m.rescanFunc == nil {
		return func() tea.Msg { return statusMsg("Rescan not available") }
	}
	m.scanning = true
	fn := m.rescanFunc
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		fs, err := fn()
		return rescanMsg{findings: fs, err: err}
	})
}

// rebuild recomputes the filtered, sorted view and the table rows.
func (m *Model) rebuild() {
	q := strings.ToLower(m.query)
	m.display = nil
	for i, f := range m.findings {
		if q == "" || matchesQuery(f, q) {
			m.display = append(m.display, i)
		}
	}
	sort.SliceStable(m.display, func(a, b int) bool {
		fa, fb := m.findings[m.display[a]], m.findings[m.display[b]]
		var less bool
		switch m.sortCol {
		case sortDetector:
			less = fa.Detector < fb.Detector
		case sortOrigin:
			less = fa.Origin < fb.Origin
		default:
			less = fa.Source < fb.Source || (fa.Source == fb.Source && fa.Line < fb.Line)
		}
		if m.sortReverse {
			return !less
		}
		return less
	})

	rows := make([]table.Row, len(m.display))
	for i, idx := range m.display {
		f := m.findings[idx]
		rows[i] = table.Row{f.Detector, f.Source, strconv.Itoa(f.Line), f.Origin, m.valueText(f.RawValue)}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
	m.updateViewportContent()
}

func matchesQuery(f report.Finding, q string) bool {
	for _, s := range []string{f.Detector, f.Source, f.Origin, f.RawValue} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func (m Model) valueText(v string) string {
	if m.prefs.HideSecrets && !m.masked {
		return redactSecret(v)
	}
	return v
}

func (m Model) getSelectedFinding() *report.Finding {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.display) {
		return nil
	}
	f := m.findings[m.display[c]]
	return &f
}

func (m *Model) cycleSortColumn() {
	m.sortCol = (m.sortCol + 1) % sortColumns
	m.rebuild()
}

func (m *Model) toggleSortReverse() {
	m.sortReverse = !m.sortReverse
	m.rebuild()
}

func (m *Model) getSortIndicator() string {
	dir := "↑"
	if m.sortReverse {
		dir = "↓"
	}
	return fmt.Sprintf("  [sort: %s %s]", sortNames[m.sortCol], dir)
}

func (m *Model) setStatus(s string) {
	m.statusMessage = s
	timeout := time.Now().Add(3 * time.Second)
	m.statusTimeout = &timeout
}

// locateValue returns the 1-based line of the first occurrence of value in
// the file at path, or 0.
func locateValue(path, value string) int {
	if value == "" {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	n := 0
	for sc.Scan() {
		n++
		if strings.Contains(sc.Text(), value) {
			return n
		}
	}
	return 0
}

func readFileContext(path string, targetLine int, contextLines int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	startLine := max(targetLine-contextLines, 1)
	endLine := targetLine + contextLines

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines, startLine, scanner.Err()
}

func (m *Model) updateViewportContent() {
	f := m.getSelectedFinding()
	if f == nil {
		m.viewport.SetContent("")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", keyStyle.Render("Detector:"), matchStyle.Render(f.Detector))
	fmt.Fprintf(&sb, "%s %s\n", keyStyle.Render("Source:  "), f.Source)
	fmt.Fprintf(&sb, "%s %s (line %d of node)\n", keyStyle.Render("Origin:  "), f.Origin, f.Line)
	fmt.Fprintf(&sb, "%s %s\n", keyStyle.Render("Value:   "), m.valueText(f.RawValue))

	// Node lines are relative to the node text, so the file position is found
	// by searching for the value itself.
	if !m.masked {
		if at := locateValue(f.Source, f.RawValue); at > 0 {
			lines, start, err := readFileContext(f.Source, at, m.prefs.ContextLines)
			if err == nil && len(lines) > 0 {
				sb.WriteString("\n")
				for i, l := range lines {
					n := start + i
					if m.prefs.HideSecrets {
						l = strings.ReplaceAll(l, f.RawValue, redactSecret(f.RawValue))
					}
					marker := "  "
					if n == at {
						marker = matchStyle.Render("> ")
					}
					fmt.Fprintf(&sb, "%s%4d  %s\n", marker, n, strings.TrimRight(report.Highlight(l, f.Source), "\n"))
				}
			}
		}
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoTop()
}

func (m *Model) resize() {
	tableHeight := max(m.height/2-4, 3)
	m.table.SetHeight(tableHeight)
	m.table.SetWidth(max(m.width-2, 20))
	m.viewport.Width = max(m.width-2, 20)
	m.viewport.Height = max(m.height-tableHeight-8, 3)
	m.updateViewportContent()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case rescanMsg:
		m.scanning = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Rescan failed: %v", msg.err))
			return m, nil
		}
		m.findings = msg.findings
		m.lastScanTime = time.Now()
		m.rebuild()
		m.setStatus(fmt.Sprintf("Rescan complete: %d findings", len(m.findings)))
		return m, nil

	case statusMsg:
		m.setStatus(string(msg))
		return m, nil

	case tea.KeyMsg:
		if m.scanning {
			if msg.String() == "ctrl+c" {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.searching {
			switch msg.String() {
			case "enter":
				m.searching = false
				m.search.Blur()
				return m, nil
			case "esc":
				m.searching = false
				m.search.Blur()
				m.search.SetValue("")
				m.query = ""
				m.rebuild()
				return m, nil
			}
			m.search, cmd = m.search.Update(msg)
			m.query = m.search.Value()
			m.rebuild()
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "?":
			m.showHelp = true
			return m, nil
		case "/":
			m.searching = true
			m.search.Focus()
			return m, textinput.Blink
		case "esc":
			if m.query != "" {
				m.search.SetValue("")
				m.query = ""
				m.rebuild()
			}
			return m, nil
		case "s":
			m.cycleSortColumn()
			return m, nil
		case "S":
			m.toggleSortReverse()
			return m, nil
		case "h":
			m.prefs.HideSecrets = !m.prefs.HideSecrets
			_ = SavePrefs(m.prefs)
			m.rebuild()
			return m, nil
		case "+", "=":
			m.prefs.ContextLines = min(m.prefs.ContextLines+2, 20)
			m.updateViewportContent()
			return m, nil
		case "-":
			m.prefs.ContextLines = max(m.prefs.ContextLines-2, 1)
			m.updateViewportContent()
			return m, nil
		case "c":
			return m, m.copyValueToClipboard()
		case "y":
			return m, m.copySourceToClipboard()
		case "Y":
			return m, m.copyFindingToClipboard()
		case "e":
			return m, m.exportFindings("json")
		case "E":
			return m, m.exportFindings("sarif")
		case "r":
			return m, m.rescan()
		case "pgdown", "pgup", "ctrl+d", "ctrl+u":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	before := m.table.Cursor()
	m.table, cmd = m.table.Update(msg)
	if m.table.Cursor() != before {
		m.updateViewportContent()
	}
	if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
		m.statusMessage = ""
		m.statusTimeout = nil
	}
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.scanning {
		box := popupStyle.Width(40).Align(lipgloss.Center).
			Render(fmt.Sprintf("%s  Rescanning...\n\nPlease wait", m.spinner.View()))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupStyle.Render(helpText))
	}

	var stats string
	switch {
	case len(m.findings) == 0:
		stats = okStyle.Render("[OK] No secrets detected")
	case m.query != "":
		stats = fmt.Sprintf("Showing: %d/%d  [FILTER: '%s']%s", len(m.display), len(m.findings), m.query, m.getSortIndicator())
	default:
		stats = fmt.Sprintf("Total: %d%s", len(m.findings), m.getSortIndicator())
	}
	if m.masked {
		stats += "  [masked]"
	}

	header := titleStyle.Render("securelog") + "  " + stats
	var b strings.Builder
	b.WriteString(header + "\n")
	if m.searching || m.query != "" {
		b.WriteString(m.search.View() + "\n")
	}
	b.WriteString(tableBorderStyle.Render(m.table.View()) + "\n")
	b.WriteString(detailPaneBorderStyle.Render(m.viewport.View()) + "\n")

	status := fmt.Sprintf(" last scan %s  |  ? help  q quit", m.lastScanTime.Format("15:04:05"))
	if m.statusMessage != "" {
		status = " " + m.statusMessage
	}
	b.WriteString(statusStyle.Width(max(m.width, 1)).Render(status))
	return b.String()
}

const helpText = `Keys

  ↑/↓ j/k   move
  /         filter, esc clears
  s / S     cycle sort column / reverse
  h         show or hide secret values
  + / -     more or less source context
  c         copy value
  y / Y     copy source / full finding
  e / E     export JSON / SARIF
  r         rescan
  q         quit`
