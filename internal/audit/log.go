package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/onboardbase/securelog/internal/mask"
	"github.com/onboardbase/securelog/internal/report"
)

// FileName is the default audit log written next to the scanned root.
const FileName = ".securelog_audit.jsonl"

type ScanRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	ScanID         string           `json:"scan_id"`
	Root           string           `json:"root"`
	CatalogVersion string           `json:"catalog_version,omitempty"`
	TotalFindings  int              `json:"total_findings"`
	DetectorCounts map[string]int   `json:"detector_counts"`
	SourcesScanned int              `json:"sources_scanned"`
	Duration       string           `json:"duration"`
	Masked         bool             `json:"masked"`
	TopFindings    []FindingSummary `json:"top_findings,omitempty"`
	AllFindings    []report.Finding `json:"all_findings,omitempty"`
}

type FindingSummary struct {
	Source   string `json:"source"`
	Detector string `json:"detector"`
	Origin   string `json:"origin"`
	Line     int    `json:"line"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog returns a log at path, or at FileName under root when path is
// empty.
func NewAuditLog(root, path string) *AuditLog {
	if path == "" {
		path = filepath.Join(root, FileName)
	}
	return &AuditLog{logPath: path}
}

// Path returns the file the log appends to.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Lines that fail to decode are
// skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().UnixNano())
	}

	// Owner-only: records carry finding locations.
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index in LoadHistory order.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}

	records = append(records[:index], records[index+1:]...)

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

func CreateScanRecord(
	root string,
	catalogVersion string,
	findings []report.Finding,
	sourcesScanned int,
	duration time.Duration,
	masked bool,
) ScanRecord {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Detector]++
	}

	ordered := append([]report.Finding(nil), findings...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Source < ordered[j].Source })
	top := make([]FindingSummary, 0, 10)
	for i, f := range ordered {
		if i >= 10 {
			break
		}
		top = append(top, FindingSummary{Source: f.Source, Detector: f.Detector, Origin: f.Origin, Line: f.Line})
	}

	return ScanRecord{
		Timestamp:      time.Now(),
		Root:           root,
		CatalogVersion: catalogVersion,
		TotalFindings:  len(findings),
		DetectorCounts: counts,
		SourcesScanned: sourcesScanned,
		Duration:       duration.String(),
		Masked:         masked,
		TopFindings:    top,
		AllFindings:    redactSecrets(findings, masked),
	}
}

// redactSecrets keeps raw secret values out of the log. Values the scan
// already masked are stored as they are.
func redactSecrets(findings []report.Finding, masked bool) []report.Finding {
	redacted := make([]report.Finding, len(findings))
	for i, f := range findings {
		redacted[i] = f
		if masked || f.RawValue == "" {
			continue
		}
		v, err := mask.Mask(f.RawValue, 0)
		if err != nil {
			v = "[REDACTED]"
		}
		redacted[i].RawValue = v
	}
	return redacted
}
