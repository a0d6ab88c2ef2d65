package report

import (
	"encoding/json"
	"io"
)

// WriteJSON pretty-prints findings as a JSON array. An empty scan is written
// as [] rather than null.
func WriteJSON(w io.Writer, findings []Finding) error {
	if findings == nil {
		findings = []Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
