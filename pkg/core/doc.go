// Package core provides a small, stable facade over securelog's internal
// engine for external integrations. It re-exports a narrow API surface so
// other tools can depend on a stable import path without importing internal
// packages.
//
// Example:
//
//	root := core.Element("div", nil, core.Text("key=sk_live_..."))
//	findings, err := core.Scan(ctx, core.DefaultConfig(), root, nil)
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, findings)
package core
