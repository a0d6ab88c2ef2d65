// Package engine coordinates scans for securelog. A Coordinator owns one match
// worker for as long as it is mounted, walks a tree snapshot once per Scan and
// reports the findings through a single callback. This package is internal;
// external consumers should use the stable facade in pkg/core.
package engine
