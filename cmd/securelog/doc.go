// Package securelog provides the command-line interface for securelog. It
// configures subcommands (scan, mask, detectors, etc.), parses flags, and
// executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/onboardbase/securelog/cmd/securelog"
//	func main() { securelog.Execute() }
package securelog
