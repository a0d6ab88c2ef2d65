// Package detectors holds the secret pattern catalog used by securelog. The
// bundled catalog is a versioned YAML document compiled into the binary; a
// replacement catalog can be loaded from disk and custom patterns appended.
// Patterns are plain data: compilation happens in the matcher.
package detectors
